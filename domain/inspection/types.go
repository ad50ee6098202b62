// Package inspection holds the canonical record types of the safety
// inspection dashboard: observations, their two-value status vocabulary and
// the immutable record set produced by the loader.
package inspection

import (
	"time"

	"inspectdash/domain/core"
)

// Status is the canonical observation status
type Status string

const (
	StatusCompleted Status = "Completed"
	StatusOverdue   Status = "Overdue"
)

// IsCanonical reports whether s is one of the two canonical values
func (s Status) IsCanonical() bool {
	return s == StatusCompleted || s == StatusOverdue
}

func (s Status) String() string { return string(s) }

// Observation is one inspection finding after normalization
type Observation struct {
	Key              core.RowKey `json:"key"`
	ID               string      `json:"id"`
	Area             string      `json:"area"`
	Section          string      `json:"section"`
	Month            string      `json:"month"`
	Owner            string      `json:"owner,omitempty"`
	Status           Status      `json:"status"`
	Description      string      `json:"description"`
	CorrectiveAction string      `json:"corrective_action"`
	AssociatedRisk   string      `json:"associated_risk"`
	DueDate          string      `json:"due_date"`
}

// HasOwner reports whether the observation names a responsible party
func (o Observation) HasOwner() bool {
	return o.Owner != ""
}

// IsPending reports whether the observation is still outstanding
func (o Observation) IsPending() bool {
	return o.Status == StatusOverdue
}

// Row is one spreadsheet row keyed by cleaned header
type Row map[string]string

// Source describes where a record set came from
type Source struct {
	Path     string    `json:"path"`
	Sheet    string    `json:"sheet"`
	Hash     core.Hash `json:"hash"`
	LoadedAt time.Time `json:"loaded_at"`
}

// RecordSet is the normalized, read-only table behind the dashboard.
// Rows and Observations are parallel: Rows[i] is the display form of
// Observations[i]. Callers must not modify the slices; derived views copy.
type RecordSet struct {
	Headers      []string
	Rows         []Row
	Observations []Observation
	Source       Source
}

// Len returns the number of observations
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Observations)
}

// HasColumn reports whether the cleaned headers include name
func (rs *RecordSet) HasColumn(name string) bool {
	for _, h := range rs.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Subset builds a new record set holding the rows at the given indices.
// Headers and Source are shared; row and observation slices are fresh.
func (rs *RecordSet) Subset(indices []int) *RecordSet {
	out := &RecordSet{
		Headers:      rs.Headers,
		Rows:         make([]Row, 0, len(indices)),
		Observations: make([]Observation, 0, len(indices)),
		Source:       rs.Source,
	}
	for _, i := range indices {
		out.Rows = append(out.Rows, rs.Rows[i])
		out.Observations = append(out.Observations, rs.Observations[i])
	}
	return out
}

// Find returns the observation with the given row key
func (rs *RecordSet) Find(key core.RowKey) (Observation, bool) {
	for _, o := range rs.Observations {
		if o.Key == key {
			return o, true
		}
	}
	return Observation{}, false
}

// RawTable is one sheet as read from disk, before normalization. Headers are
// trimmed and unique; cells are untouched.
type RawTable struct {
	Sheet      string
	Headers    []string
	Rows       []Row
	RowNumbers []int // 1-based sheet row of each entry in Rows
}

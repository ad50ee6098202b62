package analysis

import (
	"sort"
	"strings"

	"inspectdash/domain/inspection"
)

// Labels shown for the "show all" selector value
const (
	AllMonthsLabel   = "Todos"
	AllSectionsLabel = "Todas"
)

// Selection narrows the record set. An empty field matches every row.
type Selection struct {
	Month   string `form:"month" json:"month"`
	Section string `form:"section" json:"section"`
}

// MonthLabel is the month as shown to the user
func (s Selection) MonthLabel() string {
	if s.Month == "" {
		return AllMonthsLabel
	}
	return s.Month
}

// SectionLabel is the section as shown to the user
func (s Selection) SectionLabel() string {
	if s.Section == "" {
		return AllSectionsLabel
	}
	return s.Section
}

// Matches reports whether o passes both selectors. Comparison is exact.
func (s Selection) Matches(o inspection.Observation) bool {
	if s.Month != "" && o.Month != s.Month {
		return false
	}
	if s.Section != "" && o.Section != s.Section {
		return false
	}
	return true
}

// Apply returns the rows of rs matching sel as a new record set.
// rs itself is never modified; an empty result is valid.
func Apply(rs *inspection.RecordSet, sel Selection) *inspection.RecordSet {
	if rs == nil {
		return &inspection.RecordSet{}
	}
	indices := make([]int, 0, len(rs.Observations))
	for i, o := range rs.Observations {
		if sel.Matches(o) {
			indices = append(indices, i)
		}
	}
	return rs.Subset(indices)
}

// Option is one entry of a selector. Value "" is the "all" entry.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options holds the selector domains
type Options struct {
	Months   []Option `json:"months"`
	Sections []Option `json:"sections"`
}

// SelectorOptions lists the distinct non-empty months and sections of the
// unfiltered record set, sorted, each list led by its "all" entry.
func SelectorOptions(rs *inspection.RecordSet) Options {
	var months, sections []string
	if rs != nil {
		months = distinct(rs.Observations, func(o inspection.Observation) string { return o.Month })
		sections = distinct(rs.Observations, func(o inspection.Observation) string { return o.Section })
	}
	return Options{
		Months:   withAll(AllMonthsLabel, months),
		Sections: withAll(AllSectionsLabel, sections),
	}
}

func withAll(label string, values []string) []Option {
	out := make([]Option, 0, len(values)+1)
	out = append(out, Option{Value: "", Label: label})
	for _, v := range values {
		out = append(out, Option{Value: v, Label: v})
	}
	return out
}

// distinct returns the sorted distinct non-blank values of field
func distinct(observations []inspection.Observation, field func(inspection.Observation) string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, o := range observations {
		v := field(o)
		if IsBlank(v) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// IsBlank reports whether a display cell is empty after trimming
func IsBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}

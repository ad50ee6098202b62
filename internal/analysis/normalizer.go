package analysis

import (
	"strings"

	"go.uber.org/zap"

	"inspectdash/domain/core"
	"inspectdash/domain/inspection"
)

// statusLabels maps the spreadsheet's status vocabulary to canonical values.
// Matching is exact after trimming, like the workbook's own validation list.
var statusLabels = map[string]inspection.Status{
	"Completado": inspection.StatusCompleted,
	"Pendiente":  inspection.StatusOverdue,
	"Completed":  inspection.StatusCompleted,
	"Overdue":    inspection.StatusOverdue,
}

// NormalizeReport summarises what normalization did to a table
type NormalizeReport struct {
	Rows          int            `json:"rows"`
	StatusColumn  bool           `json:"status_column"`
	OwnerColumn   bool           `json:"owner_column"`
	BlankStatuses int            `json:"blank_statuses"`
	Clamped       int            `json:"clamped"`
	ClampedValues map[string]int `json:"clamped_values,omitempty"`
	BlankOwners   int            `json:"blank_owners"`
}

// Normalizer turns a raw table into the canonical record set
type Normalizer struct {
	columns inspection.Columns
	logger  *zap.Logger
}

// NewNormalizer creates a normalizer for the given column mapping
func NewNormalizer(columns inspection.Columns, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{columns: columns.WithDefaults(), logger: logger.Named("normalizer")}
}

// Columns returns the column mapping in use
func (n *Normalizer) Columns() inspection.Columns {
	return n.columns
}

// IsNullLike reports whether a cell holds no value: blank, or one of the
// spellings spreadsheets and exports use for a missing value.
func IsNullLike(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

// NormalizeStatus maps a raw status cell to a canonical status. known is
// false when the value was not recognised and got clamped to Overdue.
func NormalizeStatus(raw string) (status inspection.Status, known bool) {
	value := strings.TrimSpace(raw)
	if IsNullLike(value) {
		return inspection.StatusOverdue, true
	}
	if status, ok := statusLabels[value]; ok {
		return status, true
	}
	return inspection.StatusOverdue, false
}

// NormalizeOwner trims the owner cell; null-like values become "".
func NormalizeOwner(raw string) string {
	if IsNullLike(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}

// Normalize builds the record set. The raw table is not modified: rows are
// copied before the status and owner cells are rewritten.
func (n *Normalizer) Normalize(raw *inspection.RawTable, source inspection.Source) (*inspection.RecordSet, NormalizeReport) {
	cols := n.columns
	headers := make([]string, len(raw.Headers))
	for i, h := range raw.Headers {
		headers[i] = strings.TrimSpace(h)
	}

	rs := &inspection.RecordSet{
		Headers:      headers,
		Rows:         make([]inspection.Row, 0, len(raw.Rows)),
		Observations: make([]inspection.Observation, 0, len(raw.Rows)),
		Source:       source,
	}
	report := NormalizeReport{
		Rows:         len(raw.Rows),
		StatusColumn: rs.HasColumn(cols.Status),
		OwnerColumn:  rs.HasColumn(cols.Owner),
	}

	for i, rawRow := range raw.Rows {
		row := make(inspection.Row, len(headers))
		for j, h := range raw.Headers {
			row[headers[j]] = rawRow[h]
		}

		status := inspection.StatusOverdue
		if report.StatusColumn {
			cell := row[cols.Status]
			if IsNullLike(cell) {
				report.BlankStatuses++
			}
			var known bool
			status, known = NormalizeStatus(cell)
			if !known {
				report.Clamped++
				if report.ClampedValues == nil {
					report.ClampedValues = make(map[string]int)
				}
				report.ClampedValues[strings.TrimSpace(cell)]++
			}
		}
		row[cols.Status] = string(status)

		owner := ""
		if report.OwnerColumn {
			owner = NormalizeOwner(row[cols.Owner])
			row[cols.Owner] = owner
		}
		if owner == "" {
			report.BlankOwners++
		}

		rs.Rows = append(rs.Rows, row)
		rs.Observations = append(rs.Observations, inspection.Observation{
			Key:              core.NewRowKey(rowNumber(raw, i)),
			ID:               row[cols.ID],
			Area:             row[cols.Area],
			Section:          row[cols.Section],
			Month:            row[cols.Month],
			Owner:            owner,
			Status:           status,
			Description:      row[cols.Description],
			CorrectiveAction: row[cols.CorrectiveAction],
			AssociatedRisk:   row[cols.AssociatedRisk],
			DueDate:          row[cols.DueDate],
		})
	}

	if !report.StatusColumn {
		// the status column is synthesised so the table view always shows it
		rs.Headers = append(rs.Headers, cols.Status)
	}

	if report.Clamped > 0 {
		n.logger.Warn("unrecognised status values counted as Overdue",
			zap.Int("count", report.Clamped),
			zap.Any("values", report.ClampedValues),
			zap.String("column", cols.Status))
	}
	n.logger.Debug("record set normalized",
		zap.Int("rows", report.Rows),
		zap.Bool("status_column", report.StatusColumn),
		zap.Int("blank_owners", report.BlankOwners))

	return rs, report
}

// rowNumber returns the sheet row of raw.Rows[i], assuming a header in row 1
// and no skipped rows when the reader did not record positions.
func rowNumber(raw *inspection.RawTable, i int) int {
	if i < len(raw.RowNumbers) {
		return raw.RowNumbers[i]
	}
	return i + 2
}

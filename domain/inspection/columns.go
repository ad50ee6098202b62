package inspection

import (
	"inspectdash/domain/core"
)

// Columns maps observation fields to spreadsheet headers
type Columns struct {
	ID               string `yaml:"id" json:"id"`
	Area             string `yaml:"area" json:"area"`
	Section          string `yaml:"section" json:"section"`
	Month            string `yaml:"month" json:"month"`
	Owner            string `yaml:"owner" json:"owner"`
	Status           string `yaml:"status" json:"status"`
	Description      string `yaml:"description" json:"description"`
	CorrectiveAction string `yaml:"corrective_action" json:"corrective_action"`
	AssociatedRisk   string `yaml:"associated_risk" json:"associated_risk"`
	DueDate          string `yaml:"due_date" json:"due_date"`
}

// DefaultColumns returns the headers used by the RAC inspection workbook
func DefaultColumns() Columns {
	return Columns{
		ID:               "Nº",
		Area:             "ÁREA",
		Section:          "SECCIÓN",
		Month:            "MES",
		Owner:            "RESPONSABLE DE ÁREA",
		Status:           "Estado",
		Description:      "DESCRIPCIÓN",
		CorrectiveAction: "Acción Correctiva",
		AssociatedRisk:   "RIESGO ASOCIADO",
		DueDate:          "Fecha de Cumplimiento",
	}
}

// WithDefaults fills blank entries from DefaultColumns
func (c Columns) WithDefaults() Columns {
	d := DefaultColumns()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&c.ID, d.ID)
	fill(&c.Area, d.Area)
	fill(&c.Section, d.Section)
	fill(&c.Month, d.Month)
	fill(&c.Owner, d.Owner)
	fill(&c.Status, d.Status)
	fill(&c.Description, d.Description)
	fill(&c.CorrectiveAction, d.CorrectiveAction)
	fill(&c.AssociatedRisk, d.AssociatedRisk)
	fill(&c.DueDate, d.DueDate)
	return c
}

// Required returns the headers that must be present for the dashboard to render
func (c Columns) Required() []string {
	return []string{c.Month, c.Section}
}

// CheckRequired returns an error naming the first required header not in headers
func (c Columns) CheckRequired(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	for _, col := range c.Required() {
		if !present[col] {
			return core.NewMissingColumnError(col)
		}
	}
	return nil
}

package excel

// DefaultSheetName is the sheet the inspection workbook keeps its data on
const DefaultSheetName = "Hoja1"

// ExcelConfig holds configuration for the spreadsheet data source
type ExcelConfig struct {
	PreferredSheet string `json:"preferred_sheet"`
	// MaxRows caps rows read from legacy .xls files
	MaxRows int `json:"max_rows"`
}

// DefaultExcelConfig returns sensible defaults for spreadsheet processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		PreferredSheet: DefaultSheetName,
		MaxRows:        100000,
	}
}

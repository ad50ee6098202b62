package excel

import "inspectdash/domain/inspection"

// RawRowData represents a row of raw spreadsheet data as header → cell text
type RawRowData = inspection.Row

// ExcelData represents one sheet read from a spreadsheet file
type ExcelData = inspection.RawTable

// File type identifiers
const (
	FileTypeXLSX = "xlsx"
	FileTypeXLS  = "xls"
	FileTypeCSV  = "csv"
)

package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"inspectdash/domain/core"
)

// DataReader reads Excel (.xlsx, .xls) and CSV files into raw tables
type DataReader struct {
	config ExcelConfig
	logger *zap.Logger
}

// NewDataReader creates a new data reader that handles Excel and CSV files
func NewDataReader(config ExcelConfig, logger *zap.Logger) *DataReader {
	if config.PreferredSheet == "" {
		config.PreferredSheet = DefaultSheetName
	}
	if config.MaxRows <= 0 {
		config.MaxRows = DefaultExcelConfig().MaxRows
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataReader{config: config, logger: logger.Named("excel")}
}

// DetectFileType maps a file name to one of the supported file types
func DetectFileType(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FileTypeXLSX, nil
	case ".xls":
		return FileTypeXLS, nil
	case ".csv":
		return FileTypeCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Read parses spreadsheet content. name is only used to pick the format.
func (r *DataReader) Read(ctx context.Context, name string, content []byte) (*ExcelData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileType, err := DetectFileType(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var sheet string
	var rows [][]string
	switch fileType {
	case FileTypeXLSX:
		sheet, rows, err = r.readExcelRows(content)
	case FileTypeXLS:
		sheet, rows, err = r.readLegacyExcelRows(content)
	case FileTypeCSV:
		sheet, rows, err = r.readCSVRows(name, content)
	}
	if err != nil {
		return nil, err
	}

	data, err := processRows(sheet, rows)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("spreadsheet parsed",
		zap.String("file", name),
		zap.String("type", fileType),
		zap.String("sheet", sheet),
		zap.Int("columns", len(data.Headers)),
		zap.Int("rows", len(data.Rows)),
		zap.Duration("elapsed", time.Since(start)))
	return data, nil
}

// SelectSheet returns preferred if it is in sheets, otherwise the first sheet
func SelectSheet(sheets []string, preferred string) (string, bool) {
	if len(sheets) == 0 {
		return "", false
	}
	for _, name := range sheets {
		if name == preferred {
			return name, true
		}
	}
	return sheets[0], true
}

// readExcelRows reads the selected sheet of an .xlsx workbook
func (r *DataReader) readExcelRows(content []byte) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet, ok := SelectSheet(f.GetSheetList(), r.config.PreferredSheet)
	if !ok {
		return "", nil, fmt.Errorf("no worksheet found")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return sheet, rows, nil
}

// readLegacyExcelRows reads the selected sheet of a BIFF .xls workbook
func (r *DataReader) readLegacyExcelRows(content []byte) (string, [][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return "", nil, fmt.Errorf("failed to open XLS file: %w", err)
	}

	names := make([]string, 0, workbook.NumSheets())
	for i := 0; i < workbook.NumSheets(); i++ {
		if ws := workbook.GetSheet(i); ws != nil {
			names = append(names, ws.Name)
		}
	}
	sheet, ok := SelectSheet(names, r.config.PreferredSheet)
	if !ok {
		return "", nil, fmt.Errorf("no worksheet found")
	}

	var ws *xls.WorkSheet
	for i := 0; i < workbook.NumSheets(); i++ {
		if candidate := workbook.GetSheet(i); candidate != nil && candidate.Name == sheet {
			ws = candidate
			break
		}
	}
	if ws == nil {
		return "", nil, fmt.Errorf("failed to read sheet %s", sheet)
	}

	maxRow := int(ws.MaxRow)
	if maxRow >= r.config.MaxRows {
		maxRow = r.config.MaxRows - 1
	}
	rows := make([][]string, 0, maxRow+1)
	for i := 0; i <= maxRow; i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return sheet, rows, nil
}

// readCSVRows reads a CSV file; the sheet name is the file's base name
func (r *DataReader) readCSVRows(name string, content []byte) (string, [][]string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)), rows, nil
}

// processRows turns raw string rows into a table. The first row is the header.
func processRows(sheet string, rows [][]string) (*ExcelData, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrEmptySheet, sheet)
	}

	headers := cleanHeaders(rows[0])

	data := &ExcelData{
		Sheet:   sheet,
		Headers: headers,
	}
	for i := 1; i < len(rows); i++ {
		if isBlankRow(rows[i]) {
			continue
		}
		rowData := make(RawRowData, len(headers))
		for j, header := range headers {
			if j < len(rows[i]) {
				rowData[header] = rows[i][j]
			} else {
				rowData[header] = ""
			}
		}
		data.Rows = append(data.Rows, rowData)
		data.RowNumbers = append(data.RowNumbers, i+1)
	}
	return data, nil
}

// cleanHeaders trims header cells, names blank ones "Unnamed: <i>" and
// suffixes repeats with ".1", ".2", ... in order of appearance.
func cleanHeaders(headerRow []string) []string {
	headers := make([]string, len(headerRow))
	seen := make(map[string]int, len(headerRow))
	for i, header := range headerRow {
		name := strings.TrimSpace(header)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			candidate := fmt.Sprintf("%s.%d", name, n+1)
			for seen[candidate] > 0 {
				seen[name]++
				candidate = fmt.Sprintf("%s.%d", name, seen[name])
			}
			name = candidate
		}
		seen[name]++
		headers[i] = name
	}
	return headers
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

package ports

import (
	"context"

	"inspectdash/domain/inspection"
)

// SpreadsheetReader parses spreadsheet content into a raw table.
// name selects the format by extension; it is not opened.
type SpreadsheetReader interface {
	Read(ctx context.Context, name string, content []byte) (*inspection.RawTable, error)
}

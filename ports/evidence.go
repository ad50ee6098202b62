package ports

import (
	"context"

	"inspectdash/domain/core"
	"inspectdash/domain/inspection"
)

// EvidenceStore holds photo previews keyed by data file version and
// observation row key. A row key only names the same observation within one
// version of the file, so lookups for any other source find nothing.
// Implementations keep previews in memory only.
type EvidenceStore interface {
	Put(ctx context.Context, upload inspection.Upload) (*inspection.Preview, error)
	Get(ctx context.Context, source core.Hash, key core.RowKey) (*inspection.Preview, error)
	Confirm(ctx context.Context, source core.Hash, key core.RowKey) (*inspection.Preview, error)
	Snapshot(source core.Hash, keys []core.RowKey) map[core.RowKey]inspection.Preview
	Len() int
}

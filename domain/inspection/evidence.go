package inspection

import (
	"time"

	"inspectdash/domain/core"
)

// Preview is an uploaded photo held in memory against one observation.
// Image is the downscaled PNG; the original upload is discarded. Source is
// the hash of the data file version the row key refers to.
type Preview struct {
	ID          core.ID     `json:"id"`
	Key         core.RowKey `json:"key"`
	Source      core.Hash   `json:"source"`
	Filename    string      `json:"filename"`
	ContentType string      `json:"content_type"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Image       []byte      `json:"-"`
	UploadedAt  time.Time   `json:"uploaded_at"`
	Confirmed   bool        `json:"confirmed"`
	ConfirmedAt *time.Time  `json:"confirmed_at,omitempty"`
}

// Upload is a photo as received from the client
type Upload struct {
	Source   core.Hash
	Key      core.RowKey
	Filename string
	Content  []byte
}

package evidence

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"inspectdash/domain/core"
	"inspectdash/domain/inspection"
	"inspectdash/ports"
)

var _ ports.EvidenceStore = (*PreviewStore)(nil)

// Config bounds the store
type Config struct {
	MaxBytes    int64 // largest accepted upload
	MaxPreviews int   // oldest previews are evicted beyond this
	Width       int   // preview width in pixels
}

// DefaultConfig returns the limits used when none are configured
func DefaultConfig() Config {
	return Config{
		MaxBytes:    10 << 20,
		MaxPreviews: 200,
		Width:       PreviewWidth,
	}
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// PreviewStore keeps photo previews in memory, one per observation row of
// the current data file version. An upload for a new version drops every
// preview of the previous one. Nothing is written to disk; previews are gone
// on restart.
type PreviewStore struct {
	config Config
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	source   core.Hash
	previews map[core.RowKey]*inspection.Preview
	order    []core.RowKey // oldest first
}

// NewPreviewStore creates an empty store
func NewPreviewStore(config Config, logger *zap.Logger) *PreviewStore {
	defaults := DefaultConfig()
	if config.MaxBytes <= 0 {
		config.MaxBytes = defaults.MaxBytes
	}
	if config.MaxPreviews <= 0 {
		config.MaxPreviews = defaults.MaxPreviews
	}
	if config.Width <= 0 {
		config.Width = defaults.Width
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewStore{
		config:   config,
		logger:   logger.Named("evidence"),
		now:      time.Now,
		previews: make(map[core.RowKey]*inspection.Preview),
	}
}

// Put decodes and scales an upload and stores it under its row key,
// replacing any earlier preview for the same row.
func (s *PreviewStore) Put(ctx context.Context, upload inspection.Upload) (*inspection.Preview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if upload.Key == "" {
		return nil, core.NewValidationError("key", "row key is required")
	}
	if len(upload.Content) == 0 {
		return nil, core.NewValidationError("photo", "file is empty")
	}
	if int64(len(upload.Content)) > s.config.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", core.ErrImageTooLarge, len(upload.Content), s.config.MaxBytes)
	}
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q (use jpg, jpeg, png or webp)", core.ErrUnsupportedImage, ext)
	}

	thumb, err := MakeThumbnail(upload.Content, s.config.Width)
	if err != nil {
		return nil, err
	}

	preview := &inspection.Preview{
		ID:          core.NewID(),
		Key:         upload.Key,
		Source:      upload.Source,
		Filename:    filepath.Base(upload.Filename),
		ContentType: thumb.ContentType,
		Width:       thumb.Width,
		Height:      thumb.Height,
		Image:       thumb.PNG,
		UploadedAt:  s.now(),
	}

	s.mu.Lock()
	dropped := s.switchSource(upload.Source)
	if _, exists := s.previews[upload.Key]; exists {
		s.removeFromOrder(upload.Key)
	}
	s.previews[upload.Key] = preview
	s.order = append(s.order, upload.Key)
	evicted := s.evict()
	out := *preview
	s.mu.Unlock()

	s.logger.Info("evidence preview stored",
		zap.String("key", upload.Key.String()),
		zap.String("id", preview.ID.String()),
		zap.Int("bytes", len(upload.Content)),
		zap.Int("evicted", evicted),
		zap.Int("dropped", dropped))
	return &out, nil
}

// Get returns a copy of the preview for key in the given source
func (s *PreviewStore) Get(ctx context.Context, source core.Hash, key core.RowKey) (*inspection.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	preview, ok := s.lookup(source, key)
	if !ok {
		return nil, fmt.Errorf("%w for %s", core.ErrPreviewNotFound, key)
	}
	out := *preview
	return &out, nil
}

// Confirm marks the preview for key as acknowledged. Confirming twice keeps
// the first confirmation time.
func (s *PreviewStore) Confirm(ctx context.Context, source core.Hash, key core.RowKey) (*inspection.Preview, error) {
	s.mu.Lock()
	preview, ok := s.lookup(source, key)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w for %s", core.ErrPreviewNotFound, key)
	}
	if !preview.Confirmed {
		at := s.now()
		preview.Confirmed = true
		preview.ConfirmedAt = &at
	}
	out := *preview
	s.mu.Unlock()

	s.logger.Info("evidence preview confirmed", zap.String("key", key.String()))
	return &out, nil
}

// Snapshot returns copies of the previews of source for the given keys that exist
func (s *PreviewStore) Snapshot(source core.Hash, keys []core.RowKey) map[core.RowKey]inspection.Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[core.RowKey]inspection.Preview, len(keys))
	for _, key := range keys {
		if preview, ok := s.lookup(source, key); ok {
			out[key] = *preview
		}
	}
	return out
}

// Len returns the number of stored previews
func (s *PreviewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.previews)
}

// lookup finds key within source. Callers hold s.mu.
func (s *PreviewStore) lookup(source core.Hash, key core.RowKey) (*inspection.Preview, bool) {
	if !source.Equals(s.source) {
		return nil, false
	}
	preview, ok := s.previews[key]
	return preview, ok
}

// switchSource drops every preview when source differs from the current one
// and returns how many were dropped. Callers hold s.mu.
func (s *PreviewStore) switchSource(source core.Hash) int {
	if source.Equals(s.source) {
		return 0
	}
	dropped := len(s.previews)
	s.source = source
	s.previews = make(map[core.RowKey]*inspection.Preview)
	s.order = nil
	return dropped
}

// evict drops the oldest previews over the limit. Callers hold s.mu.
func (s *PreviewStore) evict() int {
	evicted := 0
	for len(s.order) > s.config.MaxPreviews {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.previews, oldest)
		evicted++
	}
	return evicted
}

func (s *PreviewStore) removeFromOrder(key core.RowKey) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

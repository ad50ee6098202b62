package dataset

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"inspectdash/domain/core"
	"inspectdash/domain/inspection"
	"inspectdash/internal/analysis"
	apperrors "inspectdash/internal/errors"
	"inspectdash/ports"
)

// Dataset is the normalized record set of one version of the data file
type Dataset struct {
	Records *inspection.RecordSet
	Report  analysis.NormalizeReport
}

// fileStamp is the cheap identity of the file used to skip re-reading it
type fileStamp struct {
	size    int64
	modTime time.Time
}

// Loader reads the data file and caches the normalized record set.
//
// A call to Load compares the file's size and modification time with the
// last successful load and returns the cached set when they match. Otherwise
// the file is read and hashed; identical content still returns the cached
// set. Concurrent reloads are collapsed into one. Failed loads are never
// cached.
type Loader struct {
	path       string
	reader     ports.SpreadsheetReader
	normalizer *analysis.Normalizer
	columns    inspection.Columns
	logger     *zap.Logger
	now        func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	current *Dataset
	stamp   fileStamp
	fresh   bool // stamp describes current
}

// NewLoader creates a loader for path
func NewLoader(path string, reader ports.SpreadsheetReader, normalizer *analysis.Normalizer, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		path:       path,
		reader:     reader,
		normalizer: normalizer,
		columns:    normalizer.Columns(),
		logger:     logger.Named("loader"),
		now:        time.Now,
	}
}

// Path returns the data file path
func (l *Loader) Path() string {
	return l.path
}

// Load returns the record set for the current content of the data file.
// Every failure is returned as a LoadError.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return nil, apperrors.LoadError(fmt.Sprintf("cannot open data file %s", l.path), err)
	}
	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}

	l.mu.RLock()
	if l.fresh && l.current != nil && l.stamp == stamp {
		ds := l.current
		l.mu.RUnlock()
		return ds, nil
	}
	l.mu.RUnlock()

	// joined callers share the reload; one of them leaving must not fail it
	loadCtx := context.WithoutCancel(ctx)
	v, err, shared := l.group.Do(l.path, func() (interface{}, error) {
		return l.reload(loadCtx)
	})
	if err != nil {
		l.markStale()
		return nil, err
	}
	if shared {
		l.logger.Debug("joined in-flight load", zap.String("path", l.path))
	}
	return v.(*Dataset), nil
}

// Invalidate drops the cache so the next Load re-reads and re-parses the file
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.current = nil
	l.fresh = false
	l.mu.Unlock()
	l.logger.Info("cache invalidated", zap.String("path", l.path))
}

// markStale makes the next Load re-read the file. The cached set is kept so
// unchanged content is not parsed again.
func (l *Loader) markStale() {
	l.mu.Lock()
	l.fresh = false
	l.mu.Unlock()
}

func (l *Loader) reload(ctx context.Context) (*Dataset, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return nil, apperrors.LoadError(fmt.Sprintf("cannot open data file %s", l.path), err)
	}
	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}

	content, err := os.ReadFile(l.path)
	if err != nil {
		return nil, apperrors.LoadError(fmt.Sprintf("cannot read data file %s", l.path), err)
	}
	hash := core.NewHash(content)

	l.mu.Lock()
	if l.current != nil && l.current.Records.Source.Hash.Equals(hash) {
		ds := l.current
		l.stamp = stamp
		l.fresh = true
		l.mu.Unlock()
		l.logger.Debug("data file touched but content unchanged",
			zap.String("path", l.path),
			zap.String("hash", hash.Short()))
		return ds, nil
	}
	l.mu.Unlock()

	start := time.Now()
	raw, err := l.reader.Read(ctx, l.path, content)
	if err != nil {
		l.logger.Error("failed to parse data file", zap.String("path", l.path), zap.Error(err))
		return nil, apperrors.LoadError(fmt.Sprintf("cannot parse data file %s", l.path), err)
	}
	if err := l.columns.CheckRequired(raw.Headers); err != nil {
		l.logger.Error("data file is missing a required column", zap.String("path", l.path), zap.Error(err))
		return nil, apperrors.LoadError(fmt.Sprintf("data file %s, sheet %s", l.path, raw.Sheet), err)
	}

	source := inspection.Source{
		Path:     l.path,
		Sheet:    raw.Sheet,
		Hash:     hash,
		LoadedAt: l.now(),
	}
	records, report := l.normalizer.Normalize(raw, source)
	ds := &Dataset{Records: records, Report: report}

	l.mu.Lock()
	l.current = ds
	l.stamp = stamp
	l.fresh = true
	l.mu.Unlock()

	l.logger.Info("data file loaded",
		zap.String("path", l.path),
		zap.String("sheet", raw.Sheet),
		zap.Int("rows", records.Len()),
		zap.String("hash", hash.Short()),
		zap.Duration("elapsed", time.Since(start)))
	return ds, nil
}

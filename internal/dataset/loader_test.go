package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"inspectdash/adapters/excel"
	"inspectdash/domain/core"
	"inspectdash/domain/inspection"
	"inspectdash/internal/analysis"
	apperrors "inspectdash/internal/errors"
)

// countingReader records how many times the file content was parsed
type countingReader struct {
	inner *excel.DataReader
	calls atomic.Int32
}

func (r *countingReader) Read(ctx context.Context, name string, content []byte) (*inspection.RawTable, error) {
	r.calls.Add(1)
	return r.inner.Read(ctx, name, content)
}

func newTestLoader(t *testing.T, content string) (*Loader, *countingReader, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inspecciones.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reader := &countingReader{inner: excel.NewDataReader(excel.DefaultExcelConfig(), nil)}
	normalizer := analysis.NewNormalizer(inspection.DefaultColumns(), nil)
	return NewLoader(path, reader, normalizer, nil), reader, path
}

// rewrite replaces the file content and restores the old modification time,
// so only a content hash can tell the versions apart.
func rewrite(t *testing.T, path, content string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))
}

const januaryCSV = "MES,SECCIÓN,RESPONSABLE DE ÁREA,Estado\nEnero,Taller,Ana,Pendiente\n"
const marchCSV = "MES,SECCIÓN,RESPONSABLE DE ÁREA,Estado\nMarzo,Taller,Ana,Pendiente\n"

func TestLoadCachesUnchangedFile(t *testing.T) {
	loader, reader, _ := newTestLoader(t, januaryCSV)
	ctx := context.Background()

	first, err := loader.Load(ctx)
	require.NoError(t, err)
	second, err := loader.Load(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), reader.calls.Load())
	assert.Equal(t, "inspecciones", first.Records.Source.Sheet)
	assert.Equal(t, core.NewHash([]byte(januaryCSV)), first.Records.Source.Hash)
}

func TestLoadTouchedFileWithSameContentIsNotParsed(t *testing.T) {
	loader, reader, path := newTestLoader(t, januaryCSV)
	ctx := context.Background()

	first, err := loader.Load(ctx)
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	second, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), reader.calls.Load())
}

func TestLoadPicksUpNewContent(t *testing.T) {
	loader, reader, path := newTestLoader(t, januaryCSV)
	ctx := context.Background()

	first, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Enero", first.Records.Observations[0].Month)

	require.NoError(t, os.WriteFile(path, []byte(marchCSV+"Abril,Patio,Luis,Completado\n"), 0o644))

	second, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Records.Len())
	assert.Equal(t, "Marzo", second.Records.Observations[0].Month)
	assert.Equal(t, int32(2), reader.calls.Load())
	assert.Equal(t, "Enero", first.Records.Observations[0].Month, "earlier sets are not mutated")
}

func TestLoadIgnoresCallerCancellation(t *testing.T) {
	loader, reader, _ := newTestLoader(t, januaryCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds, err := loader.Load(ctx)
	require.NoError(t, err, "a gone caller must not fail the load others may share")
	assert.Equal(t, 1, ds.Records.Len())
	assert.Equal(t, int32(1), reader.calls.Load())

	again, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, ds, again, "the result is cached like any other load")
}

func TestInvalidateForcesReparse(t *testing.T) {
	loader, reader, _ := newTestLoader(t, januaryCSV)
	ctx := context.Background()

	first, err := loader.Load(ctx)
	require.NoError(t, err)
	loader.Invalidate()

	second, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), reader.calls.Load())
}

func TestLoadCollapsesConcurrentCalls(t *testing.T) {
	loader, reader, _ := newTestLoader(t, januaryCSV)

	var wg sync.WaitGroup
	results := make([]*Dataset, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := loader.Load(context.Background())
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), reader.calls.Load())
	for _, ds := range results {
		assert.Same(t, results[0], ds)
	}
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		reader := excel.NewDataReader(excel.DefaultExcelConfig(), nil)
		normalizer := analysis.NewNormalizer(inspection.DefaultColumns(), nil)
		loader := NewLoader(filepath.Join(t.TempDir(), "nope.xlsx"), reader, normalizer, nil)

		_, err := loader.Load(ctx)
		require.Error(t, err)
		assert.True(t, apperrors.IsLoadError(err))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing required column", func(t *testing.T) {
		loader, _, _ := newTestLoader(t, "MES,Estado\nEnero,Pendiente\n")

		_, err := loader.Load(ctx)
		require.Error(t, err)
		assert.True(t, apperrors.IsLoadError(err))
		assert.ErrorIs(t, err, core.ErrMissingColumn)
		assert.Contains(t, err.Error(), "SECCIÓN")
	})

	t.Run("failures are not cached", func(t *testing.T) {
		loader, reader, path := newTestLoader(t, januaryCSV)

		_, err := loader.Load(ctx)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("Estado\nPendiente\n"), 0o644))
		_, err = loader.Load(ctx)
		assert.True(t, apperrors.IsLoadError(err))
		_, err = loader.Load(ctx)
		assert.True(t, apperrors.IsLoadError(err), "a broken file keeps failing")

		require.NoError(t, os.WriteFile(path, []byte(marchCSV), 0o644))
		ds, err := loader.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Marzo", ds.Records.Observations[0].Month)
		assert.Equal(t, int32(4), reader.calls.Load())
	})
}

func TestWatchDropsStatMemo(t *testing.T) {
	defer goleak.VerifyNone(t)

	loader, _, path := newTestLoader(t, januaryCSV)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := loader.Load(ctx)
	require.NoError(t, err)

	done, err := loader.Watch(ctx)
	require.NoError(t, err)

	// same size, same modification time: only the watcher can notice
	rewrite(t, path, marchCSV)

	assert.Eventually(t, func() bool {
		ds, err := loader.Load(context.Background())
		return err == nil && ds.Records.Observations[0].Month == "Marzo"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	reader := excel.NewDataReader(excel.DefaultExcelConfig(), nil)
	normalizer := analysis.NewNormalizer(inspection.DefaultColumns(), nil)
	loader := NewLoader(filepath.Join(t.TempDir(), "missing", "data.xlsx"), reader, normalizer, nil)

	_, err := loader.Watch(context.Background())
	assert.Error(t, err)
}

package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"inspectdash/adapters/evidence"
	"inspectdash/adapters/excel"
	"inspectdash/app"
	"inspectdash/internal/analysis"
	"inspectdash/internal/config"
	"inspectdash/internal/dataset"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Data pipeline
	Reader     *excel.DataReader
	Normalizer *analysis.Normalizer
	Loader     *dataset.Loader

	// Evidence previews, in memory only
	Evidence *evidence.PreviewStore

	// Application services
	Dashboard *app.DashboardService

	watchDone <-chan struct{}
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	c.initPipeline()
	c.initServices()

	logger.Debug("container initialized",
		zap.String("excel_file", cfg.Data.ExcelFile),
		zap.String("sheet", cfg.Data.SheetName))
	return c, nil
}

// initPipeline builds the spreadsheet reader, normalizer and cached loader
func (c *Container) initPipeline() {
	readerConfig := excel.DefaultExcelConfig()
	if c.Config.Data.SheetName != "" {
		readerConfig.PreferredSheet = c.Config.Data.SheetName
	}

	c.Reader = excel.NewDataReader(readerConfig, c.Logger)
	c.Normalizer = analysis.NewNormalizer(c.Config.Data.Columns, c.Logger)
	c.Loader = dataset.NewLoader(c.Config.Data.ExcelFile, c.Reader, c.Normalizer, c.Logger)
}

// initServices builds the evidence store and the dashboard service
func (c *Container) initServices() {
	c.Evidence = evidence.NewPreviewStore(evidence.Config{
		MaxBytes:    c.Config.Evidence.MaxBytes,
		MaxPreviews: c.Config.Evidence.MaxPreviews,
		Width:       evidence.PreviewWidth,
	}, c.Logger)
	c.Dashboard = app.NewDashboardService(c.Loader, c.Evidence, c.Logger)
}

// StartWatcher invalidates the cached record set whenever the data file
// changes. It is a no-op when watching is disabled.
func (c *Container) StartWatcher(ctx context.Context) error {
	if !c.Config.Data.Watch {
		return nil
	}
	done, err := c.Loader.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch data file: %w", err)
	}
	c.watchDone = done
	return nil
}

// Shutdown waits for background components to stop. The watcher stops when
// the context passed to StartWatcher is cancelled.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.watchDone == nil {
		return nil
	}
	select {
	case <-c.watchDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

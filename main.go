package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"inspectdash/internal"
	"inspectdash/internal/config"
	"inspectdash/internal/container"
	"inspectdash/internal/errors"
	"inspectdash/ui"
	"inspectdash/ui/services"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(appConfig, logger); err != nil {
		logger.Fatal("dashboard stopped", zap.Error(err), zap.String("code", errors.GetCode(err)))
	}
}

func run(appConfig *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(appConfig.Server.GinMode)

	c, err := container.New(appConfig, logger)
	if err != nil {
		return errors.Wrap(err, "failed to initialize container")
	}

	if err := c.StartWatcher(ctx); err != nil {
		// The dashboard still works; it just re-checks the file on every request
		logger.Warn("data file watcher unavailable", zap.Error(err))
	}

	// Report a broken file at startup; the page shows the same error until it is fixed
	if _, err := c.Loader.Load(ctx); err != nil {
		logger.Error("initial data load failed", zap.Error(err))
	}

	notice, err := services.LoadNotice(appConfig.UI.NoticeFile)
	if err != nil {
		return errors.Wrap(err, "failed to load notice")
	}

	server, err := ui.NewServer(c.Dashboard, ui.Assets, ui.Options{
		Title:           appConfig.UI.Title,
		Notice:          notice,
		MaxUploadBytes:  appConfig.Evidence.MaxBytes,
		ShutdownTimeout: appConfig.Server.ShutdownTimeout,
	}, logger)
	if err != nil {
		return errors.Wrap(err, "failed to create UI server")
	}

	logger.Info("dashboard configured",
		zap.String("excel_file", appConfig.Data.ExcelFile),
		zap.String("sheet", appConfig.Data.SheetName),
		zap.Bool("watch", appConfig.Data.Watch),
		zap.String("port", appConfig.Server.Port))

	if err := server.Start(ctx, ":"+appConfig.Server.Port); err != nil {
		return errors.Wrapf(err, "server failed on port %s", appConfig.Server.Port)
	}

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	return c.Shutdown(shutdownCtx)
}

package ui

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inspectdash/app"
	"inspectdash/internal/analysis"
	"inspectdash/ui/services"
)

// Options configures the presentation layer
type Options struct {
	Title           string
	Notice          template.HTML
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// Server represents the web server for the inspection dashboard
type Server struct {
	router    *gin.Engine
	service   *app.DashboardService
	templates *template.Template
	render    *services.RenderService
	assets    fs.FS
	options   Options
	logger    *zap.Logger
}

// NewServer creates the server, parses templates from assets and registers
// routes. assets must contain templates/*.html and static/.
func NewServer(service *app.DashboardService, assets fs.FS, options Options, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = 10 << 20
	}
	if options.ShutdownTimeout <= 0 {
		options.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		router:  gin.New(),
		service: service,
		assets:  assets,
		options: options,
		logger:  logger.Named("ui"),
	}

	if err := s.parseTemplates(); err != nil {
		return nil, err
	}
	s.render = services.NewRenderService(s.templates, s.logger)

	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) parseTemplates() error {
	funcMap := template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"barWidth": func(count, max int) float64 {
			if max <= 0 {
				return 0
			}
			return float64(count) / float64(max) * 100
		},
		"query": func(pairs ...string) template.URL {
			values := url.Values{}
			for i := 0; i+1 < len(pairs); i += 2 {
				if pairs[i+1] != "" {
					values.Set(pairs[i], pairs[i+1])
				}
			}
			if len(values) == 0 {
				return ""
			}
			return template.URL("?" + values.Encode())
		},
		"filterData": func(action string, sel analysis.Selection, options analysis.Options, owner string) map[string]interface{} {
			return map[string]interface{}{
				"Action":    action,
				"Selection": sel,
				"Options":   options,
				"Owner":     owner,
			}
		},
	}

	templatesFS, err := fs.Sub(s.assets, "templates")
	if err != nil {
		return fmt.Errorf("failed to create templates filesystem: %w", err)
	}
	files, err := fs.Glob(templatesFS, "*.html")
	if err != nil {
		return fmt.Errorf("failed to glob templates: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no templates found")
	}

	s.templates = template.New("").Funcs(funcMap)
	for _, file := range files {
		content, err := fs.ReadFile(templatesFS, file)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", file, err)
		}
		if _, err := s.templates.New(file).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", file, err)
		}
	}
	s.logger.Debug("templates parsed", zap.Strings("files", files))
	return nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/owner", s.handleOwner)

	s.router.POST("/evidence/:key", s.handleEvidenceUpload)
	s.router.POST("/evidence/:key/confirm", s.handleEvidenceConfirm)
	s.router.GET("/evidence/:key/preview", s.handleEvidencePreview)

	s.router.GET("/charts/status.svg", s.handleStatusChart)
	s.router.GET("/export.xlsx", s.handleExport)

	api := s.router.Group("/api")
	api.GET("/summary", s.handleAPISummary)
	api.GET("/options", s.handleAPIOptions)
	api.GET("/owners/:owner", s.handleAPIOwner)
	api.POST("/reload", s.handleAPIReload)

	s.router.GET("/healthz", s.handleHealth)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting dashboard", zap.String("addr", "http://"+addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down dashboard")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

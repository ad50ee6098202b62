package ui

import (
	"fmt"
	"io/fs"
	"net/http"

	"inspectdash/ui/middleware"
)

// setupMiddleware configures Gin middleware and the embedded static files
func (s *Server) setupMiddleware() error {
	// The logger wraps recovery so recovered panics are logged as 500s
	s.router.Use(middleware.RequestLogger(s.logger.Named("http")))
	s.router.Use(middleware.Recovery(s.logger))
	s.router.MaxMultipartMemory = s.options.MaxUploadBytes

	staticFS, err := fs.Sub(s.assets, "static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}

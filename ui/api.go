package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inspectdash/internal/analysis"
	apperrors "inspectdash/internal/errors"
)

func (s *Server) handleAPISummary(c *gin.Context) {
	view, err := s.service.Dashboard(c.Request.Context(), selectionFromQuery(c))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleAPIOptions(c *gin.Context) {
	options, err := s.service.Options(c.Request.Context())
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

func (s *Server) handleAPIOwner(c *gin.Context) {
	owner := c.Param("owner")
	if !analysis.IsOwnerSelected(owner) {
		apiError(c, apperrors.InvalidInput("owner is required"))
		return
	}
	view, err := s.service.Owner(c.Request.Context(), selectionFromQuery(c), owner)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// handleAPIReload drops the cached record set and reads the data file again
func (s *Server) handleAPIReload(c *gin.Context) {
	source, err := s.service.Reload(c.Request.Context())
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "reloaded",
		"sheet":     source.Sheet,
		"hash":      source.Hash,
		"loaded_at": source.LoadedAt,
	})
}

// handleHealth reports whether the data file currently loads
func (s *Server) handleHealth(c *gin.Context) {
	view, err := s.service.Dashboard(c.Request.Context(), analysis.Selection{})
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"error":  err.Error(),
			"code":   apperrors.GetCode(err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"sheet":     view.Source.Sheet,
		"hash":      view.Source.Hash,
		"rows":      view.Summary.Total,
		"loaded_at": view.Source.LoadedAt,
	})
}

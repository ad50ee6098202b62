package ui

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inspectdash/app"
	"inspectdash/internal/analysis"
	apperrors "inspectdash/internal/errors"
)

// pageData is the root value every page template receives
type pageData struct {
	Title     string
	Notice    template.HTML
	Dashboard *app.DashboardView
	Owner     *app.OwnerView
	OwnerName string
	Flash     string
	Error     string
}

func (s *Server) newPage() pageData {
	return pageData{Title: s.options.Title, Notice: s.options.Notice}
}

// renderTemplate renders into a buffer first so template errors become a
// clean 500 instead of a truncated page
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	body, err := s.render.Render(templateName, data)
	if err != nil {
		c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("template error"))
		return
	}
	c.Data(status, "text/html; charset=utf-8", body)
}

// renderError shows the single error page. Load failures stop the page from
// rendering anything else.
func (s *Server) renderError(c *gin.Context, err error) {
	_ = c.Error(err)
	page := s.newPage()
	page.Error = err.Error()
	s.renderTemplate(c, statusFor(err), "error.html", page)
}

// apiError writes {"error", "code"} with a status derived from the code
func apiError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{
		"error": err.Error(),
		"code":  apperrors.GetCode(err),
	})
}

func statusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// selectionFromQuery reads month and section; missing values mean "all"
func selectionFromQuery(c *gin.Context) analysis.Selection {
	var sel analysis.Selection
	if err := c.ShouldBindQuery(&sel); err != nil {
		return analysis.Selection{}
	}
	return sel
}

// portalValue reads an owner portal field for an evidence request. The
// forms carry the field in the action URL, which survives a body that could
// not be parsed; the posted form is the fallback for other clients.
func portalValue(c *gin.Context, field string) string {
	if v := c.Query(field); v != "" {
		return v
	}
	return c.PostForm(field)
}

// portalSelection reads month and section for an evidence request
func portalSelection(c *gin.Context) analysis.Selection {
	return analysis.Selection{
		Month:   portalValue(c, "month"),
		Section: portalValue(c, "section"),
	}
}

// wantsJSON reports whether the client asked for a JSON response
func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func (s *Server) logRequestError(c *gin.Context, msg string, err error) {
	s.logger.Warn(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
}

package ui

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"inspectdash/adapters/excel"
	"inspectdash/domain/core"
	apperrors "inspectdash/internal/errors"
)

var flashMessages = map[string]string{
	"uploaded":  "Vista previa cargada. Revisa la foto y confirma el registro.",
	"confirmed": "Registro confirmado. La foto no se ha guardado: solo existe como vista previa en memoria.",
}

// handleIndex renders the dashboard for the selected month and section
func (s *Server) handleIndex(c *gin.Context) {
	view, err := s.service.Dashboard(c.Request.Context(), selectionFromQuery(c))
	if err != nil {
		s.renderError(c, err)
		return
	}

	page := s.newPage()
	page.Dashboard = view
	s.renderTemplate(c, http.StatusOK, "dashboard.html", page)
}

// handleOwner renders the owner portal
func (s *Server) handleOwner(c *gin.Context) {
	owner := c.Query("owner")
	view, err := s.service.Owner(c.Request.Context(), selectionFromQuery(c), owner)
	if err != nil {
		s.renderError(c, err)
		return
	}

	page := s.newPage()
	page.Owner = view
	page.OwnerName = view.Detail.Owner
	page.Flash = flashMessages[c.Query("flash")]
	s.renderTemplate(c, http.StatusOK, "owner.html", page)
}

// handleEvidenceUpload accepts a photo for one pending observation and keeps
// a scaled preview in memory
func (s *Server) handleEvidenceUpload(c *gin.Context) {
	key, err := core.ParseRowKey(c.Param("key"))
	if err != nil {
		s.evidenceFailure(c, apperrors.WithCode(apperrors.CodeInvalidInput, err))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.options.MaxUploadBytes+(1<<20))
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		s.evidenceFailure(c, &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: "a photo is required", Cause: err})
		return
	}
	if fileHeader.Size > s.options.MaxUploadBytes {
		s.evidenceFailure(c, &apperrors.AppError{
			Code:    apperrors.CodeInvalidInput,
			Message: "photo rejected",
			Cause:   fmt.Errorf("%w: %d bytes", core.ErrImageTooLarge, fileHeader.Size),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.evidenceFailure(c, apperrors.Wrap(err, "cannot open upload"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, s.options.MaxUploadBytes+1))
	if err != nil {
		s.evidenceFailure(c, apperrors.Wrap(err, "cannot read upload"))
		return
	}

	preview, err := s.service.UploadEvidence(c.Request.Context(), key, fileHeader.Filename, content)
	if err != nil {
		s.evidenceFailure(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusCreated, preview)
		return
	}
	c.Redirect(http.StatusSeeOther, ownerURL(c, "uploaded", key))
}

// handleEvidenceConfirm acknowledges an uploaded preview. Nothing is stored.
func (s *Server) handleEvidenceConfirm(c *gin.Context) {
	key, err := core.ParseRowKey(c.Param("key"))
	if err != nil {
		s.evidenceFailure(c, apperrors.WithCode(apperrors.CodeInvalidInput, err))
		return
	}

	preview, err := s.service.ConfirmEvidence(c.Request.Context(), key)
	if err != nil {
		s.evidenceFailure(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, preview)
		return
	}
	c.Redirect(http.StatusSeeOther, ownerURL(c, "confirmed", key))
}

// handleEvidencePreview serves the preview image of one observation
func (s *Server) handleEvidencePreview(c *gin.Context) {
	key, err := core.ParseRowKey(c.Param("key"))
	if err != nil {
		apiError(c, apperrors.WithCode(apperrors.CodeInvalidInput, err))
		return
	}
	preview, err := s.service.Preview(c.Request.Context(), key)
	if err != nil {
		apiError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", preview.Image)
}

// evidenceFailure reports an upload or confirm error: as JSON for API
// clients, otherwise inline on the owner portal the form came from
func (s *Server) evidenceFailure(c *gin.Context, err error) {
	s.logRequestError(c, "evidence request rejected", err)
	if wantsJSON(c) {
		apiError(c, err)
		return
	}

	view, loadErr := s.service.Owner(c.Request.Context(), portalSelection(c), portalValue(c, "owner"))
	if loadErr != nil {
		s.renderError(c, loadErr)
		return
	}
	_ = c.Error(err)
	page := s.newPage()
	page.Owner = view
	page.OwnerName = view.Detail.Owner
	page.Error = fmt.Sprintf("No se pudo procesar la foto: %v", err)
	s.renderTemplate(c, statusFor(err), "owner.html", page)
}

// ownerURL rebuilds the owner portal URL the evidence form came from
func ownerURL(c *gin.Context, flash string, key core.RowKey) string {
	values := url.Values{}
	for _, field := range []string{"owner", "month", "section"} {
		if v := portalValue(c, field); v != "" {
			values.Set(field, v)
		}
	}
	values.Set("flash", flash)
	return "/owner?" + values.Encode() + "#" + key.String()
}

// handleStatusChart renders the status donut for the current selection
func (s *Server) handleStatusChart(c *gin.Context) {
	view, err := s.service.Dashboard(c.Request.Context(), selectionFromQuery(c))
	if err != nil {
		apiError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := renderStatusDonut(&buf, view.Summary.StatusBreakdown); err != nil {
		apiError(c, apperrors.Wrap(err, "failed to render chart"))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// handleExport downloads the filtered table as a workbook
func (s *Server) handleExport(c *gin.Context) {
	view, err := s.service.Dashboard(c.Request.Context(), selectionFromQuery(c))
	if err != nil {
		s.renderError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteWorkbook(&buf, excel.DefaultSheetName, view.Records.Headers, view.Records.Rows); err != nil {
		s.renderError(c, apperrors.Wrap(err, "failed to build export"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="inspecciones.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

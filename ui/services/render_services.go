package services

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"go.uber.org/zap"
)

type RenderService struct {
	templates *template.Template
	logger    *zap.Logger
}

func NewRenderService(templates *template.Template, logger *zap.Logger) *RenderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderService{
		templates: templates,
		logger:    logger,
	}
}

// Render executes a named template into memory so a failing template never
// leaves a half-written response behind.
func (s *RenderService) Render(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("failed to render template", zap.String("template", name), zap.Error(err))
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// RenderMarkdown converts markdown to HTML. Raw HTML in the source is dropped.
func RenderMarkdown(source []byte) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.SkipHTML | html.HrefTargetBlank,
	})
	return template.HTML(markdown.ToHTML(source, p, renderer))
}

// LoadNotice reads and renders the markdown notice shown above the dashboard.
// An empty path means no notice.
func LoadNotice(path string) (template.HTML, error) {
	if path == "" {
		return "", nil
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read notice file %s: %w", path, err)
	}
	return RenderMarkdown(source), nil
}

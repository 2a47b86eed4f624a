package report

import (
	"fmt"
	"sort"
	"strings"

	"pds-status/internal/config"
	"pds-status/internal/report/excel"
	"pds-status/internal/report/html"
)

// Registry manages renderers for different formats.
// It provides a centralized way to access renderers by format name.
type Registry struct {
	renderers map[string]Renderer
}

// NewRegistry creates a registry with HTML and Excel renderers configured
// from the report section. A nil config uses renderer defaults.
func NewRegistry(cfg *config.ReportConfig) *Registry {
	opts := html.Options{ShowAccounts: true}
	if cfg != nil {
		opts = html.Options{
			Timezone:     cfg.Location(),
			Title:        cfg.Title,
			TemplatePath: cfg.HTMLTemplate,
			ShowAccounts: cfg.ShowAccounts,
		}
	}

	htmlRenderer := html.NewRenderer(opts)
	excelRenderer := excel.NewRenderer(opts.Timezone, opts.Title)

	r := &Registry{
		renderers: make(map[string]Renderer),
	}

	// Register renderers using their Format() return values
	r.renderers[htmlRenderer.Format()] = htmlRenderer
	r.renderers[excelRenderer.Format()] = excelRenderer

	return r
}

// Get returns a renderer for the specified format.
// Format names are case-insensitive (e.g., "Excel", "EXCEL", "excel" all work).
// Returns an error if the format is not supported.
func (r *Registry) Get(format string) (Renderer, error) {
	normalizedFormat := strings.ToLower(strings.TrimSpace(format))

	renderer, ok := r.renderers[normalizedFormat]
	if !ok {
		return nil, fmt.Errorf("unsupported report format %q, supported formats: %s",
			format, strings.Join(r.GetAll(), ", "))
	}

	return renderer, nil
}

// GetAll returns all supported format names in sorted order.
func (r *Registry) GetAll() []string {
	formats := make([]string, 0, len(r.renderers))
	for format := range r.renderers {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// Package html renders a status snapshot as a self-contained HTML page.
package html

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"pds-status/internal/model"
	"pds-status/internal/report/format"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// ContentType of the rendered page.
const ContentType = "text/html; charset=utf-8"

const timeLayout = "2006-01-02 15:04:05 MST"

// Renderer implements report.Renderer for HTML format.
type Renderer struct {
	timezone     *time.Location
	title        string
	templatePath string // User-defined template path (optional)
	showAccounts bool
}

// Options configures a Renderer.
type Options struct {
	Timezone     *time.Location
	Title        string
	TemplatePath string
	ShowAccounts bool
}

// TemplateData holds all data passed to the HTML template.
type TemplateData struct {
	Title        string
	GeneratedAt  string
	Hostname     string
	Uptime       string
	HostRows     []*RowData
	ServiceRows  []*RowData
	DataDir      string
	Truncated    bool
	TruncatedBy  string
	ShowAccounts bool
	Accounts     []*AccountData
	Warnings     []string
	Version      string
}

// RowData is one label/value line of a metrics table.
type RowData struct {
	Label       string
	Value       string
	StatusClass string
}

// AccountData represents one account formatted for template rendering.
type AccountData struct {
	DID     string
	Records string
	Blobs   string
	Storage string
	Error   string
}

// NewRenderer creates a new HTML renderer. A nil timezone means UTC; an empty
// template path selects the embedded default template.
func NewRenderer(opts Options) *Renderer {
	tz := opts.Timezone
	if tz == nil {
		tz = time.UTC
	}
	title := opts.Title
	if title == "" {
		title = "Server Status"
	}
	return &Renderer{
		timezone:     tz,
		title:        title,
		templatePath: opts.TemplatePath,
		showAccounts: opts.ShowAccounts,
	}
}

// Format returns the format identifier for this renderer.
func (r *Renderer) Format() string {
	return "html"
}

// Render executes the template against snap. The generation time shown is the
// snapshot timestamp, so equal snapshots render to identical bytes.
func (r *Renderer) Render(snap *model.Snapshot) (*model.RenderedReport, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}

	tmpl, err := r.loadTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.prepareTemplateData(snap)); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	return &model.RenderedReport{
		Format:      r.Format(),
		ContentType: ContentType,
		Body:        buf.Bytes(),
	}, nil
}

// loadTemplate loads the HTML template.
// It first tries to load a user-defined template, then falls back to the embedded default.
func (r *Renderer) loadTemplate() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatSize": format.Size,
	}

	if r.templatePath != "" {
		if _, err := os.Stat(r.templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(r.templatePath)).Funcs(funcMap).ParseFiles(r.templatePath)
			if err != nil {
				return nil, fmt.Errorf("failed to parse user template: %w", err)
			}
			return tmpl, nil
		}
	}

	tmpl, err := template.New("default.html").Funcs(funcMap).ParseFS(embeddedTemplates, "templates/default.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

// prepareTemplateData converts a Snapshot to TemplateData.
func (r *Renderer) prepareTemplateData(snap *model.Snapshot) *TemplateData {
	host := snap.Host
	if host == nil {
		host = &model.HostMetrics{}
	}
	svc := snap.Service
	if svc == nil {
		svc = &model.ServiceMetrics{}
	}

	data := &TemplateData{
		Title:        r.title,
		GeneratedAt:  snap.Timestamp.In(r.timezone).Format(timeLayout),
		Hostname:     format.Text(host.Hostname),
		Uptime:       format.Uptime(host.Uptime),
		DataDir:      format.Text(svc.DataDir),
		Truncated:    svc.Truncated,
		TruncatedBy:  svc.TruncationReason,
		ShowAccounts: r.showAccounts,
		Warnings:     snap.Warnings,
		Version:      snap.Version,
	}

	data.HostRows = []*RowData{
		{Label: "CPU usage", Value: format.Percent(host.CPUPercent), StatusClass: statusClass(snap.Status(model.MetricCPU))},
		{Label: "Load average (1/5/15)", Value: format.Load(host.Load)},
		{Label: "Memory", Value: format.Usage(host.Memory), StatusClass: statusClass(snap.Status(model.MetricMemory))},
		{Label: "Disk " + format.Text(host.DiskPath), Value: format.Usage(host.Disk), StatusClass: statusClass(snap.Status(model.MetricDisk))},
	}
	if host.CPUCores > 0 {
		data.HostRows = append(data.HostRows, &RowData{Label: "CPU cores", Value: format.Count(int64(host.CPUCores))})
	}
	if host.Platform != "" {
		data.HostRows = append(data.HostRows, &RowData{Label: "Operating system", Value: host.Platform})
	}
	if host.Network != nil {
		data.HostRows = append(data.HostRows,
			&RowData{Label: "Network sent (" + host.Network.Interface + ")", Value: format.Size(host.Network.BytesSent)},
			&RowData{Label: "Network received (" + host.Network.Interface + ")", Value: format.Size(host.Network.BytesRecv)},
		)
	}

	data.ServiceRows = []*RowData{
		{Label: "Accounts", Value: format.AccountCount(svc)},
		{Label: "Storage used", Value: format.StorageUsed(svc)},
	}
	if svc.Hostname != "" {
		data.ServiceRows = append(data.ServiceRows, &RowData{Label: "PDS hostname", Value: svc.Hostname})
	}
	if svc.Version != "" {
		data.ServiceRows = append(data.ServiceRows, &RowData{Label: "PDS version", Value: svc.Version})
	}

	if r.showAccounts {
		data.Accounts = make([]*AccountData, 0, len(svc.Accounts))
		for _, acct := range svc.Accounts {
			if acct != nil {
				data.Accounts = append(data.Accounts, convertAccount(acct))
			}
		}
	}

	return data
}

func convertAccount(acct *model.AccountUsage) *AccountData {
	if acct.Error != "" {
		return &AccountData{
			DID:     acct.DID,
			Records: "error",
			Blobs:   "error",
			Storage: format.Size(acct.StorageBytes),
			Error:   acct.Error,
		}
	}
	return &AccountData{
		DID:     acct.DID,
		Records: format.Count(acct.Records),
		Blobs:   format.Count(acct.Blobs),
		Storage: format.Size(acct.StorageBytes),
	}
}

// statusClass returns the CSS class for a metric status.
func statusClass(status model.MetricStatus) string {
	switch status {
	case model.MetricStatusCritical:
		return "status-critical"
	case model.MetricStatusWarning:
		return "status-warning"
	case model.MetricStatusNormal:
		return "status-normal"
	default:
		return ""
	}
}

// Package excel renders a status snapshot as an .xlsx workbook with a summary
// sheet and a per-account sheet.
package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"pds-status/internal/model"
	"pds-status/internal/report/format"
)

const (
	sheetSummary  = "Summary"
	sheetAccounts = "Accounts"

	// Default sheet to remove
	defaultSheet = "Sheet1"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// Colors for conditional formatting (RGB without #)
	colorWarningBg  = "FFEB9C"
	colorWarningFg  = "9C6500"
	colorCriticalBg = "FFC7CE"
	colorCriticalFg = "9C0006"
	colorHeaderBg   = "4472C4"
	colorHeaderFg   = "FFFFFF"
	colorNormalBg   = "C6EFCE"
	colorNormalFg   = "006100"

	timeLayout = "2006-01-02 15:04:05 MST"
)

// Renderer implements report.Renderer for Excel format.
type Renderer struct {
	timezone *time.Location
	title    string
}

// NewRenderer creates a new Excel renderer. A nil timezone means UTC.
func NewRenderer(timezone *time.Location, title string) *Renderer {
	if timezone == nil {
		timezone = time.UTC
	}
	if title == "" {
		title = "Server Status"
	}
	return &Renderer{
		timezone: timezone,
		title:    title,
	}
}

// Format returns the format identifier for this renderer.
func (r *Renderer) Format() string {
	return "excel"
}

// styles holds the cell style ids of one workbook.
type styles struct {
	title    int
	header   int
	normal   int
	warning  int
	critical int
}

// Render builds the workbook in memory.
func (r *Renderer) Render(snap *model.Snapshot) (*model.RenderedReport, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	created := snap.Timestamp.UTC().Format(time.RFC3339)
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:    r.title,
		Creator:  "pds-status",
		Created:  created,
		Modified: created,
	}); err != nil {
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}

	st, err := r.createStyles(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create styles: %w", err)
	}

	if err := r.createSummarySheet(f, snap, st); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := r.createAccountsSheet(f, snap, st); err != nil {
		return nil, fmt.Errorf("failed to create accounts sheet: %w", err)
	}

	// Remove default Sheet1
	_ = f.DeleteSheet(defaultSheet)

	idx, _ := f.GetSheetIndex(sheetSummary)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return &model.RenderedReport{
		Format:      r.Format(),
		ContentType: ContentType,
		Body:        buf.Bytes(),
	}, nil
}

// createSummarySheet writes host and service figures as label/value rows.
func (r *Renderer) createSummarySheet(f *excelize.File, snap *model.Snapshot, st *styles) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}

	f.SetColWidth(sheetSummary, "A", "A", 24)
	f.SetColWidth(sheetSummary, "B", "B", 48)

	f.MergeCell(sheetSummary, "A1", "B1")
	f.SetCellValue(sheetSummary, "A1", r.title)
	f.SetCellStyle(sheetSummary, "A1", "B1", st.title)
	f.SetRowHeight(sheetSummary, 1, 30)

	host := snap.Host
	if host == nil {
		host = &model.HostMetrics{}
	}
	svc := snap.Service
	if svc == nil {
		svc = &model.ServiceMetrics{}
	}

	rows := []struct {
		label  string
		value  string
		metric string // status key, empty for plain rows
	}{
		{"Generated at", snap.Timestamp.In(r.timezone).Format(timeLayout), ""},
		{"Hostname", format.Text(host.Hostname), ""},
		{"Operating system", format.Text(host.Platform), ""},
		{"Kernel", format.Text(host.KernelVersion), ""},
		{"Uptime", format.Uptime(host.Uptime), ""},
		{"CPU usage", format.Percent(host.CPUPercent), model.MetricCPU},
		{"Load average", format.Load(host.Load), ""},
		{"Memory", format.Usage(host.Memory), model.MetricMemory},
		{"Disk (" + format.Text(host.DiskPath) + ")", format.Usage(host.Disk), model.MetricDisk},
		{"PDS hostname", format.Text(svc.Hostname), ""},
		{"PDS version", format.Text(svc.Version), ""},
		{"Accounts", format.AccountCount(svc), ""},
		{"Storage used", format.StorageUsed(svc), ""},
	}
	if host.Network != nil {
		rows = append(rows, struct {
			label  string
			value  string
			metric string
		}{
			"Network (" + host.Network.Interface + ")",
			fmt.Sprintf("sent %s, received %s", format.Size(host.Network.BytesSent), format.Size(host.Network.BytesRecv)),
			"",
		})
	}
	if svc.Truncated {
		rows = append(rows, struct {
			label  string
			value  string
			metric string
		}{"Partial figures", svc.TruncationReason, ""})
	}

	row := 3
	for _, item := range rows {
		a, b := fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row)
		f.SetCellValue(sheetSummary, a, item.label)
		f.SetCellValue(sheetSummary, b, item.value)
		f.SetCellStyle(sheetSummary, a, a, st.header)
		if item.metric != "" {
			if style := st.forStatus(snap.Status(item.metric)); style > 0 {
				f.SetCellStyle(sheetSummary, b, b, style)
			}
		}
		row++
	}

	if len(snap.Warnings) > 0 {
		row++
		f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", row), "Notes")
		f.SetCellStyle(sheetSummary, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), st.header)
		for _, w := range snap.Warnings {
			f.SetCellValue(sheetSummary, fmt.Sprintf("B%d", row), w)
			row++
		}
	}

	return nil
}

// createAccountsSheet writes one row per account in DID order.
func (r *Renderer) createAccountsSheet(f *excelize.File, snap *model.Snapshot, st *styles) error {
	if _, err := f.NewSheet(sheetAccounts); err != nil {
		return err
	}

	headers := []string{"DID", "Records", "Blobs", "Repository", "Blobs size", "Total", "Error"}
	for i, h := range headers {
		cell := fmt.Sprintf("%s1", columnName(i+1))
		f.SetCellValue(sheetAccounts, cell, h)
		f.SetCellStyle(sheetAccounts, cell, cell, st.header)
	}
	f.SetColWidth(sheetAccounts, "A", "A", 40)
	f.SetColWidth(sheetAccounts, "B", "F", 14)
	f.SetColWidth(sheetAccounts, "G", "G", 40)
	f.SetPanes(sheetAccounts, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	if snap.Service == nil {
		return nil
	}

	for i, acct := range snap.Service.Accounts {
		if acct == nil {
			continue
		}
		row := i + 2
		values := []interface{}{
			acct.DID,
			acct.Records,
			acct.Blobs,
			format.Size(acct.RepoBytes),
			format.Size(acct.BlobBytes),
			format.Size(acct.StorageBytes),
			acct.Error,
		}
		if acct.Error != "" {
			values[1], values[2] = "error", "error"
		}
		for col, v := range values {
			cell := fmt.Sprintf("%s%d", columnName(col+1), row)
			f.SetCellValue(sheetAccounts, cell, v)
		}
		if acct.Error != "" {
			f.SetCellStyle(sheetAccounts, fmt.Sprintf("G%d", row), fmt.Sprintf("G%d", row), st.critical)
		}
	}

	return nil
}

func (r *Renderer) createStyles(f *excelize.File) (*styles, error) {
	var (
		st  styles
		err error
	)

	st.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 18},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, err
	}

	st.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: colorHeaderFg},
		Fill: excelize.Fill{Type: "pattern", Color: []string{colorHeaderBg}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, err
	}

	if st.normal, err = fillStyle(f, colorNormalFg, colorNormalBg); err != nil {
		return nil, err
	}
	if st.warning, err = fillStyle(f, colorWarningFg, colorWarningBg); err != nil {
		return nil, err
	}
	if st.critical, err = fillStyle(f, colorCriticalFg, colorCriticalBg); err != nil {
		return nil, err
	}
	return &st, nil
}

func fillStyle(f *excelize.File, fg, bg string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: fg},
		Fill: excelize.Fill{Type: "pattern", Color: []string{bg}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
}

func (st *styles) forStatus(status model.MetricStatus) int {
	switch status {
	case model.MetricStatusCritical:
		return st.critical
	case model.MetricStatusWarning:
		return st.warning
	case model.MetricStatusNormal:
		return st.normal
	default:
		return 0
	}
}

// columnName converts a 1-based column index to Excel column name (A, B, ..., Z, AA, AB, ...).
func columnName(index int) string {
	result := ""
	for index > 0 {
		index--
		result = string(rune('A'+index%26)) + result
		index /= 26
	}
	return result
}

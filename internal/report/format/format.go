// Package format renders metric values as locale independent strings shared
// by every report format.
package format

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"pds-status/internal/model"
)

// Placeholder is shown for missing or inconsistent values.
const Placeholder = "n/a"

// Size formats bytes with binary (1024 based) prefixes and two decimals.
// A value that rounds to 1024 of one unit is shown in the next unit.
func Size(bytes uint64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}

	units := []string{"KB", "MB", "GB", "TB"}
	value := float64(bytes) / 1024
	i := 0
	for i < len(units)-1 && math.Round(value*100)/100 >= 1024 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", value, units[i])
}

// Percent formats a percentage with one decimal, "12.5%".
func Percent(p model.Percent) string {
	if !p.InRange() {
		return Placeholder
	}
	return fmt.Sprintf("%.1f%%", p.Value)
}

// Usage formats a used/total pair as "2.00 GB / 8.00 GB (25.0%)".
func Usage(u model.ByteUsage) string {
	if !u.Consistent() {
		return Placeholder
	}
	return fmt.Sprintf("%s / %s (%s)", Size(u.Used), Size(u.Total), Percent(u.UsedPercent()))
}

// Load formats load averages as "0.15 / 0.10 / 0.05".
func Load(l *model.LoadAverage) string {
	if l == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.2f / %.2f / %.2f", l.Load1, l.Load5, l.Load15)
}

// Count formats an integer in base 10 without grouping.
func Count(n int64) string {
	return strconv.FormatInt(n, 10)
}

// AccountCount formats the account count, as a lower bound when truncated.
func AccountCount(s *model.ServiceMetrics) string {
	if s == nil {
		return Placeholder
	}
	if s.Truncated {
		return "at least " + Count(s.AccountCount)
	}
	return Count(s.AccountCount)
}

// StorageUsed formats the aggregate storage, as a lower bound when truncated.
func StorageUsed(s *model.ServiceMetrics) string {
	if s == nil {
		return Placeholder
	}
	if s.Truncated {
		return "at least " + Size(s.StorageUsedBytes)
	}
	return Size(s.StorageUsedBytes)
}

// Uptime formats a duration as "3d 4h 5m".
func Uptime(d *time.Duration) string {
	if d == nil || *d < 0 {
		return Placeholder
	}
	total := int64(d.Minutes())
	days := total / (24 * 60)
	hours := (total % (24 * 60)) / 60
	minutes := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// Text returns s, or the placeholder when s is empty.
func Text(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

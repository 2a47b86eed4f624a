package model

// MetricStatus represents the evaluation status of a metric value.
type MetricStatus string

const (
	MetricStatusNormal   MetricStatus = "normal"
	MetricStatusWarning  MetricStatus = "warning"
	MetricStatusCritical MetricStatus = "critical"
	MetricStatusUnknown  MetricStatus = "unknown" // value missing or inconsistent
)

// Metric names used as keys in Snapshot.Statuses and in partial metric errors.
const (
	MetricCPU      = "cpu_percent"
	MetricLoad     = "load_average"
	MetricMemory   = "memory"
	MetricDisk     = "disk"
	MetricNetwork  = "network"
	MetricUptime   = "uptime"
	MetricHostInfo = "host_info"
	MetricVersion  = "service_version"
)

// Severity returns a numeric priority for the status (higher = more severe).
func (s MetricStatus) Severity() int {
	switch s {
	case MetricStatusCritical:
		return 2
	case MetricStatusWarning:
		return 1
	default:
		return 0
	}
}

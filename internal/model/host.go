// Package model provides data models for the status generator.
package model

import "time"

// Percent is a percentage sample. Valid is false when the platform could not
// provide the value.
type Percent struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// NewPercent returns a valid Percent.
func NewPercent(v float64) Percent {
	return Percent{Value: v, Valid: true}
}

// InRange reports whether the sample is valid and within [0, 100].
func (p Percent) InRange() bool {
	return p.Valid && p.Value >= 0 && p.Value <= 100
}

// ByteUsage is a used/total pair in bytes.
type ByteUsage struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
	Valid bool   `json:"valid"`
}

// NewByteUsage returns a valid ByteUsage.
func NewByteUsage(used, total uint64) ByteUsage {
	return ByteUsage{Used: used, Total: total, Valid: true}
}

// Consistent reports whether the pair is valid and used does not exceed total.
func (u ByteUsage) Consistent() bool {
	return u.Valid && u.Total > 0 && u.Used <= u.Total
}

// UsedPercent returns used/total as a percentage. Inconsistent pairs yield an
// invalid Percent.
func (u ByteUsage) UsedPercent() Percent {
	if !u.Consistent() {
		return Percent{}
	}
	return NewPercent(float64(u.Used) / float64(u.Total) * 100)
}

// LoadAverage holds the 1, 5 and 15 minute system load averages.
type LoadAverage struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// NetworkCounters holds cumulative byte counters for one interface.
type NetworkCounters struct {
	Interface string `json:"interface"`
	BytesSent uint64 `json:"bytes_sent"`
	BytesRecv uint64 `json:"bytes_recv"`
}

// HostMetrics contains the host level sample of a single run.
// Optional values are nil when unavailable.
type HostMetrics struct {
	Hostname      string           `json:"hostname"`
	OS            string           `json:"os"`
	Platform      string           `json:"platform"`
	KernelVersion string           `json:"kernel_version"`
	CPUCores      int              `json:"cpu_cores"`
	CPUPercent    Percent          `json:"cpu_percent"`
	Load          *LoadAverage     `json:"load,omitempty"`
	Memory        ByteUsage        `json:"memory"`
	Disk          ByteUsage        `json:"disk"`
	DiskPath      string           `json:"disk_path"`
	Network       *NetworkCounters `json:"network,omitempty"`
	Uptime        *time.Duration   `json:"uptime,omitempty"`
}

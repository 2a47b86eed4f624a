package model

import "time"

// Snapshot is one point-in-time bundle of host and service metrics.
// It only lives for the duration of a run.
type Snapshot struct {
	Timestamp time.Time               `json:"timestamp"`
	Host      *HostMetrics            `json:"host"`
	Service   *ServiceMetrics         `json:"service"`
	Statuses  map[string]MetricStatus `json:"statuses,omitempty"`
	// Warnings lists metrics that could not be sampled, as "metric: reason".
	Warnings []string `json:"warnings,omitempty"`
	Version  string   `json:"version,omitempty"` // generator version
}

// NewSnapshot creates an empty snapshot taken at ts.
func NewSnapshot(ts time.Time) *Snapshot {
	return &Snapshot{
		Timestamp: ts,
		Host:      &HostMetrics{},
		Service:   &ServiceMetrics{},
		Statuses:  make(map[string]MetricStatus),
	}
}

// Status returns the evaluated status of a metric, MetricStatusUnknown if none.
func (s *Snapshot) Status(metric string) MetricStatus {
	if s == nil || s.Statuses == nil {
		return MetricStatusUnknown
	}
	if st, ok := s.Statuses[metric]; ok {
		return st
	}
	return MetricStatusUnknown
}

// AddWarning records a recovered sampling failure.
func (s *Snapshot) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// RenderedReport is the immutable output rendered from exactly one Snapshot.
type RenderedReport struct {
	Format      string
	ContentType string
	Body        []byte
}

package service

import (
	"sort"

	"github.com/rs/zerolog"

	"pds-status/internal/config"
	"pds-status/internal/model"
)

// Evaluator classifies host metrics against the configured thresholds. The
// result only drives report styling.
type Evaluator struct {
	thresholds *config.ThresholdsConfig
	logger     zerolog.Logger
}

// NewEvaluator creates a new Evaluator with the given threshold configuration.
func NewEvaluator(thresholds *config.ThresholdsConfig, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
		logger:     logger.With().Str("component", "evaluator").Logger(),
	}
}

// Evaluate fills snap.Statuses for CPU, memory and disk.
func (e *Evaluator) Evaluate(snap *model.Snapshot) {
	if snap == nil || snap.Host == nil {
		return
	}
	if snap.Statuses == nil {
		snap.Statuses = make(map[string]model.MetricStatus)
	}

	host := snap.Host
	snap.Statuses[model.MetricCPU] = e.evaluate(host.CPUPercent, e.getThreshold(model.MetricCPU))
	snap.Statuses[model.MetricMemory] = e.evaluate(host.Memory.UsedPercent(), e.getThreshold(model.MetricMemory))
	snap.Statuses[model.MetricDisk] = e.evaluate(host.Disk.UsedPercent(), e.getThreshold(model.MetricDisk))

	names := make([]string, 0, len(snap.Statuses))
	for name := range snap.Statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	ev := e.logger.Debug()
	for _, name := range names {
		ev = ev.Str(name, string(snap.Statuses[name]))
	}
	ev.Msg("evaluation completed")
}

// evaluate compares a percentage against warning and critical thresholds.
// Missing or out of range values are unknown.
func (e *Evaluator) evaluate(p model.Percent, threshold *config.ThresholdPair) model.MetricStatus {
	if !p.InRange() {
		return model.MetricStatusUnknown
	}
	if threshold == nil {
		return model.MetricStatusNormal
	}
	if p.Value >= threshold.Critical {
		return model.MetricStatusCritical
	}
	if p.Value >= threshold.Warning {
		return model.MetricStatusWarning
	}
	return model.MetricStatusNormal
}

// getThreshold retrieves the threshold configuration for a metric name.
func (e *Evaluator) getThreshold(metric string) *config.ThresholdPair {
	if e.thresholds == nil {
		return nil
	}

	switch metric {
	case model.MetricCPU:
		return &e.thresholds.CPUUsage
	case model.MetricMemory:
		return &e.thresholds.MemoryUsage
	case model.MetricDisk:
		return &e.thresholds.DiskUsage
	default:
		return nil
	}
}

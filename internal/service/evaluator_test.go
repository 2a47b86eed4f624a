package service

import (
	"testing"

	"github.com/rs/zerolog"

	"pds-status/internal/config"
	"pds-status/internal/model"
)

// Helper function to create default threshold config for testing
func createTestThresholds() *config.ThresholdsConfig {
	return &config.ThresholdsConfig{
		CPUUsage:    config.ThresholdPair{Warning: 70, Critical: 90},
		MemoryUsage: config.ThresholdPair{Warning: 70, Critical: 90},
		DiskUsage:   config.ThresholdPair{Warning: 70, Critical: 90},
	}
}

func TestNewEvaluator(t *testing.T) {
	thresholds := createTestThresholds()
	evaluator := NewEvaluator(thresholds, zerolog.Nop())

	if evaluator == nil {
		t.Fatal("expected non-nil evaluator")
	}
	if evaluator.thresholds != thresholds {
		t.Error("thresholds not set correctly")
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	tests := []struct {
		name     string
		cpu      model.Percent
		memory   model.ByteUsage
		disk     model.ByteUsage
		expected map[string]model.MetricStatus
	}{
		{
			name:   "all normal",
			cpu:    model.NewPercent(12.5),
			memory: model.NewByteUsage(2*gb, 8*gb),
			disk:   model.NewByteUsage(50*gb, 100*gb),
			expected: map[string]model.MetricStatus{
				model.MetricCPU:    model.MetricStatusNormal,
				model.MetricMemory: model.MetricStatusNormal,
				model.MetricDisk:   model.MetricStatusNormal,
			},
		},
		{
			name:   "warning at threshold",
			cpu:    model.NewPercent(70),
			memory: model.NewByteUsage(75*gb, 100*gb),
			disk:   model.NewByteUsage(89*gb, 100*gb),
			expected: map[string]model.MetricStatus{
				model.MetricCPU:    model.MetricStatusWarning,
				model.MetricMemory: model.MetricStatusWarning,
				model.MetricDisk:   model.MetricStatusWarning,
			},
		},
		{
			name:   "critical",
			cpu:    model.NewPercent(95),
			memory: model.NewByteUsage(90*gb, 100*gb),
			disk:   model.NewByteUsage(100*gb, 100*gb),
			expected: map[string]model.MetricStatus{
				model.MetricCPU:    model.MetricStatusCritical,
				model.MetricMemory: model.MetricStatusCritical,
				model.MetricDisk:   model.MetricStatusCritical,
			},
		},
		{
			name:   "missing and inconsistent values are unknown",
			cpu:    model.Percent{},
			memory: model.NewByteUsage(9*gb, 8*gb),
			disk:   model.ByteUsage{},
			expected: map[string]model.MetricStatus{
				model.MetricCPU:    model.MetricStatusUnknown,
				model.MetricMemory: model.MetricStatusUnknown,
				model.MetricDisk:   model.MetricStatusUnknown,
			},
		},
		{
			name:   "out of range cpu is unknown",
			cpu:    model.NewPercent(150),
			memory: model.NewByteUsage(1*gb, 8*gb),
			disk:   model.NewByteUsage(1*gb, 8*gb),
			expected: map[string]model.MetricStatus{
				model.MetricCPU:    model.MetricStatusUnknown,
				model.MetricMemory: model.MetricStatusNormal,
				model.MetricDisk:   model.MetricStatusNormal,
			},
		},
	}

	evaluator := NewEvaluator(createTestThresholds(), zerolog.Nop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := model.NewSnapshot(fixedTime)
			snap.Host.CPUPercent = tt.cpu
			snap.Host.Memory = tt.memory
			snap.Host.Disk = tt.disk

			evaluator.Evaluate(snap)

			for metric, want := range tt.expected {
				if got := snap.Status(metric); got != want {
					t.Errorf("%s: expected %s, got %s", metric, want, got)
				}
			}
		})
	}
}

func TestEvaluator_NilThresholds(t *testing.T) {
	snap := model.NewSnapshot(fixedTime)
	snap.Host.CPUPercent = model.NewPercent(99)

	NewEvaluator(nil, zerolog.Nop()).Evaluate(snap)

	if got := snap.Status(model.MetricCPU); got != model.MetricStatusNormal {
		t.Errorf("expected normal without thresholds, got %s", got)
	}
}

func TestEvaluator_NilSnapshot(t *testing.T) {
	// Should not panic
	NewEvaluator(createTestThresholds(), zerolog.Nop()).Evaluate(nil)
	NewEvaluator(createTestThresholds(), zerolog.Nop()).Evaluate(&model.Snapshot{})
}

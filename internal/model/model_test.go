package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestByteUsage_UsedPercent(t *testing.T) {
	tests := []struct {
		name      string
		usage     ByteUsage
		wantValid bool
		want      float64
	}{
		{"quarter", NewByteUsage(2, 8), true, 25},
		{"full", NewByteUsage(8, 8), true, 100},
		{"used above total", NewByteUsage(9, 8), false, 0},
		{"zero total", NewByteUsage(0, 0), false, 0},
		{"missing", ByteUsage{}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.usage.UsedPercent()
			assert.Equal(t, tt.wantValid, p.Valid)
			assert.InDelta(t, tt.want, p.Value, 0.001)
		})
	}
}

func TestPercent_InRange(t *testing.T) {
	assert.True(t, NewPercent(0).InRange())
	assert.True(t, NewPercent(100).InRange())
	assert.False(t, NewPercent(100.5).InRange())
	assert.False(t, NewPercent(-1).InRange())
	assert.False(t, Percent{Value: 50}.InRange())
}

func TestServiceMetrics_Accounts(t *testing.T) {
	svc := &ServiceMetrics{}
	svc.AddAccount(&AccountUsage{DID: "did:plc:c", StorageBytes: 30})
	svc.AddAccount(&AccountUsage{DID: "did:plc:a", StorageBytes: 10})
	svc.AddAccount(&AccountUsage{DID: "did:plc:b", Error: "database is locked"})
	svc.AddAccount(nil)

	svc.SortAccounts()

	assert.Equal(t, uint64(40), svc.StorageUsedBytes)
	assert.Len(t, svc.Accounts, 3)
	assert.Equal(t, "did:plc:a", svc.Accounts[0].DID)
	assert.Equal(t, "did:plc:c", svc.Accounts[2].DID)
	assert.Equal(t, 1, svc.FailedAccounts())
}

func TestServiceMetrics_MarkTruncated(t *testing.T) {
	svc := &ServiceMetrics{}
	svc.MarkTruncated("account listing capped at 100")
	svc.MarkTruncated("account enumeration stopped after 30s")

	assert.True(t, svc.Truncated)
	assert.Equal(t, "account listing capped at 100", svc.TruncationReason)
}

func TestSnapshot_Status(t *testing.T) {
	snap := NewSnapshot(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	snap.Statuses[MetricCPU] = MetricStatusWarning

	assert.Equal(t, MetricStatusWarning, snap.Status(MetricCPU))
	assert.Equal(t, MetricStatusUnknown, snap.Status(MetricDisk))

	var nilSnap *Snapshot
	assert.Equal(t, MetricStatusUnknown, nilSnap.Status(MetricCPU))
}

func TestMetricStatus_Severity(t *testing.T) {
	assert.Equal(t, 2, MetricStatusCritical.Severity())
	assert.Equal(t, 1, MetricStatusWarning.Severity())
	assert.Equal(t, 0, MetricStatusNormal.Severity())
	assert.Equal(t, 0, MetricStatusUnknown.Severity())
}

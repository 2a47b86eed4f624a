package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pds-status/internal/config"
)

func TestNewGopsutilSampler_Interval(t *testing.T) {
	assert.Equal(t, time.Second, NewGopsutilSampler(nil).cpuInterval)
	assert.Equal(t, time.Second, NewGopsutilSampler(&config.HostConfig{}).cpuInterval)
	assert.Equal(t, 200*time.Millisecond,
		NewGopsutilSampler(&config.HostConfig{CPUSampleInterval: 200 * time.Millisecond}).cpuInterval)
}

func TestGopsutilSampler_Memory(t *testing.T) {
	s := NewGopsutilSampler(nil)

	used, total, err := s.Memory(context.Background())
	require.NoError(t, err)
	assert.Greater(t, total, uint64(0))
	assert.LessOrEqual(t, used, total)
}

func TestGopsutilSampler_Disk(t *testing.T) {
	s := NewGopsutilSampler(nil)

	used, total, err := s.Disk(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, total, uint64(0))
	assert.LessOrEqual(t, used, total)

	_, _, err = s.Disk(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestGopsutilSampler_UnknownInterface(t *testing.T) {
	s := NewGopsutilSampler(nil)

	_, err := s.Network(context.Background(), "no-such-iface0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-iface0")
}

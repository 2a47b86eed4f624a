package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"pds-status/internal/config"
	"pds-status/internal/model"
)

// HostInfo is the static description of the host.
type HostInfo struct {
	Hostname      string
	OS            string
	Platform      string
	KernelVersion string
	CPUCores      int
	Uptime        time.Duration
}

// HostSampler reads host level metrics. Each method is independent so a
// failure of one does not prevent the others.
type HostSampler interface {
	Info(ctx context.Context) (*HostInfo, error)
	CPUPercent(ctx context.Context) (float64, error)
	LoadAverage(ctx context.Context) (*model.LoadAverage, error)
	Memory(ctx context.Context) (used, total uint64, err error)
	Disk(ctx context.Context, path string) (used, total uint64, err error)
	Network(ctx context.Context, iface string) (*model.NetworkCounters, error)
}

// GopsutilSampler implements HostSampler with gopsutil.
type GopsutilSampler struct {
	cpuInterval time.Duration
}

// NewGopsutilSampler creates a sampler measuring CPU over the configured interval.
func NewGopsutilSampler(cfg *config.HostConfig) *GopsutilSampler {
	interval := time.Second
	if cfg != nil && cfg.CPUSampleInterval > 0 {
		interval = cfg.CPUSampleInterval
	}
	return &GopsutilSampler{cpuInterval: interval}
}

// Info returns hostname, platform and uptime.
func (s *GopsutilSampler) Info(ctx context.Context) (*HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get host info: %w", err)
	}

	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		cores = 0
	}

	return &HostInfo{
		Hostname:      info.Hostname,
		OS:            info.OS,
		Platform:      fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion),
		KernelVersion: info.KernelVersion,
		CPUCores:      cores,
		Uptime:        time.Duration(info.Uptime) * time.Second,
	}, nil
}

// CPUPercent returns overall CPU utilisation measured over the sample interval.
func (s *GopsutilSampler) CPUPercent(ctx context.Context) (float64, error) {
	percent, err := cpu.PercentWithContext(ctx, s.cpuInterval, false)
	if err != nil {
		return 0, fmt.Errorf("failed to get CPU usage: %w", err)
	}
	if len(percent) == 0 {
		return 0, errors.New("no CPU usage data available")
	}
	return percent[0], nil
}

// LoadAverage returns the 1, 5 and 15 minute load averages.
func (s *GopsutilSampler) LoadAverage(ctx context.Context) (*model.LoadAverage, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get load average: %w", err)
	}
	return &model.LoadAverage{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}, nil
}

// Memory returns used and total physical memory.
func (s *GopsutilSampler) Memory(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get memory usage: %w", err)
	}
	return vm.Used, vm.Total, nil
}

// Disk returns used and total bytes of the filesystem holding path.
func (s *GopsutilSampler) Disk(ctx context.Context, path string) (uint64, uint64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get disk usage of %s: %w", path, err)
	}
	return usage.Used, usage.Total, nil
}

// Network returns the byte counters of iface.
func (s *GopsutilSampler) Network(ctx context.Context, iface string) (*model.NetworkCounters, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get network counters: %w", err)
	}
	for _, c := range counters {
		if c.Name == iface {
			return &model.NetworkCounters{
				Interface: iface,
				BytesSent: c.BytesSent,
				BytesRecv: c.BytesRecv,
			}, nil
		}
	}
	return nil, fmt.Errorf("interface %s not found", iface)
}

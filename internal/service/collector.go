// Package service collects, evaluates and publishes the status snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pds-status/internal/client/pds"
	"pds-status/internal/config"
	"pds-status/internal/model"
)

// AccountStore is the read-only view of the PDS account store.
type AccountStore interface {
	// CountAccounts returns the number of accounts. On a context error it may
	// return a partial count together with the error.
	CountAccounts(ctx context.Context) (int64, error)
	// ListAccounts returns up to limit DIDs in ascending order. On a context
	// error the DIDs read so far are returned together with the error.
	ListAccounts(ctx context.Context, limit int) ([]string, error)
	// AccountUsage returns the storage accounting of one account.
	AccountUsage(ctx context.Context, did string) (*model.AccountUsage, error)
	Close() error
}

// HealthChecker reports the running PDS version.
type HealthChecker interface {
	Health(ctx context.Context) (*pds.HealthResponse, error)
}

// Collector gathers host and service metrics into a Snapshot.
type Collector struct {
	config  *config.Config
	sampler HostSampler
	store   AccountStore
	health  HealthChecker
	now     func() time.Time
	logger  zerolog.Logger
}

// CollectorOption is a functional option for configuring a Collector.
type CollectorOption func(*Collector)

// WithHealthChecker enables the PDS version lookup.
func WithHealthChecker(h HealthChecker) CollectorOption {
	return func(c *Collector) {
		c.health = h
	}
}

// WithClock overrides the snapshot clock.
func WithClock(now func() time.Time) CollectorOption {
	return func(c *Collector) {
		c.now = now
	}
}

// NewCollector creates a new Collector instance.
func NewCollector(
	cfg *config.Config,
	sampler HostSampler,
	store AccountStore,
	logger zerolog.Logger,
	opts ...CollectorOption,
) *Collector {
	c := &Collector{
		config:  cfg,
		sampler: sampler,
		store:   store,
		now:     time.Now,
		logger:  logger.With().Str("component", "collector").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect samples the host and the PDS. It fails with a *CollectionError when
// the data directory or the account store cannot be read; individual host
// metrics that cannot be sampled are recorded as warnings instead.
func (c *Collector) Collect(ctx context.Context) (*model.Snapshot, error) {
	snap := model.NewSnapshot(c.now())
	c.logger.Info().Str("data_dir", c.config.Service.DataDir).Msg("starting collection")

	if err := checkDataDir(c.config.Service.DataDir); err != nil {
		return nil, &CollectionError{Op: "read data directory", Err: err}
	}

	c.collectHost(ctx, snap)

	if err := c.collectService(ctx, snap); err != nil {
		return nil, err
	}

	c.collectVersion(ctx, snap)

	c.logger.Info().
		Int64("accounts", snap.Service.AccountCount).
		Uint64("storage_bytes", snap.Service.StorageUsedBytes).
		Bool("truncated", snap.Service.Truncated).
		Int("failed_accounts", snap.Service.FailedAccounts()).
		Int("warnings", len(snap.Warnings)).
		Msg("collection completed")

	return snap, nil
}

// checkDataDir verifies that path is a readable directory.
func checkDataDir(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// collectHost samples each host metric independently.
func (c *Collector) collectHost(ctx context.Context, snap *model.Snapshot) {
	host := snap.Host
	host.DiskPath = c.config.Host.DiskPath
	if host.DiskPath == "" {
		host.DiskPath = c.config.Service.DataDir
	}

	if info, err := c.sampler.Info(ctx); err != nil {
		c.partial(snap, model.MetricHostInfo, err)
	} else {
		host.Hostname = info.Hostname
		host.OS = info.OS
		host.Platform = info.Platform
		host.KernelVersion = info.KernelVersion
		host.CPUCores = info.CPUCores
		uptime := info.Uptime
		host.Uptime = &uptime
	}

	if v, err := c.sampler.CPUPercent(ctx); err != nil {
		c.partial(snap, model.MetricCPU, err)
	} else {
		host.CPUPercent = model.NewPercent(v)
	}

	if avg, err := c.sampler.LoadAverage(ctx); err != nil {
		c.partial(snap, model.MetricLoad, err)
	} else {
		host.Load = avg
	}

	if used, total, err := c.sampler.Memory(ctx); err != nil {
		c.partial(snap, model.MetricMemory, err)
	} else {
		host.Memory = model.NewByteUsage(used, total)
	}

	if used, total, err := c.sampler.Disk(ctx, host.DiskPath); err != nil {
		c.partial(snap, model.MetricDisk, err)
	} else {
		host.Disk = model.NewByteUsage(used, total)
	}

	if iface := c.config.Host.NetworkInterface; iface != "" {
		if counters, err := c.sampler.Network(ctx, iface); err != nil {
			c.partial(snap, model.MetricNetwork, err)
		} else {
			host.Network = counters
		}
	}
}

// partial records a recovered metric failure on the snapshot.
func (c *Collector) partial(snap *model.Snapshot, metric string, err error) {
	pe := &PartialMetricError{Metric: metric, Err: err}
	snap.AddWarning(pe.Error())
	c.logger.Warn().Err(err).Str("metric", metric).Msg("metric unavailable, continuing")
}

// collectService enumerates accounts within service.enumeration_timeout and
// service.max_accounts. Hitting either bound marks the figures as a lower bound.
func (c *Collector) collectService(ctx context.Context, snap *model.Snapshot) error {
	cfg := c.config.Service
	svc := snap.Service
	svc.DataDir = cfg.DataDir
	svc.Hostname = cfg.Hostname

	enumCtx, cancel := withOptionalTimeout(ctx, cfg.EnumerationTimeout)
	defer cancel()

	count, err := c.store.CountAccounts(enumCtx)
	exact := err == nil
	if err != nil {
		if err := c.enumerationError(ctx, enumCtx, "count accounts", err); err != nil {
			return err
		}
		svc.MarkTruncated(c.timeoutReason())
	}

	var dids []string
	if enumCtx.Err() == nil {
		dids, err = c.store.ListAccounts(enumCtx, cfg.MaxAccounts)
		if err != nil {
			if err := c.enumerationError(ctx, enumCtx, "list accounts", err); err != nil {
				return err
			}
			svc.MarkTruncated(c.timeoutReason())
		}
	}

	svc.AccountCount = max(count, int64(len(dids)))
	if len(dids) >= cfg.MaxAccounts && (!exact || count > int64(cfg.MaxAccounts)) {
		svc.MarkTruncated(fmt.Sprintf("account listing capped at %d", cfg.MaxAccounts))
	}

	if err := c.collectUsage(ctx, enumCtx, svc, dids); err != nil {
		return err
	}
	svc.SortAccounts()
	return nil
}

// collectUsage gathers per-account storage with a bounded worker group.
// Accounts not reached before enumCtx expires are left out.
func (c *Collector) collectUsage(ctx, enumCtx context.Context, svc *model.ServiceMetrics, dids []string) error {
	if len(dids) == 0 {
		return nil
	}

	results := make([]*model.AccountUsage, len(dids))

	g, gctx := errgroup.WithContext(enumCtx)
	g.SetLimit(c.concurrency())

	for i, did := range dids {
		i, did := i, did
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			usage, err := c.store.AccountUsage(gctx, did)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.logger.Warn().Err(err).Str("did", did).Msg("account usage unavailable")
				usage = &model.AccountUsage{DID: did, Error: err.Error()}
			}
			results[i] = usage
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if err := c.enumerationError(ctx, enumCtx, "account usage", err); err != nil {
			return err
		}
		svc.MarkTruncated(c.timeoutReason())
	}

	for _, usage := range results {
		svc.AddAccount(usage)
	}
	return nil
}

// enumerationError classifies a store error. Expiry of the enumeration bound
// returns nil so the caller can degrade to a lower bound; cancellation of the
// run is returned as is; anything else is a CollectionError.
func (c *Collector) enumerationError(ctx, enumCtx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if enumCtx.Err() != nil {
		c.logger.Warn().
			Str("op", op).
			Dur("timeout", c.config.Service.EnumerationTimeout).
			Msg("account enumeration timed out, reporting a lower bound")
		return nil
	}
	return &CollectionError{Op: op, Err: err}
}

func (c *Collector) timeoutReason() string {
	return fmt.Sprintf("account enumeration stopped after %s", c.config.Service.EnumerationTimeout)
}

func (c *Collector) concurrency() int {
	if n := c.config.Service.Concurrency; n > 0 {
		return n
	}
	return 1
}

// collectVersion asks the PDS for its version. Failure is a recovered warning.
func (c *Collector) collectVersion(ctx context.Context, snap *model.Snapshot) {
	if c.health == nil {
		return
	}
	resp, err := c.health.Health(ctx)
	if err != nil {
		c.partial(snap, model.MetricVersion, err)
		return
	}
	snap.Service.Version = resp.Version
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

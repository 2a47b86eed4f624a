package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"pds-status/internal/client/pds"
	"pds-status/internal/config"
)

// RepoLister is the subset of the PDS client used for enumeration.
type RepoLister interface {
	ListRepos(ctx context.Context, cursor string, limit int) (*pds.ListReposResponse, error)
}

// XRPCStore enumerates accounts through com.atproto.sync.listRepos and reads
// storage figures from the local data directory.
type XRPCStore struct {
	*localUsage
	client   RepoLister
	pageSize int
	logger   zerolog.Logger

	mu       sync.Mutex
	dids     []string // sorted, filled by enumerate
	complete bool
}

// NewXRPC creates an XRPC-backed store.
func NewXRPC(cfg *config.ServiceConfig, client RepoLister, log zerolog.Logger) *XRPCStore {
	l := log.With().Str("component", "xrpc-store").Logger()
	return &XRPCStore{
		localUsage: newLocalUsage(cfg.ActorsPath(), cfg.BlocksPath(), l),
		client:     client,
		pageSize:   pds.MaxPageSize,
		logger:     l,
	}
}

// CountAccounts pages through every repo. There is no count endpoint, so on a
// context error the number seen so far is returned with the error.
func (s *XRPCStore) CountAccounts(ctx context.Context) (int64, error) {
	dids, err := s.enumerate(ctx)
	return int64(len(dids)), err
}

// ListAccounts returns up to limit DIDs in ascending order.
func (s *XRPCStore) ListAccounts(ctx context.Context, limit int) ([]string, error) {
	dids, err := s.enumerate(ctx)
	if len(dids) > limit {
		dids = dids[:limit]
	}
	return dids, err
}

// enumerate fetches all pages once and caches the sorted result. Partial
// results are not cached.
func (s *XRPCStore) enumerate(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.complete {
		return s.dids, nil
	}

	var (
		dids   []string
		cursor string
	)
	for {
		page, err := s.client.ListRepos(ctx, cursor, s.pageSize)
		if err != nil {
			sort.Strings(dids)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return dids, ctxErr
			}
			return dids, err
		}
		for i := range page.Repos {
			if page.Repos[i].IsActive() {
				dids = append(dids, page.Repos[i].DID)
			}
		}
		if page.Cursor == "" || page.Cursor == cursor || len(page.Repos) == 0 {
			break
		}
		cursor = page.Cursor
	}

	sort.Strings(dids)
	s.dids = dids
	s.complete = true
	s.logger.Debug().Int("count", len(dids)).Msg("enumerated repos")
	return dids, nil
}

// Close is a no-op; the HTTP client holds no per-run resources.
func (s *XRPCStore) Close() error {
	return nil
}

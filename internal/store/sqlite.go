package store

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pds-status/internal/config"
)

// busyTimeoutMS lets reads wait for the PDS holding a write lock.
const busyTimeoutMS = 5000

// SQLiteStore enumerates accounts from the PDS account database.
type SQLiteStore struct {
	*localUsage
	db     *gorm.DB
	path   string
	logger zerolog.Logger
}

// OpenSQLite opens the account database read-only. It fails when the file is
// missing or is not a PDS account database.
func OpenSQLite(cfg *config.ServiceConfig, log zerolog.Logger) (*SQLiteStore, error) {
	path := cfg.AccountDBPath()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("account database unavailable: %w", err)
	}

	db, err := openReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open account database %s: %w", path, err)
	}

	if !db.Migrator().HasTable("account") {
		closeDB(db)
		return nil, fmt.Errorf("%s has no account table", path)
	}

	l := log.With().Str("component", "sqlite-store").Logger()
	return &SQLiteStore{
		localUsage: newLocalUsage(cfg.ActorsPath(), cfg.BlocksPath(), l),
		db:         db,
		path:       path,
		logger:     l,
	}, nil
}

// openReadOnly opens a SQLite file with mode=ro so the PDS data is never modified.
func openReadOnly(path string) (*gorm.DB, error) {
	dsn := (&url.URL{
		Scheme:   "file",
		Opaque:   path,
		RawQuery: fmt.Sprintf("mode=ro&_pragma=busy_timeout(%d)", busyTimeoutMS),
	}).String()

	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
}

// CountAccounts returns the number of rows in the account table.
func (s *SQLiteStore) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Table("account").Count(&n).Error; err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}

// ListAccounts returns up to limit DIDs in ascending order. When ctx expires
// mid-scan the DIDs read so far are returned together with the context error.
func (s *SQLiteStore) ListAccounts(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.WithContext(ctx).
		Table("account").
		Select("did").
		Order("did").
		Limit(limit).
		Rows()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	dids := make([]string, 0, min(limit, 1024))
	for rows.Next() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dids, ctxErr
		}
		var did string
		if err := rows.Scan(&did); err != nil {
			return dids, fmt.Errorf("failed to scan account: %w", err)
		}
		dids = append(dids, did)
	}
	if err := rows.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dids, ctxErr
		}
		return dids, fmt.Errorf("failed to read accounts: %w", err)
	}

	s.logger.Debug().Int("count", len(dids)).Msg("listed accounts")
	return dids, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

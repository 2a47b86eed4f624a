// Package store implements read-only views of a PDS account store.
//
// Both implementations enumerate accounts from a different source (the
// account database or the XRPC API) and share the on-disk accounting of each
// account's actor store and blob directory.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"pds-status/internal/model"
)

const actorStoreFile = "store.sqlite"

// localUsage computes per-account storage from the PDS data directory.
type localUsage struct {
	actorsDir string
	blocksDir string
	logger    zerolog.Logger

	indexOnce sync.Once
	index     map[string]string // did -> store.sqlite path
	indexErr  error
}

func newLocalUsage(actorsDir, blocksDir string, logger zerolog.Logger) *localUsage {
	return &localUsage{
		actorsDir: actorsDir,
		blocksDir: blocksDir,
		logger:    logger,
	}
}

// AccountUsage returns record/blob counts and on-disk size for one account.
// Failures to read the actor store are reported on the row; only context
// errors are returned.
func (l *localUsage) AccountUsage(ctx context.Context, did string) (*model.AccountUsage, error) {
	usage := &model.AccountUsage{DID: did}

	storePath, err := l.actorStorePath(ctx, did)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		usage.Error = err.Error()
	} else {
		records, blobs, err := countActorStore(ctx, storePath)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			usage.Error = fmt.Sprintf("store unreadable: %v", err)
		} else {
			usage.Records = records
			usage.Blobs = blobs
		}

		repoBytes, err := DirSize(ctx, filepath.Dir(storePath))
		if err != nil {
			return nil, err
		}
		usage.RepoBytes = repoBytes
	}

	blobBytes, err := DirSize(ctx, filepath.Join(l.blocksDir, did))
	if err != nil {
		return nil, err
	}
	usage.BlobBytes = blobBytes
	usage.StorageBytes = usage.RepoBytes + usage.BlobBytes

	return usage, nil
}

// actorStorePath locates the store.sqlite of an account. The PDS shards actor
// directories by the first two hex characters of sha256(did); when that path
// does not exist the actors tree is indexed once and searched.
func (l *localUsage) actorStorePath(ctx context.Context, did string) (string, error) {
	sum := sha256.Sum256([]byte(did))
	direct := filepath.Join(l.actorsDir, hex.EncodeToString(sum[:])[:2], did, actorStoreFile)
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	l.indexOnce.Do(func() {
		l.index, l.indexErr = indexActorStores(ctx, l.actorsDir)
		if l.indexErr == nil {
			l.logger.Debug().Int("stores", len(l.index)).Msg("indexed actor stores")
		}
	})
	if l.indexErr != nil {
		return "", l.indexErr
	}

	if p, ok := l.index[did]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%s not found for %s", actorStoreFile, did)
}

// indexActorStores walks the actors tree and maps each directory holding a
// store.sqlite to its path, keyed by the directory name (the DID).
func indexActorStores(ctx context.Context, root string) (map[string]string, error) {
	index := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable subtrees are skipped, a missing root is reported.
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() && d.Name() == actorStoreFile {
			dir := filepath.Dir(path)
			index[filepath.Base(dir)] = path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index actor stores: %w", err)
	}
	return index, nil
}

// countActorStore counts rows in the record and blob tables of an actor store.
func countActorStore(ctx context.Context, path string) (records, blobs int64, err error) {
	db, err := openReadOnly(path)
	if err != nil {
		return 0, 0, err
	}
	defer closeDB(db)

	if err := db.WithContext(ctx).Table("record").Count(&records).Error; err != nil {
		return 0, 0, fmt.Errorf("count records: %w", err)
	}
	if err := db.WithContext(ctx).Table("blob").Count(&blobs).Error; err != nil {
		return 0, 0, fmt.Errorf("count blobs: %w", err)
	}
	return records, blobs, nil
}

// DirSize returns the total size of regular files below path. A missing path
// has size zero; files that vanish or cannot be stat'ed are skipped.
func DirSize(ctx context.Context, path string) (uint64, error) {
	var total uint64

	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == path && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += uint64(info.Size())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

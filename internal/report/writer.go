// Package report renders status snapshots and publishes them atomically.
// It defines the Renderer interface, a registry of the available formats
// (HTML, Excel) and the AtomicWriter used to replace the published files.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pds-status/internal/model"
)

// Renderer turns a snapshot into a report body. Implementations are pure:
// the same snapshot always renders to the same bytes.
type Renderer interface {
	Render(snap *model.Snapshot) (*model.RenderedReport, error)

	// Format returns the format identifier, "html" or "excel".
	Format() string
}

// WriteError is a failure to publish a report. The destination is unchanged.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// AtomicWriter replaces a file by writing a temporary sibling and renaming it
// over the destination, so readers see either the old or the new content.
type AtomicWriter struct {
	mode     os.FileMode
	staleAge time.Duration
	rename   func(oldpath, newpath string) error
	logger   zerolog.Logger
}

// NewAtomicWriter creates a writer publishing files with the given mode.
// When staleAge is positive, temporaries older than that are removed before
// each write.
func NewAtomicWriter(mode os.FileMode, staleAge time.Duration, logger zerolog.Logger) *AtomicWriter {
	if mode == 0 {
		mode = 0o644
	}
	return &AtomicWriter{
		mode:     mode,
		staleAge: staleAge,
		rename:   os.Rename,
		logger:   logger.With().Str("component", "writer").Logger(),
	}
}

// tempPrefix names the temporaries of dest: ".status.html.tmp-".
func tempPrefix(dest string) string {
	return "." + filepath.Base(dest) + ".tmp-"
}

// Write publishes rep at dest. On any failure, including cancellation of ctx
// before the rename, the temporary is removed and dest is left untouched.
func (w *AtomicWriter) Write(ctx context.Context, rep *model.RenderedReport, dest string) error {
	if rep == nil {
		return &WriteError{Path: dest, Op: "prepare", Err: errors.New("report is nil")}
	}

	if w.staleAge > 0 {
		if n, err := w.CleanStale(dest, w.staleAge); err != nil {
			w.logger.Warn().Err(err).Str("path", dest).Msg("failed to clean stale temporaries")
		} else if n > 0 {
			w.logger.Info().Int("removed", n).Str("path", dest).Msg("removed stale temporaries")
		}
	}

	if err := ctx.Err(); err != nil {
		return &WriteError{Path: dest, Op: "prepare", Err: err}
	}

	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, tempPrefix(dest)+"*")
	if err != nil {
		return &WriteError{Path: dest, Op: "create temp file", Err: err}
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				w.logger.Warn().Err(rmErr).Str("temp", tmpName).Msg("failed to remove temp file")
			}
		}
	}()

	if _, err := tmp.Write(rep.Body); err != nil {
		return &WriteError{Path: dest, Op: "write temp file", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &WriteError{Path: dest, Op: "sync temp file", Err: err}
	}
	if err := tmp.Chmod(w.mode); err != nil {
		return &WriteError{Path: dest, Op: "chmod temp file", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: dest, Op: "close temp file", Err: err}
	}

	if err := ctx.Err(); err != nil {
		return &WriteError{Path: dest, Op: "rename", Err: err}
	}
	if err := w.rename(tmpName, dest); err != nil {
		return &WriteError{Path: dest, Op: "rename", Err: err}
	}
	committed = true

	if err := syncDir(dir); err != nil {
		w.logger.Warn().Err(err).Str("dir", dir).Msg("failed to sync directory")
	}

	w.logger.Debug().
		Str("path", dest).
		Str("format", rep.Format).
		Int("bytes", len(rep.Body)).
		Msg("file replaced")
	return nil
}

// CleanStale removes temporaries of dest last modified more than olderThan
// ago, left behind by runs that were killed before the rename.
func (w *AtomicWriter) CleanStale(dest string, olderThan time.Duration) (int, error) {
	dir := filepath.Dir(dest)
	prefix := tempPrefix(dest)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

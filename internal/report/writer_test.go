package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pds-status/internal/model"
)

func htmlReport(body string) *model.RenderedReport {
	return &model.RenderedReport{Format: "html", ContentType: "text/html; charset=utf-8", Body: []byte(body)}
}

func listTemps(t *testing.T, dest string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	var temps []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix(dest)) {
			temps = append(temps, e.Name())
		}
	}
	return temps
}

func TestAtomicWriter_Write(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "status.html")
	w := NewAtomicWriter(0o644, 0, zerolog.Nop())

	require.NoError(t, w.Write(context.Background(), htmlReport("<p>first</p>"), dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<p>first</p>", string(got))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	assert.Empty(t, listTemps(t, dest))

	require.NoError(t, w.Write(context.Background(), htmlReport("<p>second</p>"), dest))
	got, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<p>second</p>", string(got))
}

func TestAtomicWriter_FileMode(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "status.html")
	w := NewAtomicWriter(0o640, 0, zerolog.Nop())

	require.NoError(t, w.Write(context.Background(), htmlReport("x"), dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestAtomicWriter_NilReport(t *testing.T) {
	w := NewAtomicWriter(0, 0, zerolog.Nop())

	err := w.Write(context.Background(), nil, filepath.Join(t.TempDir(), "status.html"))

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
}

func TestAtomicWriter_MissingDirectory(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "missing", "status.html")
	w := NewAtomicWriter(0, 0, zerolog.Nop())

	err := w.Write(context.Background(), htmlReport("x"), dest)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "create temp file", writeErr.Op)
	assert.Equal(t, dest, writeErr.Path)
}

func TestAtomicWriter_UnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	dest := filepath.Join(dir, "status.html")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	w := NewAtomicWriter(0, 0, zerolog.Nop())
	err := w.Write(context.Background(), htmlReport("new"), dest)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}

// A failure between temp creation and rename stands in for a process killed
// mid-write: the destination keeps the old content and no temp remains.
func TestAtomicWriter_InterruptedBeforeRename(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "status.html")
	require.NoError(t, os.WriteFile(dest, []byte("<p>old complete page</p>"), 0o644))

	w := NewAtomicWriter(0o644, 0, zerolog.Nop())
	var sawTemp string
	w.rename = func(oldpath, newpath string) error {
		data, err := os.ReadFile(oldpath)
		require.NoError(t, err)
		assert.Equal(t, "<p>new complete page</p>", string(data), "temp must be complete before rename")
		sawTemp = oldpath
		return errors.New("killed")
	}

	err := w.Write(context.Background(), htmlReport("<p>new complete page</p>"), dest)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "rename", writeErr.Op)
	assert.Equal(t, filepath.Dir(dest), filepath.Dir(sawTemp), "temp must live next to the destination")

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<p>old complete page</p>", string(got))
	assert.Empty(t, listTemps(t, dest))
}

func TestAtomicWriter_CancelledContext(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "status.html")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewAtomicWriter(0, 0, zerolog.Nop())
	err := w.Write(ctx, htmlReport("new"), dest)

	require.ErrorIs(t, err, context.Canceled)
	got, _ := os.ReadFile(dest)
	assert.Equal(t, "old", string(got))
	assert.Empty(t, listTemps(t, dest))
}

func TestAtomicWriter_ConcurrentWriters(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "status.html")
	w1 := NewAtomicWriter(0o644, 0, zerolog.Nop())
	w2 := NewAtomicWriter(0o644, 0, zerolog.Nop())

	bodyA := bytes.Repeat([]byte("A"), 1<<20)
	bodyB := bytes.Repeat([]byte("B"), 1<<20+7)

	for i := 0; i < 20; i++ {
		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs[0] = w1.Write(context.Background(), &model.RenderedReport{Format: "html", Body: bodyA}, dest)
		}()
		go func() {
			defer wg.Done()
			errs[1] = w2.Write(context.Background(), &model.RenderedReport{Format: "html", Body: bodyB}, dest)
		}()
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		got, err := os.ReadFile(dest)
		require.NoError(t, err)
		if !bytes.Equal(got, bodyA) && !bytes.Equal(got, bodyB) {
			t.Fatalf("iteration %d: destination is a mix of both renders (%d bytes)", i, len(got))
		}
	}
	assert.Empty(t, listTemps(t, dest))
}

func TestAtomicWriter_CleanStale(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "status.html")

	stale := filepath.Join(dir, tempPrefix(dest)+"111")
	fresh := filepath.Join(dir, tempPrefix(dest)+"222")
	other := filepath.Join(dir, ".other.html.tmp-333")
	for _, p := range []string{stale, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("partial"), 0o600))
	}
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))
	require.NoError(t, os.Chtimes(other, old, old))

	w := NewAtomicWriter(0, time.Hour, zerolog.Nop())

	n, err := w.CleanStale(dest, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)

	require.NoError(t, os.Chtimes(fresh, old, old))
	require.NoError(t, w.Write(context.Background(), htmlReport("x"), dest))
	assert.NoFileExists(t, fresh, "Write should clean stale temporaries first")
}

func TestWriteError(t *testing.T) {
	err := &WriteError{Path: "/var/www/status.html", Op: "rename", Err: os.ErrPermission}

	assert.Contains(t, err.Error(), "/var/www/status.html")
	assert.Contains(t, err.Error(), "rename")
	assert.ErrorIs(t, err, os.ErrPermission)
}

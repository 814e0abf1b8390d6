package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/desertwitch/tablefs/internal/table"
	"github.com/spf13/afero"
)

const (
	// tmpSuffix is appended to the target path while a snapshot is written.
	tmpSuffix = ".tmp"

	snapshotPerms = 0o600
)

// Save writes a snapshot of the [table.Table] to target on the given
// [afero.Fs]. The snapshot is written to an exclusively created temporary file
// first, which replaces target only once it was written and synced in full.
// On failure the temporary file is removed and target is left untouched.
func Save(fsys afero.Fs, target string, t *table.Table) (int64, error) {
	tmpPath := target + tmpSuffix

	if _, err := fsys.Stat(tmpPath); err == nil {
		slog.Warn("Removing stale temporary snapshot file", "path", tmpPath)

		if err := fsys.Remove(tmpPath); err != nil {
			return 0, fmt.Errorf("(snapshot-save) failed to remove stale %s: %w", tmpPath, err)
		}
	}

	f, err := fsys.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, snapshotPerms)
	if err != nil {
		return 0, fmt.Errorf("(snapshot-save) failed to open %s: %w", tmpPath, err)
	}

	var closed, complete bool
	defer func() {
		if !closed {
			f.Close() //nolint:errcheck
		}
		if !complete {
			fsys.Remove(tmpPath) //nolint:errcheck
		}
	}()

	w := &countingWriter{w: bufio.NewWriter(f)}

	if err := Encode(w, t); err != nil {
		return 0, fmt.Errorf("(snapshot-save) %w", err)
	}

	if err := w.w.Flush(); err != nil {
		return 0, fmt.Errorf("(snapshot-save) failed to flush: %w", err)
	}

	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("(snapshot-save) failed to sync: %w", err)
	}

	closed = true
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("(snapshot-save) failed to close: %w", err)
	}

	if err := fsys.Rename(tmpPath, target); err != nil {
		return 0, fmt.Errorf("(snapshot-save) failed to rename %s to %s: %w", tmpPath, target, err)
	}

	complete = true

	return w.n, nil
}

// Load reads the snapshot stored at source on the given [afero.Fs].
func Load(fsys afero.Fs, source string) (*table.Table, error) {
	f, err := fsys.Open(source)
	if err != nil {
		return nil, fmt.Errorf("(snapshot-load) failed to open %s: %w", source, err)
	}
	defer f.Close()

	t, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("(snapshot-load) %s: %w", source, err)
	}

	return t, nil
}

// Exists reports whether a snapshot file is present at path.
func Exists(fsys afero.Fs, path string) (bool, error) {
	if _, err := fsys.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("(snapshot-exists) %w", err)
	}

	return true, nil
}

type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)

	return n, err //nolint:wrapcheck
}

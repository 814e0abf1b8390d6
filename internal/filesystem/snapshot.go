package filesystem

import (
	"fmt"
	"log/slog"

	"github.com/desertwitch/tablefs/internal/schema"
	"github.com/desertwitch/tablefs/internal/snapshot"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// SaveSnapshot writes the whole table to path and returns the amount of bytes
// written. The table is left untouched whether or not saving succeeds.
func (h *Handler) SaveSnapshot(fsys afero.Fs, path string) (int64, error) {
	n, err := snapshot.Save(fsys, path, h.table)
	if err != nil {
		return 0, fmt.Errorf("(fs-save) %w: %w", ErrIO, err)
	}

	slog.Debug("Saved snapshot",
		"path", path,
		"size", humanize.IBytes(uint64(n)),
		"inodes", h.table.Used(),
	)

	return n, nil
}

// LoadSnapshot replaces the table with the one stored at path. The current
// table is kept if the snapshot cannot be loaded. The limits recorded in the
// snapshot take precedence over those of the current table.
func (h *Handler) LoadSnapshot(fsys afero.Fs, path string) error {
	tbl, err := snapshot.Load(fsys, path)
	if err != nil {
		return fmt.Errorf("(fs-load) %w: %w", ErrIO, err)
	}

	if tbl.Limits() != h.table.Limits() {
		slog.Warn("Snapshot limits differ from configured limits, using snapshot limits",
			"path", path,
			"snapshot", tbl.Limits(),
			"configured", h.table.Limits(),
		)
	}

	h.table = tbl

	slog.Debug("Loaded snapshot", "path", path, "inodes", tbl.Used())

	return nil
}

// Restore loads the table from the snapshot at path. When there is no usable
// snapshot the table is reset to a root directory owned by owner and saved to
// path right away.
func (h *Handler) Restore(fsys afero.Fs, path string, owner schema.Caller) error {
	exists, err := snapshot.Exists(fsys, path)
	if err != nil {
		slog.Warn("Failed to check for snapshot", "path", path, "err", err)
	}

	if exists {
		err := h.LoadSnapshot(fsys, path)
		if err == nil {
			return nil
		}

		slog.Warn("Failed to load snapshot, starting with an empty filesystem", "path", path, "err", err)
	} else {
		slog.Info("No snapshot found, starting with an empty filesystem", "path", path)
	}

	if err := h.Reset(owner); err != nil {
		return fmt.Errorf("(fs-restore) %w", err)
	}

	if _, err := h.SaveSnapshot(fsys, path); err != nil {
		return fmt.Errorf("(fs-restore) %w", err)
	}

	return nil
}

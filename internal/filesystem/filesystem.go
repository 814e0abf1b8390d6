// Package filesystem implements the filesystem engine on top of the fixed
// inode table. A [Handler] resolves paths, creates and removes entries, moves
// bytes in and out of file content, applies the ownership and permission
// rules and saves or restores its table as a snapshot.
//
// The engine is single threaded. A [Handler] performs no locking and expects
// its caller to serialize every call.
package filesystem

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertwitch/tablefs/internal/pathing"
	"github.com/desertwitch/tablefs/internal/schema"
	"github.com/desertwitch/tablefs/internal/table"
)

// Stats is a point-in-time view of the usage of a [Handler]'s table.
type Stats struct {
	Used     int
	Capacity int
	Bytes    uint64
	Limits   schema.Limits
}

// Handler is the filesystem engine, owning exactly one [table.Table].
type Handler struct {
	table *table.Table
	now   func() time.Time
}

// NewHandler returns a pointer to a new [Handler] with a table of the given
// limits, holding only a root directory owned by owner.
func NewHandler(limits schema.Limits, owner schema.Caller) (*Handler, error) {
	tbl, err := newRootTable(limits, owner, time.Now())
	if err != nil {
		return nil, fmt.Errorf("(fs-new) %w", err)
	}

	return &Handler{
		table: tbl,
		now:   time.Now,
	}, nil
}

// SetClock replaces the time source used for all timestamps.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

// Reset replaces the table with an empty one of the same limits, holding
// only a root directory owned by owner.
func (h *Handler) Reset(owner schema.Caller) error {
	tbl, err := newRootTable(h.table.Limits(), owner, h.now())
	if err != nil {
		return fmt.Errorf("(fs-reset) %w", err)
	}

	h.table = tbl

	return nil
}

// Limits returns the limits of the current table.
func (h *Handler) Limits() schema.Limits {
	return h.table.Limits()
}

// Stats returns the current usage of the table.
func (h *Handler) Stats() Stats {
	return Stats{
		Used:     h.table.Used(),
		Capacity: h.table.Capacity(),
		Bytes:    h.table.Bytes(),
		Limits:   h.table.Limits(),
	}
}

// Lookup resolves a path to the slot of its entry.
func (h *Handler) Lookup(path string) (int, error) {
	slot, _, err := h.resolve(path)
	if err != nil {
		return -1, fmt.Errorf("(fs-lookup) %w", err)
	}

	return slot, nil
}

// GetMetadata returns the [schema.Metadata] of the entry at path.
func (h *Handler) GetMetadata(path string) (schema.Metadata, error) {
	slot, inode, err := h.resolve(path)
	if err != nil {
		return schema.Metadata{}, fmt.Errorf("(fs-getattr) %w", err)
	}

	return inode.Metadata(slot), nil
}

// ListChildren returns the [schema.Metadata] of all direct children of the
// directory at path, in slot order.
func (h *Handler) ListChildren(caller schema.Caller, path string) ([]schema.Metadata, error) {
	_, dir, err := h.resolve(path)
	if err != nil {
		return nil, fmt.Errorf("(fs-readdir) %w", err)
	}

	if !dir.IsDir() {
		return nil, fmt.Errorf("(fs-readdir) %w: %s", ErrNotDirectory, path)
	}

	if !canRead(caller, dir) {
		return nil, fmt.Errorf("(fs-readdir) %w: %s", ErrPermission, path)
	}

	slots := h.table.Children(dir.Path)
	children := make([]schema.Metadata, 0, len(slots))

	for _, slot := range slots {
		child, err := h.table.Get(slot)
		if err != nil {
			return nil, fmt.Errorf("(fs-readdir) %w", err)
		}

		children = append(children, child.Metadata(slot))
	}

	return children, nil
}

// resolve returns the slot and the inode of the entry at path.
func (h *Handler) resolve(path string) (int, *schema.Inode, error) {
	if path == schema.RootPath {
		return h.get(schema.RootSlot)
	}

	if !strings.HasPrefix(path, pathing.Separator) {
		return -1, nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}

	name, parent := pathing.Split(path)

	slot, ok := h.table.Find(name, parent)
	if !ok {
		return -1, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	return h.get(slot)
}

// parentOf returns the slot and the inode of the directory holding inode.
func (h *Handler) parentOf(inode *schema.Inode) (int, *schema.Inode, error) {
	return h.resolve(inode.Parent)
}

func (h *Handler) get(slot int) (int, *schema.Inode, error) {
	inode, err := h.table.Get(slot)
	if err != nil {
		return -1, nil, err //nolint:wrapcheck
	}

	return slot, inode, nil
}

func newRootTable(limits schema.Limits, owner schema.Caller, now time.Time) (*table.Table, error) {
	tbl, err := table.New(limits)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if err := tbl.Install(schema.RootSlot, schema.NewRoot(owner, now)); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return tbl, nil
}

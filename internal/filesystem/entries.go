package filesystem

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/desertwitch/tablefs/internal/pathing"
	"github.com/desertwitch/tablefs/internal/schema"
)

// Mkdir creates an empty directory at path, owned by the caller. Paths deeper
// than the maximum depth are refused before anything else is looked at.
func (h *Handler) Mkdir(caller schema.Caller, path string, mode uint32) (int, error) {
	if err := h.validate(path); err != nil {
		return -1, fmt.Errorf("(fs-mkdir) %w", err)
	}

	if depth, maxDepth := pathing.Depth(path), h.table.Limits().MaxDepth; depth > maxDepth {
		return -1, fmt.Errorf("(fs-mkdir) %w: %s at depth %d > %d", ErrTooDeep, path, depth, maxDepth)
	}

	slot, err := h.createEntry(caller, path, mode, schema.KindDirectory)
	if err != nil {
		return -1, fmt.Errorf("(fs-mkdir) %w", err)
	}

	return slot, nil
}

// Create creates an empty file at path, owned by the caller.
func (h *Handler) Create(caller schema.Caller, path string, mode uint32) (int, error) {
	if err := h.validate(path); err != nil {
		return -1, fmt.Errorf("(fs-create) %w", err)
	}

	slot, err := h.createEntry(caller, path, mode, schema.KindFile)
	if err != nil {
		return -1, fmt.Errorf("(fs-create) %w", err)
	}

	return slot, nil
}

// Rmdir removes the empty directory at path. The root directory is never
// removed.
func (h *Handler) Rmdir(path string) error {
	slot, dir, err := h.resolve(path)
	if err != nil {
		return fmt.Errorf("(fs-rmdir) %w", err)
	}

	if !dir.IsDir() {
		return fmt.Errorf("(fs-rmdir) %w: %s", ErrNotDirectory, path)
	}

	if dir.Nlink > schema.MinDirLinks {
		return fmt.Errorf("(fs-rmdir) %w: %s", ErrNotEmpty, path)
	}

	if dir.IsRoot() {
		return fmt.Errorf("(fs-rmdir) %w: %s", ErrProtected, path)
	}

	if err := h.removeEntry(slot, dir); err != nil {
		return fmt.Errorf("(fs-rmdir) %w", err)
	}

	return nil
}

// Unlink removes the file at path. Only its owner or the superuser may do so.
func (h *Handler) Unlink(caller schema.Caller, path string) error {
	slot, file, err := h.resolve(path)
	if err != nil {
		return fmt.Errorf("(fs-unlink) %w", err)
	}

	if file.IsDir() {
		return fmt.Errorf("(fs-unlink) %w: %s", ErrIsDirectory, path)
	}

	if !isOwnerOrSuperUser(caller, file) {
		return fmt.Errorf("(fs-unlink) %w: %s", ErrPermission, path)
	}

	if err := h.removeEntry(slot, file); err != nil {
		return fmt.Errorf("(fs-unlink) %w", err)
	}

	return nil
}

// Remove removes the entry at path, as a directory or as a file depending on
// its type.
func (h *Handler) Remove(caller schema.Caller, path string) error {
	_, inode, err := h.resolve(path)
	if err != nil {
		return fmt.Errorf("(fs-remove) %w", err)
	}

	if inode.IsDir() {
		return h.Rmdir(path)
	}

	return h.Unlink(caller, path)
}

func (h *Handler) validate(path string) error {
	if err := pathing.Validate(path, h.table.Limits().MaxPathLen); err != nil {
		if errors.Is(err, pathing.ErrRelativePath) {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}

		return err //nolint:wrapcheck
	}

	return nil
}

func (h *Handler) createEntry(caller schema.Caller, path string, mode uint32, kind schema.Kind) (int, error) {
	if _, _, err := h.resolve(path); err == nil {
		return -1, fmt.Errorf("%w: %s", ErrExists, path)
	}

	if h.table.Full() {
		return -1, fmt.Errorf("%w: cannot create %s", ErrNoSpace, path)
	}

	name, parent := pathing.Split(path)
	if name == "" || strings.Contains(name, pathing.Separator) {
		return -1, fmt.Errorf("%w: invalid name in %q", ErrNotFound, path)
	}

	parentSlot, dir, err := h.resolve(parent)
	if err != nil {
		return -1, fmt.Errorf("parent: %w", err)
	}

	if !dir.IsDir() {
		return -1, fmt.Errorf("%w: parent %s", ErrNotDirectory, parent)
	}

	slog.Debug("Creating entry",
		"path", path,
		"kind", kind,
		"requested", fmt.Sprintf("%#o", mode),
		"uid", caller.UID,
		"gid", caller.GID,
	)

	slot, err := h.table.Insert(schema.NewInode(name, path, parent, kind, caller, h.now()))
	if err != nil {
		return -1, err //nolint:wrapcheck
	}

	if err := h.table.AdjustLinks(parentSlot, 1); err != nil {
		return -1, err //nolint:wrapcheck
	}

	return slot, nil
}

func (h *Handler) removeEntry(slot int, inode *schema.Inode) error {
	parentSlot, _, err := h.parentOf(inode)
	if err != nil {
		return fmt.Errorf("parent: %w", err)
	}

	path := inode.Path

	if err := h.table.Free(slot); err != nil {
		return err //nolint:wrapcheck
	}

	if err := h.table.AdjustLinks(parentSlot, -1); err != nil {
		return err //nolint:wrapcheck
	}

	slog.Debug("Removed entry", "path", path, "slot", slot)

	return nil
}

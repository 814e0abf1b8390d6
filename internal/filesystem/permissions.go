package filesystem

import (
	"fmt"

	"github.com/desertwitch/tablefs/internal/schema"
)

const (
	ownerRead = 0o400
	groupRead = 0o040
	otherRead = 0o004
)

// SetMode replaces the permission bits of the entry at path, keeping its type
// bits. Only the owner of the entry or the superuser may do so.
func (h *Handler) SetMode(caller schema.Caller, path string, mode uint32) error {
	_, inode, err := h.resolve(path)
	if err != nil {
		return fmt.Errorf("(fs-chmod) %w", err)
	}

	if !isOwnerOrSuperUser(caller, inode) {
		return fmt.Errorf("(fs-chmod) %w: %s", ErrNotPermitted, path)
	}

	inode.Mode = (inode.Mode &^ schema.PermBits) | (mode & schema.PermBits)
	inode.ModifiedAt = h.now()

	return nil
}

// SetOwner changes the owning user and group of the entry at path. Either is
// kept when passed as [schema.NoChange]. Only the superuser may do so.
func (h *Handler) SetOwner(caller schema.Caller, path string, uid, gid uint32) error {
	_, inode, err := h.resolve(path)
	if err != nil {
		return fmt.Errorf("(fs-chown) %w", err)
	}

	if !caller.IsSuperUser() {
		return fmt.Errorf("(fs-chown) %w: %s", ErrNotPermitted, path)
	}

	if uid != schema.NoChange {
		inode.UID = uid
	}

	if gid != schema.NoChange {
		inode.GID = gid
	}

	inode.ModifiedAt = h.now()

	return nil
}

func canRead(caller schema.Caller, inode *schema.Inode) bool {
	switch {
	case caller.IsSuperUser():
		return true
	case caller.UID == inode.UID:
		return inode.Mode&ownerRead != 0
	case caller.GID == inode.GID:
		return inode.Mode&groupRead != 0
	default:
		return inode.Mode&otherRead != 0
	}
}

func isOwnerOrSuperUser(caller schema.Caller, inode *schema.Inode) bool {
	return caller.IsSuperUser() || caller.UID == inode.UID
}

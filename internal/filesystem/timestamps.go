package filesystem

import (
	"fmt"
	"time"
)

// Times are explicit access and modification timestamps for [Handler.SetTimes].
type Times struct {
	AccessedAt time.Time
	ModifiedAt time.Time
}

// SetTimes sets the access and modification timestamps of the entry at path.
// With nil times both are set to the current time, otherwise they are taken
// as given.
func (h *Handler) SetTimes(path string, times *Times) error {
	_, inode, err := h.resolve(path)
	if err != nil {
		return fmt.Errorf("(fs-utimens) %w", err)
	}

	if times == nil {
		now := h.now()
		inode.AccessedAt = now
		inode.ModifiedAt = now

		return nil
	}

	inode.AccessedAt = times.AccessedAt
	inode.ModifiedAt = times.ModifiedAt

	return nil
}

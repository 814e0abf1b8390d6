package table

import "errors"

var (
	// ErrNoSpace occurs when every slot of a [Table] is in use.
	ErrNoSpace = errors.New("inode table is full")

	// ErrDuplicate occurs when an inode with the same name and parent path is
	// already installed in a [Table].
	ErrDuplicate = errors.New("entry with same name and parent already installed")

	// ErrSlotRange occurs when a slot index lies outside of a [Table].
	ErrSlotRange = errors.New("slot out of range")

	// ErrSlotFree occurs when a slot is accessed that holds no inode.
	ErrSlotFree = errors.New("slot is free")

	// ErrSlotUsed occurs when an inode is installed into an occupied slot.
	ErrSlotUsed = errors.New("slot is in use")

	// ErrRootSlot occurs when the reserved root slot would be freed.
	ErrRootSlot = errors.New("root slot cannot be freed")
)

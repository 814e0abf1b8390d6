package table

import (
	"fmt"

	"github.com/desertwitch/tablefs/internal/schema"
)

// FindFreeSlot returns the first free slot of the [Table].
func (t *Table) FindFreeSlot() (int, error) {
	for i, used := range t.bitmap {
		if !used {
			return i, nil
		}
	}

	return -1, ErrNoSpace
}

// Insert installs an inode into the first free slot and returns that slot. It
// fails if an inode with the same name and parent path is already installed.
func (t *Table) Insert(inode schema.Inode) (int, error) {
	if _, exists := t.Find(inode.Name, inode.Parent); exists {
		return -1, fmt.Errorf("(table-insert) %w: %s", ErrDuplicate, inode.Path)
	}

	slot, err := t.FindFreeSlot()
	if err != nil {
		return -1, fmt.Errorf("(table-insert) %w", err)
	}

	t.place(slot, inode)

	return slot, nil
}

// InsertOrLink installs an inode like [Table.Insert], unless an inode with the
// same name and parent path is already installed. In that case the existing
// inode's link count is incremented instead, its slot is returned and linked
// is true. No new slot is consumed for a link.
func (t *Table) InsertOrLink(inode schema.Inode) (slot int, linked bool, err error) {
	if existing, exists := t.Find(inode.Name, inode.Parent); exists {
		t.slots[existing].Nlink++

		return existing, true, nil
	}

	slot, err = t.Insert(inode)

	return slot, false, err
}

// Install places an inode into a specific free slot. It is meant for building
// a [Table] from a known layout, such as the root slot or a snapshot.
func (t *Table) Install(slot int, inode schema.Inode) error {
	if slot < 0 || slot >= len(t.slots) {
		return fmt.Errorf("(table-install) %w: %d", ErrSlotRange, slot)
	}

	if t.bitmap[slot] {
		return fmt.Errorf("(table-install) %w: %d", ErrSlotUsed, slot)
	}

	if _, exists := t.Find(inode.Name, inode.Parent); exists {
		return fmt.Errorf("(table-install) %w: %s", ErrDuplicate, inode.Path)
	}

	t.place(slot, inode)

	return nil
}

// Free releases a slot and clears its inode. The root slot cannot be freed.
func (t *Table) Free(slot int) error {
	if slot == schema.RootSlot {
		return fmt.Errorf("(table-free) %w", ErrRootSlot)
	}

	inode, err := t.Get(slot)
	if err != nil {
		return fmt.Errorf("(table-free) %w", err)
	}

	delete(t.index, entryKey{parent: inode.Parent, name: inode.Name})

	t.slots[slot] = schema.Inode{}
	t.bitmap[slot] = false
	t.used--

	return nil
}

// AdjustLinks changes the link count of the inode in a slot by delta. The
// link count never drops below zero.
func (t *Table) AdjustLinks(slot int, delta int) error {
	inode, err := t.Get(slot)
	if err != nil {
		return fmt.Errorf("(table-links) %w", err)
	}

	switch {
	case delta >= 0:
		inode.Nlink += uint32(delta)
	case uint32(-delta) > inode.Nlink:
		inode.Nlink = 0
	default:
		inode.Nlink -= uint32(-delta)
	}

	return nil
}

func (t *Table) place(slot int, inode schema.Inode) {
	t.slots[slot] = inode
	t.bitmap[slot] = true
	t.used++
	t.index[entryKey{parent: inode.Parent, name: inode.Name}] = slot
}

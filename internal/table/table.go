// Package table implements the fixed-capacity inode table of the filesystem.
//
// A [Table] is an arena of inode records with a parallel used/free bitmap. New
// entries always go into the first free slot, so a slot index is a stable
// handle for the lifetime of its entry. Next to the arena the table keeps an
// index keyed on (parent path, name), which answers lookups without scanning
// the arena while giving the same results a scan would.
//
// A [Table] performs no locking; its owner serializes access.
package table

import (
	"fmt"

	"github.com/desertwitch/tablefs/internal/schema"
)

type entryKey struct {
	parent string
	name   string
}

// Table is the fixed-capacity arena of inode records.
type Table struct {
	limits schema.Limits
	slots  []schema.Inode
	bitmap []bool
	used   int
	index  map[entryKey]int
}

// New returns a pointer to a new empty [Table] sized by the given limits.
func New(limits schema.Limits) (*Table, error) {
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("(table) %w", err)
	}

	return &Table{
		limits: limits,
		slots:  make([]schema.Inode, limits.MaxInodes),
		bitmap: make([]bool, limits.MaxInodes),
		index:  make(map[entryKey]int, limits.MaxInodes),
	}, nil
}

// Limits returns the fixed limits of the [Table].
func (t *Table) Limits() schema.Limits {
	return t.limits
}

// Capacity returns the amount of slots of the [Table].
func (t *Table) Capacity() int {
	return len(t.slots)
}

// Used returns the amount of slots currently holding an inode.
func (t *Table) Used() int {
	return t.used
}

// Full reports whether every slot of the [Table] is in use.
func (t *Table) Full() bool {
	return t.used >= len(t.slots)
}

// IsUsed reports whether a slot holds an inode.
func (t *Table) IsUsed(slot int) bool {
	return slot >= 0 && slot < len(t.bitmap) && t.bitmap[slot]
}

// Bitmap returns a copy of the used/free bitmap.
func (t *Table) Bitmap() []bool {
	return append([]bool(nil), t.bitmap...)
}

// Get returns the inode stored in a slot. The returned pointer refers into
// the [Table] and stays valid until the slot is freed.
func (t *Table) Get(slot int) (*schema.Inode, error) {
	if slot < 0 || slot >= len(t.slots) {
		return nil, fmt.Errorf("(table-get) %w: %d", ErrSlotRange, slot)
	}

	if !t.bitmap[slot] {
		return nil, fmt.Errorf("(table-get) %w: %d", ErrSlotFree, slot)
	}

	return &t.slots[slot], nil
}

// Find returns the slot of the inode with the given name and parent path.
func (t *Table) Find(name, parent string) (int, bool) {
	slot, ok := t.index[entryKey{parent: parent, name: name}]

	return slot, ok
}

// Slots returns all used slots in ascending order.
func (t *Table) Slots() []int {
	slots := make([]int, 0, t.used)

	for i, used := range t.bitmap {
		if used {
			slots = append(slots, i)
		}
	}

	return slots
}

// Each calls fn for every used slot in ascending order until fn returns
// false.
func (t *Table) Each(fn func(slot int, inode *schema.Inode) bool) {
	for i, used := range t.bitmap {
		if used && !fn(i, &t.slots[i]) {
			return
		}
	}
}

// Children returns the used slots whose parent path is the given path, in
// ascending order.
func (t *Table) Children(parent string) []int {
	var slots []int

	for i, used := range t.bitmap {
		if used && t.slots[i].Parent == parent {
			slots = append(slots, i)
		}
	}

	return slots
}

// Bytes returns the total content size of all inodes in the [Table].
func (t *Table) Bytes() uint64 {
	var total uint64

	t.Each(func(_ int, inode *schema.Inode) bool {
		total += inode.Size()

		return true
	})

	return total
}

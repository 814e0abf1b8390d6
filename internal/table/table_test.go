package table

import (
	"testing"
	"time"

	"github.com/desertwitch/tablefs/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, capacity int) *Table {
	t.Helper()

	limits := schema.DefaultLimits()
	limits.MaxInodes = capacity

	tbl, err := New(limits)
	require.NoError(t, err)
	require.NoError(t, tbl.Install(schema.RootSlot, schema.NewRoot(schema.Caller{}, time.Now())))

	return tbl
}

func newFile(path, name, parent string) schema.Inode {
	return schema.NewInode(name, path, parent, schema.KindFile, schema.Caller{UID: 1000}, time.Now())
}

// TestNew_InvalidLimits verifies that a table cannot be built without slots.
func TestNew_InvalidLimits(t *testing.T) {
	t.Parallel()

	limits := schema.DefaultLimits()
	limits.MaxInodes = 0

	_, err := New(limits)
	require.ErrorIs(t, err, schema.ErrInvalidLimits)
}

// TestInsert_FirstFreeSlot verifies that inserts fill the lowest free slot,
// including slots freed before.
func TestInsert_FirstFreeSlot(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 4)

	a, err := tbl.Insert(newFile("/a", "a", "/"))
	require.NoError(t, err)
	assert.Equal(t, 1, a)

	b, err := tbl.Insert(newFile("/b", "b", "/"))
	require.NoError(t, err)
	assert.Equal(t, 2, b)

	require.NoError(t, tbl.Free(a))
	assert.Equal(t, 2, tbl.Used())

	c, err := tbl.Insert(newFile("/c", "c", "/"))
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	assert.Equal(t, []bool{true, true, true, false}, tbl.Bitmap())
}

// TestInsert_Full verifies that a full table rejects inserts.
func TestInsert_Full(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 2)

	_, err := tbl.Insert(newFile("/a", "a", "/"))
	require.NoError(t, err)
	assert.True(t, tbl.Full())

	_, err = tbl.FindFreeSlot()
	require.ErrorIs(t, err, ErrNoSpace)

	_, err = tbl.Insert(newFile("/b", "b", "/"))
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, 2, tbl.Used())
}

// TestInsert_Duplicate verifies that strict inserts never coalesce.
func TestInsert_Duplicate(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 4)

	_, err := tbl.Insert(newFile("/a", "a", "/"))
	require.NoError(t, err)

	_, err = tbl.Insert(newFile("/a", "a", "/"))
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 2, tbl.Used())
}

// TestInsertOrLink verifies that a duplicate bumps the existing link count
// without consuming a slot.
func TestInsertOrLink(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 4)

	slot, linked, err := tbl.InsertOrLink(newFile("/a", "a", "/"))
	require.NoError(t, err)
	assert.False(t, linked)

	again, linked, err := tbl.InsertOrLink(newFile("/a", "a", "/"))
	require.NoError(t, err)
	assert.True(t, linked)
	assert.Equal(t, slot, again)
	assert.Equal(t, 2, tbl.Used())

	inode, err := tbl.Get(slot)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), inode.Nlink)
}

// TestInstall verifies slot-exact installation and its failure modes.
func TestInstall(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 4)

	require.NoError(t, tbl.Install(3, newFile("/c", "c", "/")))
	require.ErrorIs(t, tbl.Install(3, newFile("/d", "d", "/")), ErrSlotUsed)
	require.ErrorIs(t, tbl.Install(4, newFile("/d", "d", "/")), ErrSlotRange)
	require.ErrorIs(t, tbl.Install(-1, newFile("/d", "d", "/")), ErrSlotRange)
	require.ErrorIs(t, tbl.Install(2, newFile("/c", "c", "/")), ErrDuplicate)

	slot, ok := tbl.Find("c", "/")
	assert.True(t, ok)
	assert.Equal(t, 3, slot)
}

// TestFree verifies freeing and its failure modes.
func TestFree(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 4)

	slot, err := tbl.Insert(newFile("/a", "a", "/"))
	require.NoError(t, err)

	require.ErrorIs(t, tbl.Free(schema.RootSlot), ErrRootSlot)
	require.NoError(t, tbl.Free(slot))
	require.ErrorIs(t, tbl.Free(slot), ErrSlotFree)

	_, ok := tbl.Find("a", "/")
	assert.False(t, ok)

	_, err = tbl.Get(slot)
	require.ErrorIs(t, err, ErrSlotFree)
	assert.Equal(t, 1, tbl.Used())
}

// TestAdjustLinks verifies that link counts are floored at zero.
func TestAdjustLinks(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 2)

	require.NoError(t, tbl.AdjustLinks(schema.RootSlot, 1))
	root, err := tbl.Get(schema.RootSlot)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), root.Nlink)

	require.NoError(t, tbl.AdjustLinks(schema.RootSlot, -5))
	assert.Equal(t, uint32(0), root.Nlink)

	require.ErrorIs(t, tbl.AdjustLinks(1, 1), ErrSlotFree)
}

// TestChildren verifies listing of direct children in slot order.
func TestChildren(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 8)

	dir := schema.NewInode("d", "/d", "/", schema.KindDirectory, schema.Caller{}, time.Now())
	_, err := tbl.Insert(dir)
	require.NoError(t, err)

	_, err = tbl.Insert(newFile("/d/x", "x", "/d"))
	require.NoError(t, err)
	_, err = tbl.Insert(newFile("/y", "y", "/"))
	require.NoError(t, err)
	_, err = tbl.Insert(newFile("/d/z", "z", "/d"))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, tbl.Children("/"))
	assert.Equal(t, []int{2, 4}, tbl.Children("/d"))
	assert.Empty(t, tbl.Children("/nothing"))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, tbl.Slots())
}

// TestBytes verifies the total content size.
func TestBytes(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 4)

	f := newFile("/a", "a", "/")
	f.Data = make([]byte, 10)
	_, err := tbl.Insert(f)
	require.NoError(t, err)

	g := newFile("/b", "b", "/")
	g.Data = make([]byte, 5)
	_, err = tbl.Insert(g)
	require.NoError(t, err)

	assert.Equal(t, uint64(15), tbl.Bytes())
}

// TestEach verifies that iteration visits used slots in order and stops early.
func TestEach(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 5)

	for _, name := range []string{"a", "b", "c"} {
		_, err := tbl.Insert(newFile("/"+name, name, "/"))
		require.NoError(t, err)
	}
	require.NoError(t, tbl.Free(2))

	var visited []int
	tbl.Each(func(slot int, _ *schema.Inode) bool {
		visited = append(visited, slot)

		return true
	})
	assert.Equal(t, []int{0, 1, 3}, visited)

	visited = nil
	tbl.Each(func(slot int, _ *schema.Inode) bool {
		visited = append(visited, slot)

		return slot < 1
	})
	assert.Equal(t, []int{0, 1}, visited)
}

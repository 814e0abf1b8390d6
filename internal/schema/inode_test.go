package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// TestNewInode_Defaults verifies the default mode and link count per kind.
func TestNewInode_Defaults(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	owner := Caller{UID: 1000, GID: 100}

	file := NewInode("b.txt", "/a/b.txt", "/a", KindFile, owner, now)
	assert.Equal(t, uint32(unix.S_IFREG|0o644), file.Mode)
	assert.Equal(t, uint32(MinFileLinks), file.Nlink)
	assert.Equal(t, uint32(1000), file.UID)
	assert.Equal(t, uint32(100), file.GID)
	assert.Equal(t, now, file.AccessedAt)
	assert.Equal(t, now, file.ModifiedAt)
	assert.Equal(t, now, file.CreatedAt)
	assert.Zero(t, file.Size())
	assert.False(t, file.IsDir())

	dir := NewInode("a", "/a", "/", KindDirectory, owner, now)
	assert.Equal(t, uint32(unix.S_IFDIR|0o755), dir.Mode)
	assert.Equal(t, uint32(MinDirLinks), dir.Nlink)
	assert.True(t, dir.IsDir())
	assert.False(t, dir.IsRoot())

	root := NewRoot(owner, now)
	assert.True(t, root.IsRoot())
	assert.Equal(t, RootParent, root.Parent)
}

// TestInode_Clone verifies that a clone does not share content.
func TestInode_Clone(t *testing.T) {
	t.Parallel()

	orig := NewInode("f", "/f", "/", KindFile, Caller{}, time.Now())
	orig.Data = []byte("hello")

	c := orig.Clone()
	c.Data[0] = 'j'

	assert.Equal(t, "hello", string(orig.Data))
	assert.Equal(t, "jello", string(c.Data))
}

// TestInode_Metadata verifies the metadata view of an inode.
func TestInode_Metadata(t *testing.T) {
	t.Parallel()

	inode := NewInode("f", "/f", "/", KindFile, Caller{UID: 5, GID: 6}, time.Now())
	inode.Data = []byte("abc")

	md := inode.Metadata(7)
	assert.Equal(t, 7, md.Slot)
	assert.Equal(t, uint64(3), md.Size)
	assert.Equal(t, uint32(0o644), md.Perms())
	assert.False(t, md.IsDir())
}

// TestLimits_Validate verifies the validation of table limits.
func TestLimits_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(l *Limits)
		wantErr bool
	}{
		{"Success_Defaults", func(_ *Limits) {}, false},
		{"Success_OnlyRoot", func(l *Limits) { l.MaxInodes = 1 }, false},
		{"Success_NoContent", func(l *Limits) { l.MaxFileSize = 0 }, false},
		{"Fail_NoInodes", func(l *Limits) { l.MaxInodes = 0 }, true},
		{"Fail_NegativeFileSize", func(l *Limits) { l.MaxFileSize = -1 }, true},
		{"Fail_NegativeDepth", func(l *Limits) { l.MaxDepth = -1 }, true},
		{"Fail_NoPathLen", func(l *Limits) { l.MaxPathLen = 0 }, true},
		{"Success_UpperBounds", func(l *Limits) {
			l.MaxInodes, l.MaxFileSize, l.MaxPathLen = UpperMaxInodes, UpperMaxFileSize, UpperMaxPathLen
		}, false},
		{"Fail_TooManyInodes", func(l *Limits) { l.MaxInodes = UpperMaxInodes + 1 }, true},
		{"Fail_FileSizeTooLarge", func(l *Limits) { l.MaxFileSize = UpperMaxFileSize + 1 }, true},
		{"Fail_PathLenTooLong", func(l *Limits) { l.MaxPathLen = UpperMaxPathLen + 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := DefaultLimits()
			tt.modify(&l)

			err := l.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLimits)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

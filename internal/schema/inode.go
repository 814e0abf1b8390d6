package schema

import (
	"time"

	"golang.org/x/sys/unix"
)

// Kind is the type tag of an [Inode].
type Kind uint8

const (
	// KindFile is a regular file holding content.
	KindFile Kind = iota

	// KindDirectory is a directory holding other entries.
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Valid reports whether the [Kind] is one of the known type tags.
func (k Kind) Valid() bool {
	return k == KindFile || k == KindDirectory
}

// Inode is the record describing one filesystem entry, its content and its
// metadata. The content length is the size of the entry; every byte of it was
// either written or is zero.
type Inode struct {
	Name       string
	Path       string
	Parent     string
	Kind       Kind
	Mode       uint32
	UID        uint32
	GID        uint32
	Nlink      uint32
	Data       []byte
	AccessedAt time.Time
	ModifiedAt time.Time
	CreatedAt  time.Time
}

// NewInode returns a new [Inode] owned by the [Caller], with the default mode
// and link count of its [Kind] and all timestamps set to now.
func NewInode(name, path, parent string, kind Kind, owner Caller, now time.Time) Inode {
	inode := Inode{
		Name:       name,
		Path:       path,
		Parent:     parent,
		Kind:       kind,
		UID:        owner.UID,
		GID:        owner.GID,
		AccessedAt: now,
		ModifiedAt: now,
		CreatedAt:  now,
	}

	if kind == KindDirectory {
		inode.Mode = unix.S_IFDIR | DefaultDirPerms
		inode.Nlink = MinDirLinks
	} else {
		inode.Mode = unix.S_IFREG | DefaultFilePerms
		inode.Nlink = MinFileLinks
	}

	return inode
}

// NewRoot returns the [Inode] of a root directory owned by the [Caller].
func NewRoot(owner Caller, now time.Time) Inode {
	return NewInode(RootPath, RootPath, RootParent, KindDirectory, owner, now)
}

// Size returns the content size of the [Inode] in bytes.
func (i *Inode) Size() uint64 {
	return uint64(len(i.Data))
}

// IsDir reports whether the [Inode] is a directory.
func (i *Inode) IsDir() bool {
	return i.Kind == KindDirectory
}

// IsRoot reports whether the [Inode] is the root directory.
func (i *Inode) IsRoot() bool {
	return i.Path == RootPath && i.Parent == RootParent
}

// Metadata returns the [Metadata] of the [Inode] stored at the given slot.
func (i *Inode) Metadata(slot int) Metadata {
	return Metadata{
		Slot:       slot,
		Name:       i.Name,
		Path:       i.Path,
		Parent:     i.Parent,
		Kind:       i.Kind,
		Mode:       i.Mode,
		UID:        i.UID,
		GID:        i.GID,
		Size:       i.Size(),
		Nlink:      i.Nlink,
		AccessedAt: i.AccessedAt,
		ModifiedAt: i.ModifiedAt,
		CreatedAt:  i.CreatedAt,
	}
}

// Clone returns a deep copy of the [Inode], not sharing its content.
func (i *Inode) Clone() Inode {
	c := *i
	if i.Data != nil {
		c.Data = append([]byte(nil), i.Data...)
	}

	return c
}

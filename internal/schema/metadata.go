package schema

import "time"

// Metadata is a copy of an [Inode]'s attributes without its content, as
// handed out to callers of the filesystem engine.
type Metadata struct {
	Slot       int
	Name       string
	Path       string
	Parent     string
	Kind       Kind
	Mode       uint32
	UID        uint32
	GID        uint32
	Size       uint64
	Nlink      uint32
	AccessedAt time.Time
	ModifiedAt time.Time
	CreatedAt  time.Time
}

// IsDir reports whether the [Metadata] describes a directory.
func (m Metadata) IsDir() bool {
	return m.Kind == KindDirectory
}

// Perms returns the permission bits of the [Metadata]'s mode.
func (m Metadata) Perms() uint32 {
	return m.Mode & PermBits
}

// Package schema provides the principal records for all other packages. It
// defines the inode record kept in the table, the metadata view handed out to
// callers, the identity of a calling user and the fixed limits of a table. The
// package serves as a foundational layer for the table, the filesystem engine
// and the snapshot codec.
package schema

const (
	// RootSlot is the reserved table slot of the root directory.
	RootSlot = 0

	// RootPath is the path (and name) of the root directory.
	RootPath = "/"

	// RootParent is the parent path sentinel of the root directory.
	RootParent = ""

	// MinFileLinks is the link count of a freshly created file.
	MinFileLinks = 1

	// MinDirLinks is the link count of an empty directory.
	MinDirLinks = 2

	// SuperUser is the user id that bypasses ownership checks.
	SuperUser = 0

	// NoChange is the sentinel for an owner or group that should be kept.
	NoChange = ^uint32(0)

	// DefaultFilePerms are the permission bits of a new file.
	DefaultFilePerms = 0o644

	// DefaultDirPerms are the permission bits of a new directory.
	DefaultDirPerms = 0o755

	// PermBits masks the permission (and setuid, setgid, sticky) bits.
	PermBits = 0o7777
)

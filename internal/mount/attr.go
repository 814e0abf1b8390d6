package mount

import (
	"os"

	"bazil.org/fuse"
	"github.com/desertwitch/tablefs/internal/schema"
	"golang.org/x/sys/unix"
)

const blockSize = 512

// inodeOf returns the kernel inode number of a slot. FUSE reserves zero.
func inodeOf(slot int) uint64 {
	return uint64(slot) + 1
}

func callerOf(h fuse.Header) schema.Caller {
	return schema.Caller{UID: h.Uid, GID: h.Gid}
}

func fillAttr(meta schema.Metadata, a *fuse.Attr) {
	a.Inode = inodeOf(meta.Slot)
	a.Size = meta.Size
	a.Blocks = (meta.Size + blockSize - 1) / blockSize
	a.BlockSize = blockSize
	a.Atime = meta.AccessedAt
	a.Mtime = meta.ModifiedAt
	a.Ctime = meta.ModifiedAt
	a.Mode = toFileMode(meta.Mode)
	a.Nlink = meta.Nlink
	a.Uid = meta.UID
	a.Gid = meta.GID
}

func direntOf(meta schema.Metadata) fuse.Dirent {
	d := fuse.Dirent{
		Inode: inodeOf(meta.Slot),
		Name:  meta.Name,
		Type:  fuse.DT_File,
	}

	if meta.IsDir() {
		d.Type = fuse.DT_Dir
	}

	return d
}

// toFileMode converts a Unix mode into an [os.FileMode].
func toFileMode(mode uint32) os.FileMode {
	m := os.FileMode(mode & 0o777)

	if mode&unix.S_IFMT == unix.S_IFDIR {
		m |= os.ModeDir
	}

	if mode&unix.S_ISUID != 0 {
		m |= os.ModeSetuid
	}

	if mode&unix.S_ISGID != 0 {
		m |= os.ModeSetgid
	}

	if mode&unix.S_ISVTX != 0 {
		m |= os.ModeSticky
	}

	return m
}

// toUnixPerms converts the permission bits of an [os.FileMode] into Unix
// permission bits.
func toUnixPerms(mode os.FileMode) uint32 {
	perms := uint32(mode.Perm())

	if mode&os.ModeSetuid != 0 {
		perms |= unix.S_ISUID
	}

	if mode&os.ModeSetgid != 0 {
		perms |= unix.S_ISGID
	}

	if mode&os.ModeSticky != 0 {
		perms |= unix.S_ISVTX
	}

	return perms
}

package mount

import (
	"errors"

	"bazil.org/fuse"
	"github.com/desertwitch/tablefs/internal/filesystem"
	"golang.org/x/sys/unix"
)

// errnoMap is checked in order, so refined error kinds come before the kinds
// they refine.
//
//nolint:gochecknoglobals
var errnoMap = []struct {
	err   error
	errno unix.Errno
}{
	{filesystem.ErrNotFound, unix.ENOENT},
	{filesystem.ErrExists, unix.EEXIST},
	{filesystem.ErrNotDirectory, unix.ENOTDIR},
	{filesystem.ErrIsDirectory, unix.EISDIR},
	{filesystem.ErrNotPermitted, unix.EPERM},
	{filesystem.ErrPermission, unix.EACCES},
	{filesystem.ErrProtected, unix.EPERM},
	{filesystem.ErrNoSpace, unix.ENOMEM},
	{filesystem.ErrTooLarge, unix.ENOSPC},
	{filesystem.ErrTooDeep, unix.ENAMETOOLONG},
	{filesystem.ErrNameTooLong, unix.ENAMETOOLONG},
	{filesystem.ErrNotEmpty, unix.ENOTEMPTY},
	{filesystem.ErrIO, unix.EIO},
}

// toErrno translates an engine error into the errno handed to the kernel.
// Errors of no known kind become EIO.
func toErrno(err error) error {
	if err == nil {
		return nil
	}

	for _, m := range errnoMap {
		if errors.Is(err, m.err) {
			return fuse.Errno(m.errno)
		}
	}

	return fuse.Errno(unix.EIO)
}

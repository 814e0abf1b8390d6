// Package pathing decomposes the absolute paths used as keys of the inode
// table. Every entry is identified by its leaf name together with the path of
// its parent directory, so resolving a path means splitting it into exactly
// these two parts.
package pathing

import (
	"fmt"
	"strings"

	"github.com/desertwitch/tablefs/internal/schema"
)

// Separator is the path component separator.
const Separator = "/"

// Split returns the leaf name and the parent path of a path.
//
// The name is the part after the last separator, the whole path if there is
// no separator, or the separator itself if the path ends in one. The parent is
// everything before the last separator, or the root if there is no separator
// or it is the first character.
func Split(path string) (name, parent string) {
	idx := strings.LastIndex(path, Separator)

	switch {
	case idx < 0:
		name = path
	case idx == len(path)-1:
		name = Separator
	default:
		name = path[idx+1:]
	}

	if idx <= 0 {
		parent = schema.RootPath
	} else {
		parent = path[:idx]
	}

	return name, parent
}

// Depth returns the amount of components of a path, with the root being at
// depth 0 and "/a/b" at depth 2.
func Depth(path string) int {
	if path == "" || path == schema.RootPath {
		return 0
	}

	return strings.Count(strings.TrimPrefix(path, Separator), Separator) + 1
}

// Join returns the path of an entry called name inside the parent directory.
func Join(parent, name string) string {
	if parent == schema.RootPath {
		return schema.RootPath + name
	}

	return parent + Separator + name
}

// Validate checks that a path is absolute and not longer than maxLen bytes.
func Validate(path string, maxLen int) error {
	if !strings.HasPrefix(path, Separator) {
		return fmt.Errorf("(pathing) %w: %q", ErrRelativePath, path)
	}

	if len(path) > maxLen {
		return fmt.Errorf("(pathing) %w: %d > %d bytes", ErrNameTooLong, len(path), maxLen)
	}

	return nil
}

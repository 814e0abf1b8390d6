package pathing

import "errors"

var (
	// ErrNameTooLong occurs when a path exceeds the maximum path length of a
	// table.
	ErrNameTooLong = errors.New("path name too long")

	// ErrRelativePath occurs when a path does not start at the root.
	ErrRelativePath = errors.New("path is not absolute")
)

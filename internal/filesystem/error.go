package filesystem

import (
	"errors"
	"fmt"

	"github.com/desertwitch/tablefs/internal/pathing"
	"github.com/desertwitch/tablefs/internal/table"
)

var (
	// ErrNotFound occurs when a path does not resolve to an entry.
	ErrNotFound = errors.New("no such entry")

	// ErrExists occurs when an entry is created at a path already in use.
	ErrExists = errors.New("entry already exists")

	// ErrWrongType occurs when an operation meets an entry of the wrong type.
	// It is refined by [ErrNotDirectory] and [ErrIsDirectory].
	ErrWrongType = errors.New("wrong entry type")

	// ErrNotDirectory occurs when a directory was expected but a file was met.
	ErrNotDirectory = fmt.Errorf("not a directory: %w", ErrWrongType)

	// ErrIsDirectory occurs when a file was expected but a directory was met.
	ErrIsDirectory = fmt.Errorf("is a directory: %w", ErrWrongType)

	// ErrPermission occurs when the caller lacks the rights for an operation.
	ErrPermission = errors.New("permission denied")

	// ErrNotPermitted occurs when the caller may not change the mode or the
	// ownership of an entry. It matches [ErrPermission].
	ErrNotPermitted = fmt.Errorf("operation not permitted: %w", ErrPermission)

	// ErrNoSpace occurs when the inode table has no free slot left.
	ErrNoSpace = table.ErrNoSpace

	// ErrTooLarge occurs when content would exceed the per-file capacity.
	ErrTooLarge = errors.New("content exceeds per-file capacity")

	// ErrNotEmpty occurs when a directory with children is removed.
	ErrNotEmpty = errors.New("directory not empty")

	// ErrProtected occurs when the root directory is removed.
	ErrProtected = errors.New("entry is protected")

	// ErrTooDeep occurs when a directory would exceed the maximum depth.
	ErrTooDeep = errors.New("directory too deep")

	// ErrNameTooLong occurs when a path exceeds the maximum path length.
	ErrNameTooLong = pathing.ErrNameTooLong

	// ErrIO occurs when a snapshot cannot be saved or loaded.
	ErrIO = errors.New("snapshot i/o error")
)

package schema

import "fmt"

const (
	// DefaultMaxInodes is the default capacity of a table.
	DefaultMaxInodes = 256

	// DefaultMaxFileSize is the default per-file content capacity in bytes.
	DefaultMaxFileSize = 1024

	// DefaultMaxDepth is the default deepest directory depth (root is 0).
	DefaultMaxDepth = 4

	// DefaultMaxPathLen is the default longest accepted path in bytes.
	DefaultMaxPathLen = 255

	// UpperMaxInodes is the largest capacity any table may have.
	UpperMaxInodes = 1 << 20

	// UpperMaxFileSize is the largest per-file content capacity in bytes.
	UpperMaxFileSize = 1 << 30

	// UpperMaxPathLen is the longest path length any table may accept.
	UpperMaxPathLen = 4096
)

// Limits are the fixed bounds of a table. They never change for the lifetime
// of a table and are recorded in its snapshots.
type Limits struct {
	MaxInodes   int
	MaxFileSize int
	MaxDepth    int
	MaxPathLen  int
}

// DefaultLimits returns the [Limits] used when nothing else is configured.
func DefaultLimits() Limits {
	return Limits{
		MaxInodes:   DefaultMaxInodes,
		MaxFileSize: DefaultMaxFileSize,
		MaxDepth:    DefaultMaxDepth,
		MaxPathLen:  DefaultMaxPathLen,
	}
}

// Validate checks that the [Limits] can hold at least the root directory and
// stay within the upper bounds of a table.
func (l Limits) Validate() error {
	if l.MaxInodes < 1 {
		return fmt.Errorf("%w: max inodes %d < 1", ErrInvalidLimits, l.MaxInodes)
	}

	if l.MaxInodes > UpperMaxInodes {
		return fmt.Errorf("%w: max inodes %d > %d", ErrInvalidLimits, l.MaxInodes, UpperMaxInodes)
	}

	if l.MaxFileSize < 0 || l.MaxFileSize > UpperMaxFileSize {
		return fmt.Errorf("%w: max file size %d not in [0, %d]", ErrInvalidLimits, l.MaxFileSize, UpperMaxFileSize)
	}

	if l.MaxDepth < 0 || l.MaxDepth > UpperMaxPathLen {
		return fmt.Errorf("%w: max depth %d not in [0, %d]", ErrInvalidLimits, l.MaxDepth, UpperMaxPathLen)
	}

	if l.MaxPathLen < len(RootPath) || l.MaxPathLen > UpperMaxPathLen {
		return fmt.Errorf("%w: max path length %d not in [%d, %d]", ErrInvalidLimits, l.MaxPathLen, len(RootPath), UpperMaxPathLen)
	}

	return nil
}

package snapshot

import "errors"

var (
	// ErrCorrupt occurs when a snapshot cannot be decoded, its checksum does
	// not match or its contents violate the invariants of a table.
	ErrCorrupt = errors.New("snapshot is corrupt")

	// ErrVersion occurs when a snapshot was written in an unknown format
	// version.
	ErrVersion = errors.New("unsupported snapshot version")
)

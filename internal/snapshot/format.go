// Package snapshot encodes a whole inode table into a single binary blob and
// back.
//
// A snapshot starts with a header holding a magic string, the format version,
// the limits of the table and the amount of used slots. Every used slot then
// follows as a tagged, length-prefixed record. An end tag closes the body and
// a BLAKE3 digest of the body is appended as the trailer.
package snapshot

const (
	magic   = "TBFS"
	version = uint16(2)

	recordTag = byte('I')
	endTag    = byte('E')

	digestSize = 32

	// headerSize covers magic, version, four limits and the used count.
	headerSize = len(magic) + 2 + 4*4 + 4

	// timeSize covers the seconds and nanoseconds of a timestamp.
	timeSize = 8 + 4

	// minRecordSize is the size of a record with empty names and no content:
	// tag, length, slot, kind, four ids and modes, three timestamps and four
	// length prefixes.
	minRecordSize = 1 + 4 + 4 + 1 + 4*4 + 3*timeSize + 4*4
)

package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/desertwitch/tablefs/internal/schema"
	"github.com/desertwitch/tablefs/internal/table"
	"github.com/zeebo/blake3"
)

// Encode writes a snapshot of the whole [table.Table] to w.
func Encode(w io.Writer, t *table.Table) error {
	hasher := blake3.New()
	body := io.MultiWriter(w, hasher)

	limits := t.Limits()

	header := make([]byte, 0, headerSize)
	header = append(header, magic...)
	header = binary.BigEndian.AppendUint16(header, version)
	header = binary.BigEndian.AppendUint32(header, uint32(limits.MaxInodes))
	header = binary.BigEndian.AppendUint32(header, uint32(limits.MaxFileSize))
	header = binary.BigEndian.AppendUint32(header, uint32(limits.MaxDepth))
	header = binary.BigEndian.AppendUint32(header, uint32(limits.MaxPathLen))
	header = binary.BigEndian.AppendUint32(header, uint32(t.Used()))

	if _, err := body.Write(header); err != nil {
		return fmt.Errorf("(snapshot-encode) failed to write header: %w", err)
	}

	for _, slot := range t.Slots() {
		inode, err := t.Get(slot)
		if err != nil {
			return fmt.Errorf("(snapshot-encode) %w", err)
		}

		payload := encodeInode(slot, inode)

		record := make([]byte, 0, 1+4+len(payload))
		record = append(record, recordTag)
		record = binary.BigEndian.AppendUint32(record, uint32(len(payload)))
		record = append(record, payload...)

		if _, err := body.Write(record); err != nil {
			return fmt.Errorf("(snapshot-encode) failed to write slot %d: %w", slot, err)
		}
	}

	if _, err := body.Write([]byte{endTag}); err != nil {
		return fmt.Errorf("(snapshot-encode) failed to write end tag: %w", err)
	}

	if _, err := w.Write(hasher.Sum(nil)); err != nil {
		return fmt.Errorf("(snapshot-encode) failed to write digest: %w", err)
	}

	return nil
}

func encodeInode(slot int, inode *schema.Inode) []byte {
	b := make([]byte, 0, minRecordSize+len(inode.Name)+len(inode.Path)+len(inode.Parent)+len(inode.Data))

	b = binary.BigEndian.AppendUint32(b, uint32(slot))
	b = append(b, byte(inode.Kind))
	b = binary.BigEndian.AppendUint32(b, inode.Mode)
	b = binary.BigEndian.AppendUint32(b, inode.UID)
	b = binary.BigEndian.AppendUint32(b, inode.GID)
	b = binary.BigEndian.AppendUint32(b, inode.Nlink)
	b = appendTime(b, inode.AccessedAt)
	b = appendTime(b, inode.ModifiedAt)
	b = appendTime(b, inode.CreatedAt)
	b = appendBytes(b, []byte(inode.Name))
	b = appendBytes(b, []byte(inode.Path))
	b = appendBytes(b, []byte(inode.Parent))
	b = appendBytes(b, inode.Data)

	return b
}

// appendTime stores seconds and nanoseconds apart, which covers every year a
// [time.Time] can hold.
func appendTime(b []byte, t time.Time) []byte {
	b = binary.BigEndian.AppendUint64(b, uint64(t.Unix()))

	return binary.BigEndian.AppendUint32(b, uint32(t.Nanosecond()))
}

func appendBytes(b []byte, v []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(v)))

	return append(b, v...)
}

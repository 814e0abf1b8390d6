package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/desertwitch/tablefs/internal/pathing"
	"github.com/desertwitch/tablefs/internal/schema"
	"github.com/desertwitch/tablefs/internal/table"
	"github.com/zeebo/blake3"
)

// Decode reads a snapshot from r and returns the [table.Table] it describes.
// The snapshot is verified as a whole before any of it is trusted.
func Decode(r io.Reader) (*table.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("(snapshot-decode) failed to read: %w", err)
	}

	if len(raw) < headerSize+1+digestSize {
		return nil, fmt.Errorf("(snapshot-decode) %w: truncated at %d bytes", ErrCorrupt, len(raw))
	}

	body, digest := raw[:len(raw)-digestSize], raw[len(raw)-digestSize:]

	if sum := blake3.Sum256(body); !bytes.Equal(sum[:], digest) {
		return nil, fmt.Errorf("(snapshot-decode) %w: checksum mismatch", ErrCorrupt)
	}

	d := &reader{buf: body}

	if string(d.next(len(magic))) != magic {
		return nil, fmt.Errorf("(snapshot-decode) %w: bad magic", ErrCorrupt)
	}

	if v := d.uint16(); v != version {
		return nil, fmt.Errorf("(snapshot-decode) %w: %d", ErrVersion, v)
	}

	limits := schema.Limits{
		MaxInodes:   int(d.uint32()),
		MaxFileSize: int(d.uint32()),
		MaxDepth:    int(d.uint32()),
		MaxPathLen:  int(d.uint32()),
	}
	count := int(d.uint32())

	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("(snapshot-decode) %w: %w", ErrCorrupt, err)
	}

	if count > limits.MaxInodes {
		return nil, fmt.Errorf("(snapshot-decode) %w: %d used slots > capacity %d", ErrCorrupt, count, limits.MaxInodes)
	}

	if remaining := len(d.buf) - d.off; count > remaining/minRecordSize {
		return nil, fmt.Errorf("(snapshot-decode) %w: %d used slots do not fit into %d bytes", ErrCorrupt, count, remaining)
	}

	t, err := table.New(limits)
	if err != nil {
		return nil, fmt.Errorf("(snapshot-decode) %w: %w", ErrCorrupt, err)
	}

	for range count {
		if tag := d.byte(); tag != recordTag {
			return nil, fmt.Errorf("(snapshot-decode) %w: unexpected tag %q", ErrCorrupt, tag)
		}

		payload := d.next(int(d.uint32()))
		if d.err != nil {
			return nil, fmt.Errorf("(snapshot-decode) %w: %w", ErrCorrupt, d.err)
		}

		slot, inode, err := decodeInode(payload)
		if err != nil {
			return nil, fmt.Errorf("(snapshot-decode) %w: %w", ErrCorrupt, err)
		}

		if len(inode.Data) > limits.MaxFileSize {
			return nil, fmt.Errorf("(snapshot-decode) %w: slot %d holds %d bytes > %d",
				ErrCorrupt, slot, len(inode.Data), limits.MaxFileSize)
		}

		if err := t.Install(slot, inode); err != nil {
			return nil, fmt.Errorf("(snapshot-decode) %w: %w", ErrCorrupt, err)
		}
	}

	if tag := d.byte(); tag != endTag {
		return nil, fmt.Errorf("(snapshot-decode) %w: missing end tag", ErrCorrupt)
	}

	if d.err != nil || d.off != len(d.buf) {
		return nil, fmt.Errorf("(snapshot-decode) %w: trailing or missing bytes", ErrCorrupt)
	}

	if err := verify(t); err != nil {
		return nil, fmt.Errorf("(snapshot-decode) %w: %w", ErrCorrupt, err)
	}

	return t, nil
}

func decodeInode(payload []byte) (int, schema.Inode, error) {
	d := &reader{buf: payload}

	slot := int(d.uint32())
	inode := schema.Inode{
		Kind:  schema.Kind(d.byte()),
		Mode:  d.uint32(),
		UID:   d.uint32(),
		GID:   d.uint32(),
		Nlink: d.uint32(),
	}
	inode.AccessedAt = d.time()
	inode.ModifiedAt = d.time()
	inode.CreatedAt = d.time()
	inode.Name = string(d.bytes())
	inode.Path = string(d.bytes())
	inode.Parent = string(d.bytes())

	if data := d.bytes(); len(data) > 0 {
		inode.Data = append([]byte(nil), data...)
	}

	if d.err != nil {
		return 0, inode, fmt.Errorf("slot record: %w", d.err)
	}

	if d.off != len(d.buf) {
		return 0, inode, fmt.Errorf("slot %d record has %d trailing bytes", slot, len(d.buf)-d.off)
	}

	if !inode.Kind.Valid() {
		return 0, inode, fmt.Errorf("slot %d has unknown kind %d", slot, inode.Kind)
	}

	return slot, inode, nil
}

// verify checks the structural invariants a decoded table has to fulfill.
func verify(t *table.Table) error {
	root, err := t.Get(schema.RootSlot)
	if err != nil {
		return fmt.Errorf("no root: %w", err)
	}

	if !root.IsRoot() || !root.IsDir() {
		return fmt.Errorf("slot %d is not the root directory: %q", schema.RootSlot, root.Path)
	}

	children := make(map[string]int)

	t.Each(func(slot int, inode *schema.Inode) bool {
		if slot != schema.RootSlot {
			children[inode.Parent]++
		}

		return true
	})

	if err := verifyLinks(root, children[root.Path]); err != nil {
		return err
	}

	for _, slot := range t.Slots() {
		if slot == schema.RootSlot {
			continue
		}

		inode, err := t.Get(slot)
		if err != nil {
			return err
		}

		if inode.Path != pathing.Join(inode.Parent, inode.Name) {
			return fmt.Errorf("slot %d path %q disagrees with parent %q and name %q",
				slot, inode.Path, inode.Parent, inode.Name)
		}

		if inode.IsDir() {
			if len(inode.Data) > 0 {
				return fmt.Errorf("directory %q holds content", inode.Path)
			}

			if err := verifyLinks(inode, children[inode.Path]); err != nil {
				return err
			}
		}

		parentName, parentParent := splitParent(inode.Parent)

		parentSlot, ok := t.Find(parentName, parentParent)
		if !ok {
			return fmt.Errorf("parent %q of %q does not exist", inode.Parent, inode.Path)
		}

		parent, err := t.Get(parentSlot)
		if err != nil {
			return err
		}

		if !parent.IsDir() {
			return fmt.Errorf("parent %q of %q is not a directory", inode.Parent, inode.Path)
		}
	}

	return nil
}

// verifyLinks checks that a directory's link count matches its children,
// which is what emptiness checks rely on.
func verifyLinks(dir *schema.Inode, children int) error {
	if want := uint32(schema.MinDirLinks + children); dir.Nlink != want { //nolint:gosec
		return fmt.Errorf("directory %q has %d links, %d children need %d", dir.Path, dir.Nlink, children, want)
	}

	return nil
}

// splitParent returns the name and parent under which a parent path is
// installed in a table, mapping the root path to the root's own key.
func splitParent(path string) (string, string) {
	if path == schema.RootPath {
		return schema.RootPath, schema.RootParent
	}

	return pathing.Split(path)
}

// reader consumes a byte slice, remembering the first error it runs into.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}

	if n < 0 || n > len(r.buf)-r.off {
		r.err = fmt.Errorf("need %d bytes at offset %d, have %d", n, r.off, len(r.buf)-r.off)

		return nil
	}

	b := r.buf[r.off : r.off+n]
	r.off += n

	return b
}

func (r *reader) byte() byte {
	if b := r.next(1); b != nil {
		return b[0]
	}

	return 0
}

func (r *reader) uint16() uint16 {
	if b := r.next(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}

	return 0
}

func (r *reader) uint32() uint32 {
	if b := r.next(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}

	return 0
}

func (r *reader) uint64() uint64 {
	if b := r.next(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}

	return 0
}

func (r *reader) time() time.Time {
	sec := int64(r.uint64())
	nsec := int64(r.uint32())

	if r.err == nil && nsec >= int64(time.Second) {
		r.err = fmt.Errorf("nanoseconds %d out of range at offset %d", nsec, r.off)
	}

	return time.Unix(sec, nsec)
}

func (r *reader) bytes() []byte {
	return r.next(int(r.uint32()))
}

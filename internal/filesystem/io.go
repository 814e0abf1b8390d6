package filesystem

import (
	"fmt"

	"github.com/desertwitch/tablefs/internal/schema"
)

// Read returns up to length bytes of the file at path starting at offset.
// Reading at or beyond the end of the content yields no bytes and no error.
func (h *Handler) Read(caller schema.Caller, path string, offset uint64, length int) ([]byte, error) {
	_, file, err := h.resolve(path)
	if err != nil {
		return nil, fmt.Errorf("(fs-read) %w", err)
	}

	if file.IsDir() {
		return nil, fmt.Errorf("(fs-read) %w: %s", ErrIsDirectory, path)
	}

	if !canRead(caller, file) {
		return nil, fmt.Errorf("(fs-read) %w: %s", ErrPermission, path)
	}

	size := file.Size()
	if offset >= size || length <= 0 {
		return []byte{}, nil
	}

	end := min(offset+uint64(length), size)

	buf := make([]byte, end-offset)
	copy(buf, file.Data[offset:end])

	file.AccessedAt = h.now()

	return buf, nil
}

// Write copies data into the file at path starting at offset and returns the
// amount of bytes written. Only the owner of the file may write to it. A gap
// between the current end of the content and offset reads back as zeros.
func (h *Handler) Write(caller schema.Caller, path string, offset uint64, data []byte) (int, error) {
	_, file, err := h.resolve(path)
	if err != nil {
		return 0, fmt.Errorf("(fs-write) %w", err)
	}

	if file.IsDir() {
		return 0, fmt.Errorf("(fs-write) %w: %s", ErrIsDirectory, path)
	}

	if !h.fits(offset, uint64(len(data))) {
		return 0, fmt.Errorf("(fs-write) %w: %d bytes at offset %d > %d",
			ErrTooLarge, len(data), offset, h.table.Limits().MaxFileSize)
	}

	if caller.UID != file.UID {
		return 0, fmt.Errorf("(fs-write) %w: %s", ErrPermission, path)
	}

	end := offset + uint64(len(data))
	if end > file.Size() {
		file.Data = grow(file.Data, end)
	}

	copy(file.Data[offset:end], data)

	now := h.now()
	file.AccessedAt = now
	file.ModifiedAt = now

	return len(data), nil
}

// Truncate sets the size of the file at path. Dropped content is zeroed and
// added content reads back as zeros.
func (h *Handler) Truncate(caller schema.Caller, path string, size uint64) error {
	if !h.fits(0, size) {
		return fmt.Errorf("(fs-truncate) %w: %d > %d", ErrTooLarge, size, h.table.Limits().MaxFileSize)
	}

	_, file, err := h.resolve(path)
	if err != nil {
		return fmt.Errorf("(fs-truncate) %w", err)
	}

	if file.IsDir() {
		return fmt.Errorf("(fs-truncate) %w: %s", ErrIsDirectory, path)
	}

	if caller.UID != file.UID {
		return fmt.Errorf("(fs-truncate) %w: %s", ErrPermission, path)
	}

	if size < file.Size() {
		clear(file.Data[size:])
		file.Data = file.Data[:size]
	} else {
		file.Data = grow(file.Data, size)
	}

	file.ModifiedAt = h.now()

	return nil
}

// fits reports whether n bytes at offset stay within the per-file capacity.
func (h *Handler) fits(offset, n uint64) bool {
	limit := uint64(h.table.Limits().MaxFileSize)

	return offset <= limit && n <= limit-offset
}

// grow extends data with zeros to size bytes.
func grow(data []byte, size uint64) []byte {
	if n := size - uint64(len(data)); n > 0 {
		data = append(data, make([]byte, n)...)
	}

	return data
}

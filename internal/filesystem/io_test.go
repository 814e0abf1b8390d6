package filesystem

import (
	"bytes"
	"testing"
	"time"

	"github.com/desertwitch/tablefs/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileHandler(t *testing.T, content string) *Handler {
	t.Helper()

	h := newTestHandler(t, nil)

	_, err := h.Mkdir(alice, "/dir", 0o755)
	require.NoError(t, err)

	_, err = h.Create(alice, "/dir/file", 0o644)
	require.NoError(t, err)

	if content != "" {
		_, err = h.Write(alice, "/dir/file", 0, []byte(content))
		require.NoError(t, err)
	}

	return h
}

// TestRead verifies reads of various ranges and the read permission.
func TestRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		caller  schema.Caller
		path    string
		offset  uint64
		length  int
		want    []byte
		wantErr error
	}{
		{name: "Success_Whole", caller: alice, path: "/dir/file", length: 100, want: []byte("hello world")},
		{name: "Success_Range", caller: alice, path: "/dir/file", offset: 6, length: 3, want: []byte("wor")},
		{name: "Success_Tail", caller: alice, path: "/dir/file", offset: 6, length: 100, want: []byte("world")},
		{name: "Success_AtSize", caller: alice, path: "/dir/file", offset: 11, length: 10, want: []byte{}},
		{name: "Success_BeyondSize", caller: alice, path: "/dir/file", offset: 500, length: 10, want: []byte{}},
		{name: "Success_ZeroLength", caller: alice, path: "/dir/file", length: 0, want: []byte{}},
		{name: "Success_Other", caller: bob, path: "/dir/file", length: 5, want: []byte("hello")},
		{name: "Success_SuperUser", caller: rootUser, path: "/dir/file", length: 5, want: []byte("hello")},
		{name: "Fail_Directory", caller: alice, path: "/dir", length: 5, wantErr: ErrIsDirectory},
		{name: "Fail_Missing", caller: alice, path: "/dir/nope", length: 5, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newFileHandler(t, "hello world")

			got, err := h.Read(tt.caller, tt.path, tt.offset, tt.length)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestRead_Permission verifies that owner, group and other read bits each
// gate their class of caller.
func TestRead_Permission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mode    uint32
		caller  schema.Caller
		wantErr bool
	}{
		{name: "Success_OwnerRead", mode: 0o400, caller: alice},
		{name: "Fail_OwnerNoRead", mode: 0o044, caller: alice, wantErr: true},
		{name: "Success_GroupRead", mode: 0o040, caller: carol},
		{name: "Fail_GroupNoRead", mode: 0o404, caller: carol, wantErr: true},
		{name: "Success_OtherRead", mode: 0o004, caller: bob},
		{name: "Fail_OtherNoRead", mode: 0o440, caller: bob, wantErr: true},
		{name: "Success_SuperUserNoBits", mode: 0o000, caller: rootUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newFileHandler(t, "secret")
			require.NoError(t, h.SetMode(alice, "/dir/file", tt.mode))

			_, err := h.Read(tt.caller, "/dir/file", 0, 10)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrPermission)

				return
			}

			require.NoError(t, err)
		})
	}
}

// TestRead_AccessTime verifies that reading refreshes the access time only.
func TestRead_AccessTime(t *testing.T) {
	t.Parallel()

	h := newFileHandler(t, "abc")

	later := testTime.Add(time.Hour)
	h.SetClock(func() time.Time { return later })

	_, err := h.Read(alice, "/dir/file", 0, 3)
	require.NoError(t, err)

	meta, err := h.GetMetadata("/dir/file")
	require.NoError(t, err)
	assert.Equal(t, later, meta.AccessedAt)
	assert.Equal(t, testTime, meta.ModifiedAt)
}

// TestWrite_Success verifies overwrites, appends and zero-filled gaps.
func TestWrite_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		offset uint64
		data   string
		want   []byte
	}{
		{name: "Success_Overwrite", offset: 0, data: "HE", want: []byte("HEllo")},
		{name: "Success_Inside", offset: 1, data: "a", want: []byte("hallo")},
		{name: "Success_Extend", offset: 3, data: "p me", want: []byte("help me")},
		{name: "Success_Append", offset: 5, data: "!", want: []byte("hello!")},
		{name: "Success_Gap", offset: 8, data: "x", want: []byte("hello\x00\x00\x00x")},
		{name: "Success_Empty", offset: 2, data: "", want: []byte("hello")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newFileHandler(t, "hello")

			later := testTime.Add(time.Minute)
			h.SetClock(func() time.Time { return later })

			n, err := h.Write(alice, "/dir/file", tt.offset, []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, len(tt.data), n)

			got, err := h.Read(alice, "/dir/file", 0, 100)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			meta, err := h.GetMetadata("/dir/file")
			require.NoError(t, err)
			assert.Equal(t, uint64(len(tt.want)), meta.Size)
			assert.Equal(t, later, meta.ModifiedAt)
		})
	}
}

// TestWrite_Capacity verifies that a write exactly filling the per-file
// capacity succeeds while one more byte is refused without any change.
func TestWrite_Capacity(t *testing.T) {
	t.Parallel()

	h := newFileHandler(t, "")
	limit := h.Limits().MaxFileSize

	full := bytes.Repeat([]byte("a"), limit)

	n, err := h.Write(alice, "/dir/file", 0, full)
	require.NoError(t, err)
	assert.Equal(t, limit, n)

	h.SetClock(func() time.Time { return testTime.Add(time.Hour) })

	_, err = h.Write(alice, "/dir/file", uint64(limit), []byte("b"))
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = h.Write(alice, "/dir/file", 1, full)
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = h.Write(alice, "/dir/file", ^uint64(0), []byte("b"))
	require.ErrorIs(t, err, ErrTooLarge)

	meta, err := h.GetMetadata("/dir/file")
	require.NoError(t, err)
	assert.Equal(t, uint64(limit), meta.Size)
	assert.Equal(t, testTime, meta.ModifiedAt)

	got, err := h.Read(alice, "/dir/file", 0, limit+1)
	require.NoError(t, err)
	assert.Equal(t, full, got)
}

// TestWrite_Fail verifies the type and ownership checks of a write.
func TestWrite_Fail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		caller  schema.Caller
		path    string
		wantErr error
	}{
		{name: "Fail_Directory", caller: alice, path: "/dir", wantErr: ErrIsDirectory},
		{name: "Fail_Missing", caller: alice, path: "/nope", wantErr: ErrNotFound},
		{name: "Fail_OtherUser", caller: bob, path: "/dir/file", wantErr: ErrPermission},
		{name: "Fail_SuperUser", caller: rootUser, path: "/dir/file", wantErr: ErrPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newFileHandler(t, "keep")

			_, err := h.Write(tt.caller, tt.path, 0, []byte("lost"))
			require.ErrorIs(t, err, tt.wantErr)

			got, err := h.Read(alice, "/dir/file", 0, 10)
			require.NoError(t, err)
			assert.Equal(t, []byte("keep"), got)
		})
	}
}

// TestTruncate verifies shrinking and growing of file content.
func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		caller  schema.Caller
		path    string
		size    uint64
		want    []byte
		wantErr error
	}{
		{name: "Success_Shrink", caller: alice, path: "/dir/file", size: 2, want: []byte("he")},
		{name: "Success_Empty", caller: alice, path: "/dir/file", size: 0, want: []byte{}},
		{name: "Success_Same", caller: alice, path: "/dir/file", size: 5, want: []byte("hello")},
		{name: "Success_Grow", caller: alice, path: "/dir/file", size: 8, want: []byte("hello\x00\x00\x00")},
		{name: "Fail_TooLarge", caller: alice, path: "/dir/file", size: schema.DefaultMaxFileSize + 1, wantErr: ErrTooLarge},
		{name: "Fail_Directory", caller: alice, path: "/dir", size: 0, wantErr: ErrIsDirectory},
		{name: "Fail_Missing", caller: alice, path: "/nope", size: 0, wantErr: ErrNotFound},
		{name: "Fail_OtherUser", caller: bob, path: "/dir/file", size: 0, wantErr: ErrPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newFileHandler(t, "hello")

			err := h.Truncate(tt.caller, tt.path, tt.size)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)

			got, err := h.Read(alice, "/dir/file", 0, 100)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestTruncate_ShrinkThenGrow verifies that dropped content does not come
// back when a file grows again.
func TestTruncate_ShrinkThenGrow(t *testing.T) {
	t.Parallel()

	h := newFileHandler(t, "hello")

	require.NoError(t, h.Truncate(alice, "/dir/file", 1))
	require.NoError(t, h.Truncate(alice, "/dir/file", 5))

	got, err := h.Read(alice, "/dir/file", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte("h\x00\x00\x00\x00"), got)

	require.NoError(t, h.Truncate(alice, "/dir/file", 0))

	_, err = h.Write(alice, "/dir/file", 3, []byte("x"))
	require.NoError(t, err)

	got, err = h.Read(alice, "/dir/file", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x00\x00\x00x"), got)
}

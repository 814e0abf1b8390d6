// Package mount exposes the filesystem engine to the kernel through FUSE.
//
// Every kernel request is translated into exactly one engine call. An [FS]
// serializes all engine calls behind a single mutex, which makes the single
// threaded engine safe to serve concurrent requests. Engine errors are
// translated into errno values before they are handed back to the kernel.
package mount

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/desertwitch/tablefs/internal/filesystem"
	"github.com/desertwitch/tablefs/internal/schema"
	"github.com/spf13/afero"
)

var (
	_ fs.FS         = (*FS)(nil)
	_ fs.FSStatfser = (*FS)(nil)
)

const unmountRetryInterval = time.Second

type engineProvider interface {
	GetMetadata(path string) (schema.Metadata, error)
	ListChildren(caller schema.Caller, path string) ([]schema.Metadata, error)
	Mkdir(caller schema.Caller, path string, mode uint32) (int, error)
	Create(caller schema.Caller, path string, mode uint32) (int, error)
	Rmdir(path string) error
	Unlink(caller schema.Caller, path string) error
	Read(caller schema.Caller, path string, offset uint64, length int) ([]byte, error)
	Write(caller schema.Caller, path string, offset uint64, data []byte) (int, error)
	Truncate(caller schema.Caller, path string, size uint64) error
	SetMode(caller schema.Caller, path string, mode uint32) error
	SetOwner(caller schema.Caller, path string, uid, gid uint32) error
	SetTimes(path string, times *filesystem.Times) error
	SaveSnapshot(fsys afero.Fs, path string) (int64, error)
	Stats() filesystem.Stats
}

// Options are the settings of an [FS].
type Options struct {
	// Storage is where snapshots are written to.
	Storage afero.Fs

	// FileDisk is the path of the snapshot file on Storage.
	FileDisk string

	// SaveOnFlush saves a snapshot whenever a file is flushed or synced.
	SaveOnFlush bool
}

// Stats are the usage and operation counters of an [FS].
type Stats struct {
	Engine       filesystem.Stats
	Lookups      int64
	Creates      int64
	Removes      int64
	Reads        int64
	Writes       int64
	BytesRead    int64
	BytesWritten int64
	Saves        int64
	Errors       int64
	LastSave     time.Time
}

// FS is the FUSE filesystem serving a filesystem engine.
type FS struct {
	sync.Mutex

	engine  engineProvider
	options Options

	lookups      atomic.Int64
	creates      atomic.Int64
	removes      atomic.Int64
	reads        atomic.Int64
	writes       atomic.Int64
	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
	saves        atomic.Int64
	errors       atomic.Int64
	lastSave     atomic.Int64
}

// NewFS returns a pointer to a new [FS] serving the engine.
func NewFS(engine engineProvider, options Options) *FS {
	return &FS{
		engine:  engine,
		options: options,
	}
}

// Root returns the topmost [fs.Node] of the filesystem.
func (f *FS) Root() (fs.Node, error) {
	return &Dir{fs: f, path: schema.RootPath}, nil
}

// Statfs reports the inode and content capacity of the table.
func (f *FS) Statfs(_ context.Context, _ *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	f.Lock()
	stats := f.engine.Stats()
	f.Unlock()

	totalBytes := uint64(stats.Capacity) * uint64(stats.Limits.MaxFileSize)
	blocks := (totalBytes + blockSize - 1) / blockSize
	used := min((stats.Bytes+blockSize-1)/blockSize, blocks)

	resp.Blocks = blocks
	resp.Bfree = blocks - used
	resp.Bavail = blocks - used
	resp.Files = uint64(stats.Capacity)
	resp.Ffree = uint64(stats.Capacity - stats.Used)
	resp.Bsize = blockSize
	resp.Frsize = blockSize
	resp.Namelen = uint32(stats.Limits.MaxPathLen)

	return nil
}

// Stats returns the current usage and operation counters.
func (f *FS) Stats() Stats {
	f.Lock()
	engineStats := f.engine.Stats()
	f.Unlock()

	stats := Stats{
		Engine:       engineStats,
		Lookups:      f.lookups.Load(),
		Creates:      f.creates.Load(),
		Removes:      f.removes.Load(),
		Reads:        f.reads.Load(),
		Writes:       f.writes.Load(),
		BytesRead:    f.bytesRead.Load(),
		BytesWritten: f.bytesWritten.Load(),
		Saves:        f.saves.Load(),
		Errors:       f.errors.Load(),
	}

	if ts := f.lastSave.Load(); ts > 0 {
		stats.LastSave = time.Unix(0, ts)
	}

	return stats
}

// Persist saves a snapshot of the engine's table to the configured file.
func (f *FS) Persist() error {
	f.Lock()
	defer f.Unlock()

	return f.persist()
}

// persist expects the lock to be held.
func (f *FS) persist() error {
	if f.options.Storage == nil || f.options.FileDisk == "" {
		return nil
	}

	if _, err := f.engine.SaveSnapshot(f.options.Storage, f.options.FileDisk); err != nil {
		f.errors.Add(1)

		return fmt.Errorf("(mount-persist) %w", err)
	}

	f.saves.Add(1)
	f.lastSave.Store(time.Now().UnixNano())

	return nil
}

// fail counts and logs a failed operation and returns its errno.
func (f *FS) fail(op string, path string, err error) error {
	f.errors.Add(1)

	slog.Debug("Operation failed", "op", op, "path", path, "err", err)

	return toErrno(err)
}

// unmountOnCancel waits for the context to be cancelled and then unmounts
// the mountpoint, retrying until the unmount succeeds or done is closed. A busy
// mountpoint refuses to unmount while files are open.
func unmountOnCancel(ctx context.Context, done <-chan struct{}, mountpoint string, unmount func(string) error, interval time.Duration) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}

	slog.Info("Unmounting filesystem", "mountpoint", mountpoint)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := unmount(mountpoint)
		if err == nil {
			return
		}

		slog.Warn("Failed to unmount filesystem, retrying", "mountpoint", mountpoint, "err", err)

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// Serve mounts the [FS] at mountpoint and serves kernel requests until the
// filesystem is unmounted or the context is cancelled. A snapshot is saved
// once serving has ended.
func Serve(ctx context.Context, mountpoint string, filesys *FS) error {
	conn, err := fuse.Mount(mountpoint,
		fuse.FSName("tablefs"),
		fuse.Subtype("tablefs"),
	)
	if err != nil {
		return fmt.Errorf("(mount-serve) failed to mount %s: %w", mountpoint, err)
	}
	defer conn.Close()

	slog.Info("Mounted filesystem", "mountpoint", mountpoint)

	done := make(chan struct{})
	defer close(done)

	go unmountOnCancel(ctx, done, mountpoint, fuse.Unmount, unmountRetryInterval)

	serveErr := fs.Serve(conn, filesys)

	if err := filesys.Persist(); err != nil {
		slog.Error("Failed to save snapshot on unmount", "path", filesys.options.FileDisk, "err", err)
	}

	if serveErr != nil {
		return fmt.Errorf("(mount-serve) %w", serveErr)
	}

	return nil
}

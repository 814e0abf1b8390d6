package mount

import (
	"context"
	"log/slog"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/desertwitch/tablefs/internal/filesystem"
	"github.com/desertwitch/tablefs/internal/pathing"
	"github.com/desertwitch/tablefs/internal/schema"
	"golang.org/x/sys/unix"
)

var (
	_ fs.Node               = (*Dir)(nil)
	_ fs.NodeStringLookuper = (*Dir)(nil)
	_ fs.NodeOpener         = (*Dir)(nil)
	_ fs.NodeMkdirer        = (*Dir)(nil)
	_ fs.NodeCreater        = (*Dir)(nil)
	_ fs.NodeRemover        = (*Dir)(nil)
	_ fs.NodeSetattrer      = (*Dir)(nil)

	_ fs.HandleReadDirAller = (*dirHandle)(nil)

	_ fs.Node          = (*File)(nil)
	_ fs.NodeSetattrer = (*File)(nil)
	_ fs.NodeFsyncer   = (*File)(nil)
	_ fs.HandleReader  = (*File)(nil)
	_ fs.HandleWriter  = (*File)(nil)
	_ fs.HandleFlusher = (*File)(nil)
)

// Dir is a directory of the filesystem, identified by its path.
type Dir struct {
	fs   *FS
	path string
}

// File is a file of the filesystem, identified by its path. A File serves as
// its own handle.
type File struct {
	fs   *FS
	path string
}

type dirHandle struct {
	dir    *Dir
	caller schema.Caller
}

func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	return d.fs.attr("getattr", d.path, a)
}

func (d *Dir) Lookup(_ context.Context, name string) (fs.Node, error) {
	path := pathing.Join(d.path, name)

	d.fs.Lock()
	meta, err := d.fs.engine.GetMetadata(path)
	d.fs.Unlock()

	d.fs.lookups.Add(1)

	if err != nil {
		// Negative lookups are not counted as errors.
		return nil, toErrno(err)
	}

	return d.fs.node(meta), nil
}

// Open checks that the caller may list the directory and returns a handle
// listing it on behalf of that caller.
func (d *Dir) Open(_ context.Context, req *fuse.OpenRequest, _ *fuse.OpenResponse) (fs.Handle, error) {
	caller := callerOf(req.Header)

	d.fs.Lock()
	_, err := d.fs.engine.ListChildren(caller, d.path)
	d.fs.Unlock()

	if err != nil {
		return nil, d.fs.fail("opendir", d.path, err)
	}

	return &dirHandle{dir: d, caller: caller}, nil
}

func (h *dirHandle) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	d := h.dir

	d.fs.Lock()
	self, err := d.fs.engine.GetMetadata(d.path)
	if err != nil {
		d.fs.Unlock()

		return nil, d.fs.fail("readdir", d.path, err)
	}

	parentInode := inodeOf(schema.RootSlot)
	if self.Parent != schema.RootParent {
		if parent, err := d.fs.engine.GetMetadata(self.Parent); err == nil {
			parentInode = inodeOf(parent.Slot)
		}
	}

	children, err := d.fs.engine.ListChildren(h.caller, d.path)
	d.fs.Unlock()

	if err != nil {
		return nil, d.fs.fail("readdir", d.path, err)
	}

	dirents := make([]fuse.Dirent, 0, len(children)+2)
	dirents = append(dirents,
		fuse.Dirent{Inode: inodeOf(self.Slot), Name: ".", Type: fuse.DT_Dir},
		fuse.Dirent{Inode: parentInode, Name: "..", Type: fuse.DT_Dir},
	)

	for _, child := range children {
		dirents = append(dirents, direntOf(child))
	}

	return dirents, nil
}

func (d *Dir) Mkdir(_ context.Context, req *fuse.MkdirRequest) (fs.Node, error) {
	path := pathing.Join(d.path, req.Name)

	d.fs.Lock()
	defer d.fs.Unlock()

	if _, err := d.fs.engine.Mkdir(callerOf(req.Header), path, toUnixPerms(req.Mode)); err != nil {
		return nil, d.fs.fail("mkdir", path, err)
	}

	d.fs.creates.Add(1)

	return &Dir{fs: d.fs, path: path}, nil
}

func (d *Dir) Create(_ context.Context, req *fuse.CreateRequest, _ *fuse.CreateResponse) (fs.Node, fs.Handle, error) {
	path := pathing.Join(d.path, req.Name)

	d.fs.Lock()
	defer d.fs.Unlock()

	if _, err := d.fs.engine.Create(callerOf(req.Header), path, toUnixPerms(req.Mode)); err != nil {
		return nil, nil, d.fs.fail("create", path, err)
	}

	d.fs.creates.Add(1)

	f := &File{fs: d.fs, path: path}

	return f, f, nil
}

func (d *Dir) Remove(_ context.Context, req *fuse.RemoveRequest) error {
	path := pathing.Join(d.path, req.Name)

	d.fs.Lock()
	defer d.fs.Unlock()

	var err error
	if req.Dir {
		err = d.fs.engine.Rmdir(path)
	} else {
		err = d.fs.engine.Unlink(callerOf(req.Header), path)
	}

	if err != nil {
		return d.fs.fail("remove", path, err)
	}

	d.fs.removes.Add(1)

	return nil
}

func (d *Dir) Setattr(_ context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	return d.fs.setattr(d.path, req, resp)
}

func (f *File) Attr(_ context.Context, a *fuse.Attr) error {
	return f.fs.attr("getattr", f.path, a)
}

func (f *File) Setattr(_ context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	return f.fs.setattr(f.path, req, resp)
}

func (f *File) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	if req.Offset < 0 {
		return fuse.Errno(unix.EINVAL)
	}

	f.fs.Lock()
	data, err := f.fs.engine.Read(callerOf(req.Header), f.path, uint64(req.Offset), req.Size)
	f.fs.Unlock()

	if err != nil {
		return f.fs.fail("read", f.path, err)
	}

	resp.Data = data

	f.fs.reads.Add(1)
	f.fs.bytesRead.Add(int64(len(data)))

	return nil
}

func (f *File) Write(_ context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	if req.Offset < 0 {
		return fuse.Errno(unix.EINVAL)
	}

	f.fs.Lock()
	n, err := f.fs.engine.Write(callerOf(req.Header), f.path, uint64(req.Offset), req.Data)
	f.fs.Unlock()

	if err != nil {
		return f.fs.fail("write", f.path, err)
	}

	resp.Size = n

	f.fs.writes.Add(1)
	f.fs.bytesWritten.Add(int64(n))

	return nil
}

func (f *File) Flush(_ context.Context, _ *fuse.FlushRequest) error {
	return f.fs.sync("flush", f.path)
}

func (f *File) Fsync(_ context.Context, _ *fuse.FsyncRequest) error {
	return f.fs.sync("fsync", f.path)
}

func (f *FS) node(meta schema.Metadata) fs.Node {
	if meta.IsDir() {
		return &Dir{fs: f, path: meta.Path}
	}

	return &File{fs: f, path: meta.Path}
}

func (f *FS) attr(op string, path string, a *fuse.Attr) error {
	f.Lock()
	meta, err := f.engine.GetMetadata(path)
	f.Unlock()

	if err != nil {
		return f.fail(op, path, err)
	}

	fillAttr(meta, a)

	return nil
}

func (f *FS) sync(op string, path string) error {
	if !f.options.SaveOnFlush {
		return nil
	}

	if err := f.Persist(); err != nil {
		slog.Error("Failed to save snapshot", "op", op, "path", path, "err", err)

		return toErrno(err)
	}

	return nil
}

// setattr applies the changes of a setattr request in the order mode, owner,
// size and timestamps, stopping at the first failure.
func (f *FS) setattr(path string, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	caller := callerOf(req.Header)

	f.Lock()
	defer f.Unlock()

	if req.Valid.Mode() {
		if err := f.engine.SetMode(caller, path, toUnixPerms(req.Mode)); err != nil {
			return f.fail("chmod", path, err)
		}
	}

	if req.Valid.Uid() || req.Valid.Gid() {
		uid, gid := schema.NoChange, schema.NoChange
		if req.Valid.Uid() {
			uid = req.Uid
		}
		if req.Valid.Gid() {
			gid = req.Gid
		}

		if err := f.engine.SetOwner(caller, path, uid, gid); err != nil {
			return f.fail("chown", path, err)
		}
	}

	if req.Valid.Size() {
		if err := f.engine.Truncate(caller, path, req.Size); err != nil {
			return f.fail("truncate", path, err)
		}
	}

	if req.Valid.Atime() || req.Valid.Mtime() || req.Valid.AtimeNow() || req.Valid.MtimeNow() {
		times, err := f.requestedTimes(path, req)
		if err != nil {
			return f.fail("utimens", path, err)
		}

		if err := f.engine.SetTimes(path, times); err != nil {
			return f.fail("utimens", path, err)
		}
	}

	meta, err := f.engine.GetMetadata(path)
	if err != nil {
		return f.fail("setattr", path, err)
	}

	fillAttr(meta, &resp.Attr)

	return nil
}

// requestedTimes returns the timestamps a setattr request asks for. A nil
// result stamps both with the current time. A timestamp missing from the
// request keeps its current value.
func (f *FS) requestedTimes(path string, req *fuse.SetattrRequest) (*filesystem.Times, error) {
	atimeNow := req.Valid.AtimeNow()
	mtimeNow := req.Valid.MtimeNow()

	if atimeNow && mtimeNow {
		return nil, nil //nolint:nilnil
	}

	meta, err := f.engine.GetMetadata(path)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	times := &filesystem.Times{
		AccessedAt: meta.AccessedAt,
		ModifiedAt: meta.ModifiedAt,
	}

	now := time.Now()

	switch {
	case atimeNow:
		times.AccessedAt = now
	case req.Valid.Atime():
		times.AccessedAt = req.Atime
	}

	switch {
	case mtimeNow:
		times.ModifiedAt = now
	case req.Valid.Mtime():
		times.ModifiedAt = req.Mtime
	}

	return times, nil
}

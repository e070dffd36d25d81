package vfs

import (
	"bytes"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/metrics"
	"github.com/wippyai/mujoco-runtime/native"
)

// Config holds optional collaborators. A nil Config is valid.
type Config struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// VFS is a virtual file table backed by one native mjVFS.
type VFS struct {
	lib     native.Library
	handle  native.VFSHandle
	limits  native.Limits
	log     *zap.Logger
	metrics *metrics.Metrics

	names  []string
	mu     sync.Mutex
	closed bool
}

// New allocates an empty native file table.
func New(lib native.Library, cfg *Config) (*VFS, error) {
	if lib == nil {
		return nil, errors.InvalidInput(errors.PhaseVFS, "nil native library")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	h := lib.NewVFS()
	if h == nil {
		return nil, errors.Native(errors.PhaseVFS, "mjVFS allocation failed")
	}
	cfg.Metrics.HandleOpened(metrics.KindVFS)

	return &VFS{
		lib:     lib,
		handle:  h,
		limits:  lib.Limits(),
		log:     log,
		metrics: cfg.Metrics,
	}, nil
}

// Limits returns the native capacity and name length bounds.
func (v *VFS) Limits() native.Limits {
	return v.limits
}

func (v *VFS) validateName(name string) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseVFS, "empty file name")
	}
	if bytes.IndexByte([]byte(name), 0) >= 0 {
		return errors.New(errors.PhaseVFS, errors.KindInvalidInput).
			Path(name).Detail("file name contains NUL").Build()
	}
	if limit := v.limits.MaxVFSName - 1; len(name) > limit {
		return errors.NameTooLong(name, limit)
	}
	return nil
}

// Add stores a copy of data under name.
func (v *VFS) Add(name string, data []byte) error {
	if err := v.validateName(name); err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New(errors.PhaseVFS, errors.KindInvalidInput).
			Path(name).Detail("empty file").Build()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return errors.Closed(errors.PhaseVFS, "vfs")
	}
	if len(v.names) >= v.limits.MaxVFSFiles {
		return errors.TableFull(name, v.limits.MaxVFSFiles)
	}

	switch code := v.lib.MakeEmptyFileVFS(v.handle, name, len(data)); code {
	case native.VFSOk:
	case native.VFSFull:
		return errors.TableFull(name, v.limits.MaxVFSFiles)
	case native.VFSRepeated:
		return errors.DuplicateName(name)
	default:
		return errors.New(errors.PhaseVFS, errors.KindNative).
			Path(name).Value(code).Detail("mj_makeEmptyFileVFS failed").Build()
	}

	idx := v.lib.FindFileVFS(v.handle, name)
	if idx < 0 {
		errors.Invariant(errors.PhaseVFS, "file %q not found right after creation", name)
	}
	dst := v.lib.FileData(v.handle, idx)
	if len(dst) != len(data) {
		errors.Invariant(errors.PhaseVFS, "native buffer for %q has %d bytes, want %d", name, len(dst), len(data))
	}
	copy(dst, data)

	v.names = append(v.names, name)
	v.metrics.AddVFSFiles(1)
	v.log.Debug("vfs file added", zap.String("name", name), zap.Int("size", len(data)))
	return nil
}

// Get returns a copy of the named file.
func (v *VFS) Get(name string) ([]byte, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, false
	}
	idx := v.lib.FindFileVFS(v.handle, name)
	if idx < 0 {
		return nil, false
	}
	return bytes.Clone(v.lib.FileData(v.handle, idx)), true
}

// Delete removes the named file. It reports false if the file was absent.
func (v *VFS) Delete(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	if v.lib.DeleteFileVFS(v.handle, name) != 0 {
		return false
	}
	for i, n := range v.names {
		if n == name {
			v.names = append(v.names[:i], v.names[i+1:]...)
			break
		}
	}
	v.metrics.AddVFSFiles(-1)
	v.log.Debug("vfs file deleted", zap.String("name", name))
	return true
}

// Len returns the number of files in the table.
func (v *VFS) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0
	}
	return v.lib.FileCountVFS(v.handle)
}

// Names returns the file names in insertion order.
func (v *VFS) Names() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.names...)
}

// Use calls fn with the native handle while holding the table lock. The
// handle must not be retained after fn returns.
func (v *VFS) Use(fn func(h native.VFSHandle) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return errors.Closed(errors.PhaseVFS, "vfs")
	}
	return fn(v.handle)
}

// Close releases the native table. Calling Close more than once is a no-op.
func (v *VFS) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	v.metrics.AddVFSFiles(-len(v.names))
	v.metrics.HandleClosed(metrics.KindVFS)
	v.lib.DeleteVFS(v.handle)
	v.handle = nil
	v.names = nil
	return nil
}

package nativetest

import (
	"os"
	"path/filepath"

	"github.com/wippyai/mujoco-runtime/native"
)

// vfsTable mirrors mjVFS: parallel name/data slots compacted on delete.
type vfsTable struct {
	limits native.Limits
	names  []string
	files  [][]byte
}

func (t *vfsTable) makeEmpty(name string, size int) int {
	if len(t.names) >= t.limits.MaxVFSFiles {
		return native.VFSFull
	}
	// strncpy into a fixed slot: long names are silently cut.
	if limit := t.limits.MaxVFSName - 1; len(name) > limit {
		name = name[:limit]
	}
	if t.find(name) >= 0 {
		return native.VFSRepeated
	}
	if size < 0 {
		size = 0
	}
	t.names = append(t.names, name)
	t.files = append(t.files, make([]byte, size))
	return native.VFSOk
}

func (t *vfsTable) find(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return native.VFSNotFound
}

func (t *vfsTable) fileData(idx int) []byte {
	if idx < 0 || idx >= len(t.files) || len(t.files[idx]) == 0 {
		return nil
	}
	return t.files[idx]
}

func (t *vfsTable) remove(name string) int {
	i := t.find(name)
	if i < 0 {
		return native.VFSNotFound
	}
	t.names = append(t.names[:i], t.names[i+1:]...)
	t.files = append(t.files[:i], t.files[i+1:]...)
	return 0
}

func (t *vfsTable) clear() {
	t.names = nil
	t.files = nil
}

// readResource resolves a file the way mj_loadXML does: the VFS first, then
// the filesystem relative to dir.
func readResource(name, dir string, t *vfsTable) ([]byte, error) {
	if t != nil {
		if i := t.find(name); i >= 0 {
			return append([]byte(nil), t.files[i]...), nil
		}
	}
	path := name
	if dir != "" && !filepath.IsAbs(name) {
		path = filepath.Join(dir, name)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errorf("resource not found via provider or OS filesystem: '%s'", name)
	}
	return b, nil
}

//go:build darwin || linux

package native

import (
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/wippyai/mujoco-runtime/errors"
)

// Probe opens the shared library at path without cgo and returns the version
// string it reports. The library is closed again before returning. It is used
// to produce actionable errors; it does not bind any simulation entry points.
func Probe(path string) (string, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return "", errors.Unavailable("dlopen "+path, err)
	}
	defer purego.Dlclose(h)

	sym, err := purego.Dlsym(h, "mj_versionString")
	if err != nil {
		return "", errors.Unavailable("mj_versionString not exported by "+path, err)
	}

	var versionString func() uintptr
	purego.RegisterFunc(&versionString, sym)
	return goString(versionString()), nil
}

// goString copies a nul-terminated C string owned by the library.
func goString(c uintptr) string {
	ptr := *(*unsafe.Pointer)(unsafe.Pointer(&c))
	if ptr == nil {
		return ""
	}
	var n uintptr
	for *(*byte)(unsafe.Add(ptr, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(ptr), n))
}

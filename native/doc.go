// Package native is the raw binding layer between mujoco-runtime and the
// MuJoCo C library.
//
// Library lists every C entry point the rest of the module consumes. It is
// deliberately thin: methods take and return opaque handles, write into
// caller-owned buffers, and describe flat model/data arrays as
// mjruntime.Array values. Validation, ownership and marshalling live in the
// vfs, sim and internal/marshal packages.
//
// # Implementations
//
//	cgo binding       Open(), compiled with -tags mujoco; links -lmujoco
//	nativetest        pure-Go engine used by the test suite
//
// Without the mujoco tag Open returns ErrUnavailable. Probe uses purego to
// dlopen a shared library and read its version without cgo, which Open uses
// to explain why a library that is installed cannot be used.
//
// # Supported versions
//
// The cgo binding compiles against MuJoCo 2.1.0 through 2.3.x headers. It
// reads the mjVFS table directly (nfile, filesize, filedata, mjMAXVFS),
// which MuJoCo 3.0 replaced, and it performs no license activation, which
// releases before 2.1.0 required. Other headers fail the build. nativetest
// reports version 2.3.7.
//
// # Enumerations
//
// ObjType and GeomType mirror mjtObj and mjtGeom. The cgo binding asserts
// their numeric values against the header at compile time.
package native

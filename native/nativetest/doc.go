// Package nativetest provides an in-memory stand-in for the MuJoCo C library.
//
// Library implements native.Library entirely in Go so the safety layer can be
// exercised without libmujoco. It is not a physics engine: it compiles a
// small MJCF subset, keeps every model and data array in Go slices exposed
// through unsafe pointers, and advances state with a unit-mass toy
// integrator.
//
// # Supported MJCF
//
//	mujoco[@model]
//	  option[@timestep @gravity]
//	  asset/mesh[@name @file @vertex @face]
//	  worldbody/{body,geom,light}
//	  body[@name @pos @quat]/{body,geom,light,joint,freejoint}
//	  geom[@name @type @size @pos @quat @rgba @mesh @group @contype]
//	  joint[@name @type(hinge|slide|free) @axis]
//	  actuator/motor[@name @joint @gear]
//	  sensor/{jointpos,jointvel}[@name @joint]
//
// Mesh files are read from the VFS passed to the loader, then from the
// filesystem, and use the OBJ subset of "v x y z" and "f a b c" lines.
//
// # Native behavior
//
// The fake keeps the contracts the safety layer relies on: loader errors are
// written as nul-terminated text into the caller's buffer, VFS result codes
// match mj_makeEmptyFileVFS, binary models start with the int32 header
// 54321, and lookups return -1 or a nil name when absent. Handles are
// tracked so that a double free or use after free panics the way the native
// library would corrupt memory. FailNext injects a nil return from the next
// allocation of a given kind.
package nativetest

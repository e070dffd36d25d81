// Package mjruntime provides a memory-safe Go layer over the MuJoCo physics
// engine's C API.
//
// The native engine exposes opaque, manually managed structures (a compiled
// model, a mutable simulation state, a virtual file table) and flat,
// pointer-addressed arrays for per-entity attributes. This library owns those
// handles, releases them exactly once, and copies everything it reads out of
// native memory into typed Go values.
//
// # Architecture Overview
//
//	mjruntime/           Root package with the flat Array descriptor
//	├── native/          Raw binding layer (cgo behind the "mujoco" build tag)
//	│   └── nativetest/  Pure-Go engine implementing native.Library for tests
//	├── vfs/             Virtual file table wrapper
//	├── sim/             Engine, Model, State, Simulation and entity views
//	├── internal/marshal Error-buffer codec and array marshaller
//	├── metrics/         Prometheus collectors
//	├── config/          YAML configuration and logger construction
//	└── errors/          Structured error types
//
// The native binding supports MuJoCo 2.1.0 through 2.3.x; see package native.
//
// # Quick Start
//
//	lib, err := native.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng, err := sim.New(&sim.Config{Library: lib})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	model, err := eng.LoadDescription(mjcf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := sim.NewSimulation(model)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	for i := 0; i < 1000; i++ {
//	    if err := s.Step(); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	positions, err := s.Positions()
//
// # Building
//
// The cgo binding is compiled only with the mujoco build tag and requires the
// MuJoCo headers and shared library (2.x series, with the mjVFS file table):
//
//	CGO_CFLAGS=-I/opt/mujoco/include CGO_LDFLAGS=-L/opt/mujoco/lib \
//	    go build -tags mujoco ./...
//
// Without the tag, native.Open returns native.ErrUnavailable and everything
// else still compiles, which is how the test suite runs against
// native/nativetest.
//
// # Thread Safety
//
// Model is safe for concurrent read-only use. State and Simulation are NOT
// thread-safe: stepping mutates native memory in place with no internal
// locking. An Engine may load models from several goroutines; its VFS is
// guarded by a mutex.
//
// # Errors
//
// Caller mistakes (missing files, full or duplicate VFS entries, parse errors
// reported by the engine) are returned as *errors.Error values. Broken
// invariants (a native call reporting success with a nil handle, a non-UTF-8
// error buffer, an unknown geom type code) panic with a descriptive
// *errors.Error, since they indicate a defect rather than a runtime condition.
package mjruntime

// Package sim is the safe API over a native MuJoCo library: loading models,
// allocating state, stepping, and reading typed snapshots.
//
// # Loading
//
// An Engine owns a virtual file table and loads models three ways:
//
//	eng.LoadFile(path)        MJCF or URDF on disk; path must be a regular file
//	eng.LoadDescription(xml)  in-memory MJCF, staged in the VFS
//	eng.LoadBytes(mjb)        compiled binary from Model.Bytes, staged in the VFS
//
// In-memory inputs are written under a reserved, unique name that is removed
// on every exit path, so repeated loads never collide. Loader errors are
// decoded from the native error buffer and returned as *errors.Error with
// kind native. Binary input is checked for the mjb header before it reaches
// the native loader, which would otherwise abort the process on garbage.
//
// # Ownership
//
// Model, State and Simulation each own one native object and free it exactly
// once in Close. Clone always performs a native deep copy. A Simulation owns
// its Model and State and closes both.
//
//	model, err := eng.LoadDescription(xml)
//	s, err := sim.NewSimulation(model)
//	defer s.Close()
//
//	for i := 0; i < 1000; i++ {
//		if err := s.Step(); err != nil {
//			return err
//		}
//	}
//	pos, err := s.Positions()
//
// A State is bound to the Model it was created from and always runs against
// it. Simulation.Clone binds the copied state to the copied model.
//
// # Snapshots
//
// Model.Bodies, Model.Geoms and Model.Meshes, and every Simulation vector
// accessor, copy out of native memory into fresh Go values widened to
// float64. They never alias native arrays and stay valid after Close.
// Every mesh geom carries its own copy of the mesh.
//
// # Failure model
//
// Caller mistakes are returned as errors: missing files, VFS capacity or
// name collisions, native load errors, closed handles and wrong control
// lengths (errors.ErrDimensionMismatch, leaving the control buffer as it
// was). Native contract breaches panic with an *errors.Error of kind
// invariant: a NULL model with an empty error buffer, a failed mjData
// allocation, a non-UTF-8 error buffer, an unknown geom type code, or an id
// lookup outside the declared object count.
//
// # Concurrency
//
// Engine and Model are safe for concurrent use; a Model may be read from
// many goroutines. State and Simulation are not: stepping mutates native
// memory in place without locking.
package sim

// Package metrics holds the Prometheus collectors of the runtime.
//
// A nil *Metrics is valid and records nothing, so components accept an
// optional *Metrics without checking it:
//
//	m := metrics.New("mujoco")
//	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
//		return err
//	}
//	eng, err := sim.New(&sim.Config{Library: lib, Metrics: m})
//
// Collectors:
//
//	models_loaded_total{source,status}  model loads by source (file, description, bytes, clone)
//	steps_total                         simulation steps
//	step_duration_seconds               wall time per step
//	serialized_bytes                    size of models written by Model.Bytes
//	vfs_files                           occupied slots across virtual file tables
//	live_handles{kind}                  native objects not yet released (model, state, vfs)
package metrics

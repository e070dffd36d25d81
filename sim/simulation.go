package sim

import (
	"time"

	"github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/internal/marshal"
	"github.com/wippyai/mujoco-runtime/native"
)

// Simulation pairs a Model with a State created from it and exposes stepping
// and vector extraction. Extracted vectors are fresh slices; none alias
// native memory.
//
// A Simulation is not safe for concurrent use. Step may take time
// proportional to model complexity and cannot be interrupted.
type Simulation struct {
	model *Model
	state *State
}

// NewSimulation creates state for model and takes ownership of model:
// closing the simulation closes the model too.
func NewSimulation(model *Model) (*Simulation, error) {
	state, err := NewState(model)
	if err != nil {
		return nil, err
	}
	return &Simulation{model: model, state: state}, nil
}

// Model returns the simulated model. It is owned by the simulation.
func (s *Simulation) Model() *Model {
	return s.model
}

// State returns the simulation state.
func (s *Simulation) State() *State {
	return s.state
}

func (s *Simulation) with(fn func(m native.ModelHandle, d native.DataHandle) error) error {
	return s.state.with(fn)
}

// SetControl writes the actuator controls. values must hold exactly one
// entry per actuator; otherwise the control buffer is left untouched and
// errors.ErrDimensionMismatch is returned.
func (s *Simulation) SetControl(values []float64) error {
	return s.with(func(m native.ModelHandle, d native.DataHandle) error {
		if nu := s.model.lib.ModelCount(m, native.CountU); len(values) != nu {
			return errors.DimensionMismatch(errors.PhaseRuntime, "control", len(values), nu)
		}
		return marshal.WriteFloat64s(s.model.lib.DataArray(m, d, native.FieldCtrl), values)
	})
}

// Step advances the simulation by one timestep.
func (s *Simulation) Step() error {
	return s.with(func(m native.ModelHandle, d native.DataHandle) error {
		start := time.Now()
		s.model.lib.Step(m, d)
		s.model.metrics.ObserveStep(time.Since(start))
		return nil
	})
}

// EvaluateSensors runs the position, velocity and acceleration sensor
// stages against the current state. Call it after Step.
func (s *Simulation) EvaluateSensors() error {
	return s.with(func(m native.ModelHandle, d native.DataHandle) error {
		lib := s.model.lib
		lib.SensorPos(m, d)
		lib.SensorVel(m, d)
		lib.SensorAcc(m, d)
		return nil
	})
}

// Reset restores the initial state and runs one forward pass.
func (s *Simulation) Reset() error {
	return s.state.Reset()
}

// Time returns the simulation time in seconds.
func (s *Simulation) Time() float64 {
	return s.state.Time()
}

// float64s reads count*stride scalars of a data array.
func (s *Simulation) float64s(f native.Field, count native.Count) ([]float64, error) {
	var out []float64
	err := s.with(func(m native.ModelHandle, d native.DataHandle) error {
		lib := s.model.lib
		var err error
		out, err = marshal.Float64s(lib.DataArray(m, d, f), marshal.All(lib.ModelCount(m, count)), 1)
		return err
	})
	return out, err
}

func vecs[V marshal.Vec](s *Simulation, f native.Field, count native.Count) ([]V, error) {
	var out []V
	err := s.with(func(m native.ModelHandle, d native.DataHandle) error {
		lib := s.model.lib
		var err error
		out, err = marshal.Vecs[V](lib.DataArray(m, d, f), marshal.All(lib.ModelCount(m, count)))
		return err
	})
	return out, err
}

// Positions returns the world position of every geom.
func (s *Simulation) Positions() ([][3]float64, error) {
	return vecs[[3]float64](s, native.FieldGeomXPos, native.CountGeom)
}

// Orientations returns the world orientation of every geom as a unit
// quaternion (w, x, y, z).
func (s *Simulation) Orientations() ([][4]float64, error) {
	mats, err := vecs[[9]float64](s, native.FieldGeomXMat, native.CountGeom)
	if err != nil {
		return nil, err
	}
	return marshal.Quats(mats), nil
}

// BodyPositions returns the world position of every body.
func (s *Simulation) BodyPositions() ([][3]float64, error) {
	return vecs[[3]float64](s, native.FieldXPos, native.CountBody)
}

// BodyOrientations returns the world orientation of every body.
func (s *Simulation) BodyOrientations() ([][4]float64, error) {
	return vecs[[4]float64](s, native.FieldXQuat, native.CountBody)
}

// GeneralizedPositions returns qpos.
func (s *Simulation) GeneralizedPositions() ([]float64, error) {
	return s.float64s(native.FieldQPos, native.CountQ)
}

// GeneralizedVelocities returns qvel.
func (s *Simulation) GeneralizedVelocities() ([]float64, error) {
	return s.float64s(native.FieldQVel, native.CountV)
}

// ExternalContactForces returns cfrc_ext: per body, torque then force, in
// the world frame.
func (s *Simulation) ExternalContactForces() ([][6]float64, error) {
	return vecs[[6]float64](s, native.FieldCfrcExt, native.CountBody)
}

// SensorReadings returns sensordata.
func (s *Simulation) SensorReadings() ([]float64, error) {
	return s.float64s(native.FieldSensorData, native.CountSensorData)
}

// Controls returns the current actuator controls.
func (s *Simulation) Controls() ([]float64, error) {
	return s.float64s(native.FieldCtrl, native.CountU)
}

// Clone deep copies both the model and the state.
func (s *Simulation) Clone() (*Simulation, error) {
	model, err := s.model.Clone()
	if err != nil {
		return nil, err
	}
	state, err := s.state.cloneFor(model)
	if err != nil {
		model.Close()
		return nil, err
	}
	return &Simulation{model: model, state: state}, nil
}

// Close releases the state, then the model.
func (s *Simulation) Close() error {
	s.state.Close()
	return s.model.Close()
}

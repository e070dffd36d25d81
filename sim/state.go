package sim

import (
	"github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/metrics"
	"github.com/wippyai/mujoco-runtime/native"
)

// State owns one mjData. It is bound to the Model it was created from and
// borrows that model for the duration of each call. Closing the model makes
// the state unusable. A State is not safe for concurrent use.
type State struct {
	lib     native.Library
	model   *Model
	handle  native.DataHandle
	metrics *metrics.Metrics
	closed  bool
}

// NewState allocates state for model and runs one forward pass so derived
// quantities are populated before the first read.
func NewState(model *Model) (*State, error) {
	var s *State
	err := model.read(func(h native.ModelHandle) error {
		d := model.lib.MakeData(h)
		if d == nil {
			errors.Invariant(errors.PhaseRuntime, "mj_makeData returned NULL")
		}
		model.lib.Forward(h, d)
		model.metrics.HandleOpened(metrics.KindState)
		s = &State{lib: model.lib, model: model, handle: d, metrics: model.metrics}
		return nil
	})
	return s, err
}

// Model returns the model the state was created from.
func (s *State) Model() *Model {
	return s.model
}

// with runs fn with the handles of the state's own model and data.
func (s *State) with(fn func(m native.ModelHandle, d native.DataHandle) error) error {
	if s.closed {
		return errors.Closed(errors.PhaseRuntime, "state")
	}
	return s.model.read(func(h native.ModelHandle) error {
		return fn(h, s.handle)
	})
}

// Reset restores the initial configuration and runs one forward pass.
func (s *State) Reset() error {
	return s.with(func(m native.ModelHandle, d native.DataHandle) error {
		s.lib.ResetData(m, d)
		s.lib.Forward(m, d)
		return nil
	})
}

// Clone returns an independent deep copy of the state, bound to the same
// model.
func (s *State) Clone() (*State, error) {
	return s.cloneFor(s.model)
}

// cloneFor copies the state into fresh data bound to model, which must be
// the state's model or a copy of the same loaded model.
func (s *State) cloneFor(model *Model) (*State, error) {
	if s.closed {
		return nil, errors.Closed(errors.PhaseRuntime, "state")
	}
	if model.origin != s.model.origin {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Object("state").Detail("model is not a copy of the model the state was created from").Build()
	}
	var c *State
	err := model.read(func(m native.ModelHandle) error {
		cd := s.lib.CopyData(m, s.handle)
		if cd == nil {
			errors.Invariant(errors.PhaseRuntime, "mj_copyData returned NULL")
		}
		s.metrics.HandleOpened(metrics.KindState)
		c = &State{lib: s.lib, model: model, handle: cd, metrics: s.metrics}
		return nil
	})
	return c, err
}

// Time returns the simulation time in seconds.
func (s *State) Time() float64 {
	if s.closed {
		return 0
	}
	return s.lib.Time(s.handle)
}

// Close frees the native state. It is safe to call more than once.
func (s *State) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.lib.DeleteData(s.handle)
	s.handle = nil
	s.metrics.HandleClosed(metrics.KindState)
	return nil
}

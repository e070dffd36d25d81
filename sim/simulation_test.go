package sim

import (
	"bytes"
	stderrors "errors"
	"math"
	"slices"
	"testing"

	"github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/internal/marshal"
	"github.com/wippyai/mujoco-runtime/native"
	"github.com/wippyai/mujoco-runtime/native/nativetest"
)

func TestStepScenario(t *testing.T) {
	eng, _ := newEngine(t)
	s := newSim(t, eng, scene)

	for i := 0; i < 10; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		pos, err := s.Positions()
		if err != nil {
			t.Fatal(err)
		}
		quats, err := s.Orientations()
		if err != nil {
			t.Fatal(err)
		}
		qpos, err := s.GeneralizedPositions()
		if err != nil {
			t.Fatal(err)
		}
		if len(pos) != s.Model().NGeom() || len(quats) != s.Model().NGeom() || len(qpos) != s.Model().NQ() {
			t.Fatalf("step %d: %d positions, %d orientations, %d coordinates", i, len(pos), len(quats), len(qpos))
		}
		for _, q := range quats {
			if n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3]); math.Abs(n-1) > 1e-9 {
				t.Fatalf("step %d: quaternion %v is not unit", i, q)
			}
		}
	}
	if !near(s.Time(), 10*0.002) {
		t.Errorf("time = %v", s.Time())
	}
}

func TestInitialState(t *testing.T) {
	eng, _ := newEngine(t)
	s := newSim(t, eng, scene)

	pos, _ := s.Positions()
	if !slices.Equal(pos, [][3]float64{{0, 0, 0}, {0, 0, 1}}) {
		t.Errorf("positions = %v", pos)
	}
	quats, _ := s.Orientations()
	for _, q := range quats {
		if q != [4]float64{1, 0, 0, 0} {
			t.Errorf("orientation = %v, want identity", q)
		}
	}
	bpos, _ := s.BodyPositions()
	if len(bpos) != 2 || bpos[1] != [3]float64{0, 0, 1} {
		t.Errorf("body positions = %v", bpos)
	}
	bquat, _ := s.BodyOrientations()
	if len(bquat) != 2 {
		t.Errorf("body orientations = %v", bquat)
	}
	qpos, _ := s.GeneralizedPositions()
	if !slices.Equal(qpos, []float64{0, 0, 1, 1, 0, 0, 0}) {
		t.Errorf("qpos = %v", qpos)
	}
	qvel, _ := s.GeneralizedVelocities()
	if len(qvel) != 6 {
		t.Errorf("qvel = %v", qvel)
	}
	ctrl, _ := s.Controls()
	if len(ctrl) != 0 {
		t.Errorf("controls = %v", ctrl)
	}
}

func TestFallAndRest(t *testing.T) {
	eng, _ := newEngine(t)
	s := newSim(t, eng, scene)

	for i := 0; i < 500; i++ {
		s.Step()
	}
	pos, _ := s.Positions()
	if !near(pos[1][2], 0.3) {
		t.Errorf("box rests at z = %v, want 0.3", pos[1][2])
	}
	forces, err := s.ExternalContactForces()
	if err != nil {
		t.Fatal(err)
	}
	if len(forces) != 2 {
		t.Fatalf("len = %d", len(forces))
	}
	if !near(forces[1][5], 9.81) {
		t.Errorf("support force = %v", forces[1])
	}
}

func TestExtractionDoesNotAlias(t *testing.T) {
	eng, _ := newEngine(t)
	s := newSim(t, eng, scene)

	pos, _ := s.Positions()
	pos[1][2] = 42
	qpos, _ := s.GeneralizedPositions()
	qpos[2] = 42

	again, _ := s.Positions()
	if again[1][2] != 1 {
		t.Error("Positions aliases native memory")
	}
	qagain, _ := s.GeneralizedPositions()
	if qagain[2] != 1 {
		t.Error("GeneralizedPositions aliases native memory")
	}
}

func TestSetControl(t *testing.T) {
	eng, lib := newEngine(t)
	s := newSim(t, eng, arm)

	if err := s.SetControl([]float64{0.5}); err != nil {
		t.Fatal(err)
	}
	raw := func() []byte {
		m, d := s.model.handle, s.state.handle
		return bytes.Clone(marshal.RawBytes(lib.DataArray(m, d, native.FieldCtrl)))
	}
	before := raw()

	for _, bad := range [][]float64{nil, {1, 2}} {
		err := s.SetControl(bad)
		if !stderrors.Is(err, errors.ErrDimensionMismatch) {
			t.Fatalf("SetControl(%v) = %v, want dimension mismatch", bad, err)
		}
		if !bytes.Equal(raw(), before) {
			t.Fatalf("SetControl(%v) modified the control buffer", bad)
		}
	}

	ctrl, _ := s.Controls()
	if !slices.Equal(ctrl, []float64{0.5}) {
		t.Errorf("controls = %v", ctrl)
	}
}

func TestSensorReadings(t *testing.T) {
	eng, _ := newEngine(t)
	s := newSim(t, eng, arm)

	if err := s.SetControl([]float64{1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if err := s.EvaluateSensors(); err != nil {
		t.Fatal(err)
	}

	readings, err := s.SensorReadings()
	if err != nil {
		t.Fatal(err)
	}
	// gear 2, unit inertia, dt 0.01
	if len(readings) != 2 || !near(readings[0], 0.0002) || !near(readings[1], 0.02) {
		t.Errorf("readings = %v", readings)
	}
}

func TestReset(t *testing.T) {
	eng, _ := newEngine(t)
	s := newSim(t, eng, scene)
	initial, _ := s.Positions()

	for i := 0; i < 50; i++ {
		s.Step()
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if s.Time() != 0 {
		t.Errorf("time after reset = %v", s.Time())
	}
	pos, _ := s.Positions()
	if !slices.Equal(pos, initial) {
		t.Errorf("positions after reset = %v, want %v", pos, initial)
	}
	qvel, _ := s.GeneralizedVelocities()
	for _, v := range qvel {
		if v != 0 {
			t.Fatalf("qvel after reset = %v", qvel)
		}
	}
}

func TestSimulationClone(t *testing.T) {
	eng, lib := newEngine(t)
	s := newSim(t, eng, scene)
	for i := 0; i < 5; i++ {
		s.Step()
	}

	c, err := s.Clone()
	if err != nil {
		t.Fatal(err)
	}
	if c.State().Model() != c.Model() || c.Model() == s.Model() {
		t.Fatal("cloned state must be bound to the cloned model")
	}
	if c.Time() != s.Time() {
		t.Errorf("clone time = %v, want %v", c.Time(), s.Time())
	}
	want, _ := s.Positions()
	got, _ := c.Positions()
	if !slices.Equal(got, want) {
		t.Errorf("clone positions = %v, want %v", got, want)
	}

	for i := 0; i < 10; i++ {
		c.Step()
	}
	after, _ := s.Positions()
	if !slices.Equal(after, want) {
		t.Error("stepping the clone moved the original")
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if st := lib.Live(); st.Models != 1 || st.Data != 1 {
		t.Errorf("live after closing clone = %+v", st)
	}
}

func TestSimulationCloneDataFailure(t *testing.T) {
	eng, lib := newEngine(t)
	s := newSim(t, eng, scene)
	lib.FailNext(nativetest.OpCopyData, 1)

	expectInvariant(t, func() { s.Clone() })
}

func TestNewStateFailure(t *testing.T) {
	eng, lib := newEngine(t)
	m := loadModel(t, eng, scene)
	lib.FailNext(nativetest.OpMakeData, 1)

	expectInvariant(t, func() { NewState(m) })
}

func TestStateBoundToModel(t *testing.T) {
	eng, lib := newEngine(t)
	sceneModel := loadModel(t, eng, scene)
	litModel := loadModel(t, eng, lit)

	// Same bodies, geoms and dofs, different light count.
	if sceneModel.NQ() != litModel.NQ() || sceneModel.NGeom() != litModel.NGeom() || sceneModel.NBody() != litModel.NBody() {
		t.Fatal("fixtures must share their body, geom and dof counts")
	}
	if sceneModel.NLight() == litModel.NLight() {
		t.Fatal("fixtures must differ in light count")
	}

	st, err := NewState(sceneModel)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if st.Model() != sceneModel {
		t.Fatal("state is not bound to its model")
	}

	if err := st.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	c, err := st.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if c.Model() != sceneModel {
		t.Error("clone is not bound to the source model")
	}
	c.Close()

	before := lib.Created(nativetest.OpCopyData)
	if _, err := st.cloneFor(litModel); !stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidInput}) {
		t.Errorf("clone into an unrelated model = %v", err)
	}
	if got := lib.Created(nativetest.OpCopyData); got != before {
		t.Error("rejected clone reached the native copy")
	}

	twin, err := sceneModel.Clone()
	if err != nil {
		t.Fatal(err)
	}
	defer twin.Close()
	tc, err := st.cloneFor(twin)
	if err != nil {
		t.Fatalf("clone into a model copy: %v", err)
	}
	defer tc.Close()
	if tc.Model() != twin {
		t.Error("clone is not bound to the model copy")
	}
	if err := tc.Reset(); err != nil {
		t.Errorf("Reset of clone: %v", err)
	}
}

func TestStateAfterModelClose(t *testing.T) {
	eng, _ := newEngine(t)
	m, err := eng.LoadDescription(scene)
	if err != nil {
		t.Fatal(err)
	}
	st, err := NewState(m)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	m.Close()
	if err := st.Reset(); !stderrors.Is(err, errors.ErrClosed) {
		t.Errorf("Reset after model close = %v", err)
	}
	if _, err := st.Clone(); !stderrors.Is(err, errors.ErrClosed) {
		t.Errorf("Clone after model close = %v", err)
	}
}

func TestSimulationClose(t *testing.T) {
	eng, lib := newEngine(t)
	m, err := eng.LoadDescription(arm)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewSimulation(m)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if st := lib.Live(); st.Models != 0 || st.Data != 0 {
		t.Fatalf("live after close = %+v", st)
	}

	if err := s.Step(); !stderrors.Is(err, errors.ErrClosed) {
		t.Errorf("Step after close = %v", err)
	}
	if err := s.SetControl([]float64{1}); !stderrors.Is(err, errors.ErrClosed) {
		t.Errorf("SetControl after close = %v", err)
	}
	if _, err := s.Positions(); !stderrors.Is(err, errors.ErrClosed) {
		t.Errorf("Positions after close = %v", err)
	}
	if s.Time() != 0 {
		t.Error("time after close is not zero")
	}
}

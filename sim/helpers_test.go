package sim

import (
	"testing"

	"github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/native/nativetest"
)

// scene has a light, a static plane and one free body with a box.
const scene = `<mujoco model="scene">
  <worldbody>
    <light diffuse=".5 .5 .5" pos="0 0 3" dir="0 0 -1"/>
    <geom type="plane" size="1 1 0.1" rgba=".9 0 0 1"/>
    <body name="body1" pos="0 0 1">
      <joint type="free"/>
      <geom name="geom1" type="box" size=".1 .2 .3" rgba="0 .9 0 1"/>
    </body>
  </worldbody>
</mujoco>`

// arm has a hinge driven by one motor, a slider and two joint sensors.
const arm = `<mujoco model="arm">
  <option timestep="0.01" gravity="0 0 -9.81"/>
  <worldbody>
    <body name="upper" pos="0 0 1">
      <joint name="shoulder" axis="0 1 0"/>
      <geom name="upper_geom" type="capsule" size="0.05 0.2" group="1"/>
      <body name="lower" pos="0 0 0.4">
        <joint name="slider" type="slide" axis="1 0 0"/>
        <geom name="lower_geom" type="sphere" size="0.05"/>
      </body>
    </body>
  </worldbody>
  <actuator>
    <motor name="shoulder_motor" joint="shoulder" gear="2"/>
  </actuator>
  <sensor>
    <jointpos name="shoulder_pos" joint="shoulder"/>
    <jointvel name="shoulder_vel" joint="shoulder"/>
  </sensor>
</mujoco>`

// tetra has one mesh used by one geom.
const tetra = `<mujoco model="tetra">
  <asset>
    <mesh name="tet" vertex="0 0 0  1 0 0  0 1 0  0 0 1" face="0 2 1  0 1 3  0 3 2  1 2 3"/>
  </asset>
  <worldbody>
    <body name="rock" pos="0 0 2">
      <freejoint/>
      <geom name="rock_geom" type="mesh" mesh="tet"/>
      <geom name="rock_proxy" type="sphere" size="0.5" group="3"/>
    </body>
  </worldbody>
</mujoco>`

// lit has the body, geom and dof counts of scene but three lights.
const lit = `<mujoco model="lit">
  <worldbody>
    <light pos="0 0 3"/>
    <light pos="1 0 3"/>
    <light pos="0 1 3"/>
    <geom type="plane" size="1 1 0.1"/>
    <body name="ball" pos="0 0 1">
      <freejoint/>
      <geom type="sphere" size=".1"/>
    </body>
  </worldbody>
</mujoco>`

// pair has two geoms sharing one mesh.
const pair = `<mujoco model="pair">
  <asset>
    <mesh name="tet" vertex="0 0 0  1 0 0  0 1 0  0 0 1" face="0 2 1  0 1 3  0 3 2  1 2 3"/>
  </asset>
  <worldbody>
    <geom name="left" type="mesh" mesh="tet" pos="-1 0 0"/>
    <geom name="right" type="mesh" mesh="tet" pos="1 0 0"/>
  </worldbody>
</mujoco>`

func newEngine(t *testing.T) (*Engine, *nativetest.Library) {
	t.Helper()
	lib := nativetest.New(nil)
	eng, err := New(&Config{Library: lib})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng, lib
}

func loadModel(t *testing.T, eng *Engine, desc string) *Model {
	t.Helper()
	m, err := eng.LoadDescription(desc)
	if err != nil {
		t.Fatalf("LoadDescription: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func newSim(t *testing.T, eng *Engine, desc string) *Simulation {
	t.Helper()
	m, err := eng.LoadDescription(desc)
	if err != nil {
		t.Fatalf("LoadDescription: %v", err)
	}
	s, err := NewSimulation(m)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// expectInvariant runs fn and fails unless it panics with an invariant error.
func expectInvariant(t *testing.T, fn func()) *errors.Error {
	t.Helper()
	var got *errors.Error
	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected invariant panic")
			}
			e, ok := errors.Recovered(r)
			if !ok {
				t.Fatalf("panic %v is not an invariant error", r)
			}
			got = e
		}()
		fn()
	}()
	return got
}

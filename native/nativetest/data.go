package nativetest

import (
	"math"

	mjruntime "github.com/wippyai/mujoco-runtime"
	"github.com/wippyai/mujoco-runtime/native"
)

// data is the mutable state. Derived arrays are recomputed by forward.
type data struct {
	Time       float64
	QPos       []float64
	QVel       []float64
	Ctrl       []float64
	XPos       []float64
	XQuat      []float64
	GeomXPos   []float64
	GeomXMat   []float64
	CfrcExt    []float64
	SensorData []float64

	sizes sizes
}

// newData allocates state for m and resets it, like mj_makeData.
func newData(m *model) *data {
	d := &data{
		QPos:       make([]float64, m.NQ),
		QVel:       make([]float64, m.NV),
		Ctrl:       make([]float64, m.NU),
		XPos:       make([]float64, m.NBody*3),
		XQuat:      make([]float64, m.NBody*4),
		GeomXPos:   make([]float64, m.NGeom*3),
		GeomXMat:   make([]float64, m.NGeom*9),
		CfrcExt:    make([]float64, m.NBody*6),
		SensorData: make([]float64, m.NSensorData),
		sizes:      m.sizes(),
	}
	d.reset(m)
	return d
}

func (d *data) clone(m *model) *data {
	c := newData(m)
	c.Time = d.Time
	copy(c.QPos, d.QPos)
	copy(c.QVel, d.QVel)
	copy(c.Ctrl, d.Ctrl)
	copy(c.XPos, d.XPos)
	copy(c.XQuat, d.XQuat)
	copy(c.GeomXPos, d.GeomXPos)
	copy(c.GeomXMat, d.GeomXMat)
	copy(c.CfrcExt, d.CfrcExt)
	copy(c.SensorData, d.SensorData)
	return c
}

// reset restores qpos0 and clears everything else, like mj_resetData.
// Derived quantities stay zero until the next forward.
func (d *data) reset(m *model) {
	d.Time = 0
	copy(d.QPos, m.QPos0)
	for _, s := range [][]float64{d.QVel, d.Ctrl, d.XPos, d.XQuat, d.GeomXPos, d.GeomXMat, d.CfrcExt, d.SensorData} {
		clear(s)
	}
}

func (d *data) array(f native.Field) mjruntime.Array {
	const num = mjruntime.ElemFloat64
	switch f {
	case native.FieldQPos:
		return arrayOf(d.QPos, num)
	case native.FieldQVel:
		return arrayOf(d.QVel, num)
	case native.FieldCtrl:
		return arrayOf(d.Ctrl, num)
	case native.FieldXPos:
		return arrayOf(d.XPos, num)
	case native.FieldXQuat:
		return arrayOf(d.XQuat, num)
	case native.FieldGeomXPos:
		return arrayOf(d.GeomXPos, num)
	case native.FieldGeomXMat:
		return arrayOf(d.GeomXMat, num)
	case native.FieldCfrcExt:
		return arrayOf(d.CfrcExt, num)
	case native.FieldSensorData:
		return arrayOf(d.SensorData, num)
	}
	return mjruntime.Array{}
}

// forward runs kinematics and the position and velocity sensor stages.
func (d *data) forward(m *model) {
	d.kinematics(m)
	d.sensors(m, sensorJointPos)
	d.sensors(m, sensorJointVel)
}

func (d *data) kinematics(m *model) {
	for b := 0; b < m.NBody; b++ {
		var pos [3]float64
		quat := [4]float64{1, 0, 0, 0}
		if parent := int(m.BodyParentID[b]); parent >= 0 {
			ppos := vec3(d.XPos, parent)
			pquat := vec4(d.XQuat, parent)
			pos = add3(ppos, rotate(pquat, vec3(m.BodyPos, b)))
			quat = mulQuat(pquat, vec4(m.BodyQuat, b))
		}
		for j := m.BodyJntAddr[b]; j < m.BodyJntAddr[b]+m.BodyJntNum[b]; j++ {
			qa := int(m.JntQposAddr[j])
			axis := vec3(m.JntAxis, int(j))
			switch m.JntType[j] {
			case jointFree:
				pos = [3]float64{d.QPos[qa], d.QPos[qa+1], d.QPos[qa+2]}
				quat = normalize4([4]float64{d.QPos[qa+3], d.QPos[qa+4], d.QPos[qa+5], d.QPos[qa+6]})
			case jointSlide:
				pos = add3(pos, scale3(rotate(quat, axis), d.QPos[qa]))
			case jointHinge:
				quat = mulQuat(quat, axisAngle(axis, d.QPos[qa]))
			}
		}
		copy(d.XPos[b*3:], pos[:])
		copy(d.XQuat[b*4:], quat[:])
	}
	for g := 0; g < m.NGeom; g++ {
		b := int(m.GeomBodyID[g])
		bpos, bquat := vec3(d.XPos, b), vec4(d.XQuat, b)
		pos := add3(bpos, rotate(bquat, vec3(m.GeomPos, g)))
		mat := quatToMat(mulQuat(bquat, vec4(m.GeomQuat, g)))
		copy(d.GeomXPos[g*3:], pos[:])
		copy(d.GeomXMat[g*9:], mat[:])
	}
}

func (d *data) sensors(m *model, stage int32) {
	for s := 0; s < m.NSensor; s++ {
		if m.SensorType[s] != stage {
			continue
		}
		j := m.SensorObj[s]
		switch stage {
		case sensorJointPos:
			d.SensorData[m.SensorAddr[s]] = d.QPos[m.JntQposAddr[j]]
		case sensorJointVel:
			d.SensorData[m.SensorAddr[s]] = d.QVel[m.JntDofAddr[j]]
		}
	}
}

// step advances one semi-implicit Euler step of unit-mass bodies under
// gravity and motor forces, with a contact clamp against world planes.
func (d *data) step(m *model) {
	dt := m.Timestep
	force := make([]float64, m.NV)
	for u := 0; u < m.NU; u++ {
		force[m.JntDofAddr[m.ActuatorJnt[u]]] += d.Ctrl[u] * m.ActuatorGear[u]
	}
	clear(d.CfrcExt)

	for j := 0; j < m.NJnt; j++ {
		qa, da := int(m.JntQposAddr[j]), int(m.JntDofAddr[j])
		switch m.JntType[j] {
		case jointFree:
			for k := 0; k < 3; k++ {
				d.QVel[da+k] += dt * (m.Gravity[k] + force[da+k])
				d.QPos[qa+k] += dt * d.QVel[da+k]
			}
			for k := 3; k < 6; k++ {
				d.QVel[da+k] += dt * force[da+k]
			}
			w := [3]float64{d.QVel[da+3], d.QVel[da+4], d.QVel[da+5]}
			q := [4]float64{d.QPos[qa+3], d.QPos[qa+4], d.QPos[qa+5], d.QPos[qa+6]}
			if n := math.Sqrt(dot3(w, w)); n > 0 {
				q = mulQuat(q, axisAngle(scale3(w, 1/n), n*dt))
			}
			q = normalize4(q)
			copy(d.QPos[qa+3:qa+7], q[:])
			d.contact(m, j)
		case jointSlide:
			b := int(m.JntBodyID[j])
			axis := rotate(vec4(d.XQuat, b), vec3(m.JntAxis, j))
			d.QVel[da] += dt * (dot3(m.Gravity, axis) + force[da])
			d.QPos[qa] += dt * d.QVel[da]
		case jointHinge:
			d.QVel[da] += dt * force[da]
			d.QPos[qa] += dt * d.QVel[da]
		}
	}
	d.Time += dt
	d.forward(m)
}

// contact keeps a free body above every plane attached to the world body.
func (d *data) contact(m *model, j int) {
	floor, ok := groundHeight(m)
	if !ok {
		return
	}
	b := int(m.JntBodyID[j])
	qa, da := int(m.JntQposAddr[j]), int(m.JntDofAddr[j])
	half := bodyHalfHeight(m, b)
	if d.QPos[qa+2]-half >= floor {
		return
	}
	d.QPos[qa+2] = floor + half
	if d.QVel[da+2] < 0 {
		d.QVel[da+2] = 0
	}
	// cfrc_ext rows are (torque, force); index 5 is the vertical force.
	d.CfrcExt[b*6+5] = -m.Gravity[2]
}

func groundHeight(m *model) (float64, bool) {
	found := false
	h := math.Inf(-1)
	for g := 0; g < m.NGeom; g++ {
		if m.GeomBodyID[g] != 0 || m.GeomType[g] != int32(native.GeomPlane) {
			continue
		}
		found = true
		h = math.Max(h, m.GeomPos[g*3+2])
	}
	return h, found
}

func bodyHalfHeight(m *model, b int) float64 {
	var half float64
	for g := m.BodyGeomAddr[b]; g >= 0 && g < m.BodyGeomAddr[b]+m.BodyGeomNum[b]; g++ {
		size := vec3(m.GeomSize, int(g))
		var h float64
		switch native.GeomType(m.GeomType[g]) {
		case native.GeomSphere:
			h = size[0]
		case native.GeomCapsule:
			h = size[0] + size[1]
		case native.GeomCylinder:
			h = size[1]
		case native.GeomBox, native.GeomEllipsoid, native.GeomMesh:
			h = size[2]
		}
		h -= m.GeomPos[g*3+2]
		half = math.Max(half, h)
	}
	return half
}

func vec3(s []float64, i int) [3]float64 {
	return [3]float64{s[i*3], s[i*3+1], s[i*3+2]}
}

func vec4(s []float64, i int) [4]float64 {
	return [4]float64{s[i*4], s[i*4+1], s[i*4+2], s[i*4+3]}
}

func add3(a, b [3]float64) [3]float64 { return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func sub3(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func dot3(a, b [3]float64) float64    { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func scale3(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize4(q [4]float64) [4]float64 {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n < 1e-15 {
		return [4]float64{1, 0, 0, 0}
	}
	return [4]float64{q[0] / n, q[1] / n, q[2] / n, q[3] / n}
}

func mulQuat(a, b [4]float64) [4]float64 {
	return [4]float64{
		a[0]*b[0] - a[1]*b[1] - a[2]*b[2] - a[3]*b[3],
		a[0]*b[1] + a[1]*b[0] + a[2]*b[3] - a[3]*b[2],
		a[0]*b[2] - a[1]*b[3] + a[2]*b[0] + a[3]*b[1],
		a[0]*b[3] + a[1]*b[2] - a[2]*b[1] + a[3]*b[0],
	}
}

func axisAngle(axis [3]float64, angle float64) [4]float64 {
	s := math.Sin(angle / 2)
	return [4]float64{math.Cos(angle / 2), axis[0] * s, axis[1] * s, axis[2] * s}
}

func rotate(q [4]float64, v [3]float64) [3]float64 {
	m := quatToMat(q)
	return [3]float64{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// quatToMat returns the row-major rotation matrix of a unit quaternion.
func quatToMat(q [4]float64) [9]float64 {
	w, x, y, z := q[0], q[1], q[2], q[3]
	return [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
}

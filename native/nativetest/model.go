package nativetest

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	mjruntime "github.com/wippyai/mujoco-runtime"
	"github.com/wippyai/mujoco-runtime/native"
)

// mjtJoint codes.
const (
	jointFree  int32 = 0
	jointSlide int32 = 2
	jointHinge int32 = 3
)

const (
	sensorJointPos int32 = 8
	sensorJointVel int32 = 12
)

// model is the compiled scene. Exported fields form the binary payload.
type model struct {
	Name     string
	Timestep float64
	Gravity  [3]float64

	NQ, NV, NU, NA                        int
	NBody, NJnt, NGeom, NLight, NMesh     int
	NMeshVert, NMeshFace, NSensor, NNames int
	NSensorData                           int

	BodyParentID []int32
	BodyJntNum   []int32
	BodyJntAddr  []int32
	BodyGeomNum  []int32
	BodyGeomAddr []int32
	BodyPos      []float64
	BodyQuat     []float64

	JntType     []int32
	JntBodyID   []int32
	JntQposAddr []int32
	JntDofAddr  []int32
	JntAxis     []float64

	GeomType    []int32
	GeomConType []int32
	GeomBodyID  []int32
	GeomDataID  []int32
	GeomGroup   []int32
	GeomSize    []float64
	GeomPos     []float64
	GeomQuat    []float64
	GeomRGBA    []float32

	MeshVertAddr []int32
	MeshVertNum  []int32
	MeshFaceAddr []int32
	MeshFaceNum  []int32
	MeshVert     []float32
	MeshNormal   []float32
	MeshFace     []int32

	ActuatorJnt  []int32
	ActuatorGear []float64

	SensorType []int32
	SensorObj  []int32
	SensorAddr []int32

	QPos0 []float64

	NameBodyAddr     []int32
	NameJntAddr      []int32
	NameGeomAddr     []int32
	NameLightAddr    []int32
	NameMeshAddr     []int32
	NameActuatorAddr []int32
	NameSensorAddr   []int32
	Names            []byte
}

// sizes are the counts an mjData layout depends on. Data may only be used
// with a model of the sizes it was allocated for.
type sizes [13]int

func (m *model) sizes() sizes {
	return sizes{
		m.NQ, m.NV, m.NU, m.NA, m.NBody, m.NJnt, m.NGeom, m.NLight,
		m.NMesh, m.NMeshVert, m.NMeshFace, m.NSensor, m.NSensorData,
	}
}

func (m *model) count(c native.Count) int {
	switch c {
	case native.CountQ:
		return m.NQ
	case native.CountV:
		return m.NV
	case native.CountU:
		return m.NU
	case native.CountA:
		return m.NA
	case native.CountBody:
		return m.NBody
	case native.CountJoint:
		return m.NJnt
	case native.CountGeom:
		return m.NGeom
	case native.CountLight:
		return m.NLight
	case native.CountMesh:
		return m.NMesh
	case native.CountMeshVert:
		return m.NMeshVert
	case native.CountMeshFace:
		return m.NMeshFace
	case native.CountSensor:
		return m.NSensor
	case native.CountSensorData:
		return m.NSensorData
	case native.CountNames:
		return m.NNames
	}
	return 0
}

func (m *model) array(f native.Field) mjruntime.Array {
	const (
		i32 = mjruntime.ElemInt32
		f32 = mjruntime.ElemFloat32
		num = mjruntime.ElemFloat64
	)
	switch f {
	case native.FieldBodyParentID:
		return arrayOf(m.BodyParentID, i32)
	case native.FieldBodyGeomNum:
		return arrayOf(m.BodyGeomNum, i32)
	case native.FieldBodyGeomAddr:
		return arrayOf(m.BodyGeomAddr, i32)
	case native.FieldBodyPos:
		return arrayOf(m.BodyPos, num)
	case native.FieldBodyQuat:
		return arrayOf(m.BodyQuat, num)
	case native.FieldGeomType:
		return arrayOf(m.GeomType, i32)
	case native.FieldGeomConType:
		return arrayOf(m.GeomConType, i32)
	case native.FieldGeomBodyID:
		return arrayOf(m.GeomBodyID, i32)
	case native.FieldGeomDataID:
		return arrayOf(m.GeomDataID, i32)
	case native.FieldGeomGroup:
		return arrayOf(m.GeomGroup, i32)
	case native.FieldGeomSize:
		return arrayOf(m.GeomSize, num)
	case native.FieldGeomPos:
		return arrayOf(m.GeomPos, num)
	case native.FieldGeomQuat:
		return arrayOf(m.GeomQuat, num)
	case native.FieldGeomRGBA:
		return arrayOf(m.GeomRGBA, f32)
	case native.FieldMeshVertAddr:
		return arrayOf(m.MeshVertAddr, i32)
	case native.FieldMeshVertNum:
		return arrayOf(m.MeshVertNum, i32)
	case native.FieldMeshFaceAddr:
		return arrayOf(m.MeshFaceAddr, i32)
	case native.FieldMeshFaceNum:
		return arrayOf(m.MeshFaceNum, i32)
	case native.FieldMeshVert:
		return arrayOf(m.MeshVert, f32)
	case native.FieldMeshNormal:
		return arrayOf(m.MeshNormal, f32)
	case native.FieldMeshFace:
		return arrayOf(m.MeshFace, i32)
	case native.FieldNameBodyAddr:
		return arrayOf(m.NameBodyAddr, i32)
	case native.FieldNameGeomAddr:
		return arrayOf(m.NameGeomAddr, i32)
	case native.FieldNameMeshAddr:
		return arrayOf(m.NameMeshAddr, i32)
	case native.FieldNames:
		return arrayOf(m.Names, mjruntime.ElemByte)
	}
	return mjruntime.Array{}
}

// nameAddrs returns the name address table and object count for obj.
func (m *model) nameAddrs(obj native.ObjType) ([]int32, int) {
	switch obj {
	case native.ObjBody, native.ObjXBody:
		return m.NameBodyAddr, m.NBody
	case native.ObjJoint:
		return m.NameJntAddr, m.NJnt
	case native.ObjGeom:
		return m.NameGeomAddr, m.NGeom
	case native.ObjLight:
		return m.NameLightAddr, m.NLight
	case native.ObjMesh:
		return m.NameMeshAddr, m.NMesh
	case native.ObjActuator:
		return m.NameActuatorAddr, m.NU
	case native.ObjSensor:
		return m.NameSensorAddr, m.NSensor
	}
	return nil, 0
}

func (m *model) nameAt(addr int32) string {
	if addr < 0 || int(addr) >= len(m.Names) {
		return ""
	}
	b := m.Names[addr:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func (m *model) name2id(obj native.ObjType, name string) int {
	if name == "" {
		return native.IDNotFound
	}
	addrs, n := m.nameAddrs(obj)
	for i := 0; i < n && i < len(addrs); i++ {
		if m.nameAt(addrs[i]) == name {
			return i
		}
	}
	return native.IDNotFound
}

// id2name returns false for out-of-range ids and unnamed objects, matching
// the NULL result of mj_id2name.
func (m *model) id2name(obj native.ObjType, id int) (string, bool) {
	addrs, n := m.nameAddrs(obj)
	if id < 0 || id >= n || id >= len(addrs) {
		return "", false
	}
	name := m.nameAt(addrs[id])
	if name == "" {
		return "", false
	}
	return name, true
}

// encode produces the mjb image: int32 header, then the gob payload.
func (m *model) encode() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, int32(native.BinaryHeader))
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		panic(fmt.Sprintf("nativetest: encode model: %v", err))
	}
	return buf.Bytes()
}

func decodeModel(b []byte) (*model, error) {
	if len(b) < 4 || int32(binary.LittleEndian.Uint32(b)) != native.BinaryHeader {
		return nil, errorf("invalid header in binary model")
	}
	m := new(model)
	if err := gob.NewDecoder(bytes.NewReader(b[4:])).Decode(m); err != nil {
		return nil, errorf("corrupt binary model: %v", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// validate checks array sizes against counts so a crafted payload cannot
// produce out-of-range native arrays.
func (m *model) validate() error {
	checks := []struct {
		name string
		got  int
		want int
	}{
		{"body_parentid", len(m.BodyParentID), m.NBody},
		{"body_jntnum", len(m.BodyJntNum), m.NBody},
		{"body_jntadr", len(m.BodyJntAddr), m.NBody},
		{"body_geomnum", len(m.BodyGeomNum), m.NBody},
		{"body_geomadr", len(m.BodyGeomAddr), m.NBody},
		{"body_pos", len(m.BodyPos), m.NBody * 3},
		{"body_quat", len(m.BodyQuat), m.NBody * 4},
		{"jnt_type", len(m.JntType), m.NJnt},
		{"jnt_bodyid", len(m.JntBodyID), m.NJnt},
		{"jnt_qposadr", len(m.JntQposAddr), m.NJnt},
		{"jnt_dofadr", len(m.JntDofAddr), m.NJnt},
		{"jnt_axis", len(m.JntAxis), m.NJnt * 3},
		{"geom_type", len(m.GeomType), m.NGeom},
		{"geom_contype", len(m.GeomConType), m.NGeom},
		{"geom_bodyid", len(m.GeomBodyID), m.NGeom},
		{"geom_dataid", len(m.GeomDataID), m.NGeom},
		{"geom_group", len(m.GeomGroup), m.NGeom},
		{"geom_size", len(m.GeomSize), m.NGeom * 3},
		{"geom_pos", len(m.GeomPos), m.NGeom * 3},
		{"geom_quat", len(m.GeomQuat), m.NGeom * 4},
		{"geom_rgba", len(m.GeomRGBA), m.NGeom * 4},
		{"mesh_vertadr", len(m.MeshVertAddr), m.NMesh},
		{"mesh_vertnum", len(m.MeshVertNum), m.NMesh},
		{"mesh_faceadr", len(m.MeshFaceAddr), m.NMesh},
		{"mesh_facenum", len(m.MeshFaceNum), m.NMesh},
		{"mesh_vert", len(m.MeshVert), m.NMeshVert * 3},
		{"mesh_normal", len(m.MeshNormal), m.NMeshVert * 3},
		{"mesh_face", len(m.MeshFace), m.NMeshFace * 3},
		{"actuator_trnid", len(m.ActuatorJnt), m.NU},
		{"actuator_gear", len(m.ActuatorGear), m.NU},
		{"sensor_type", len(m.SensorType), m.NSensor},
		{"sensor_objid", len(m.SensorObj), m.NSensor},
		{"sensor_adr", len(m.SensorAddr), m.NSensor},
		{"qpos0", len(m.QPos0), m.NQ},
		{"name_bodyadr", len(m.NameBodyAddr), m.NBody},
		{"name_jntadr", len(m.NameJntAddr), m.NJnt},
		{"name_geomadr", len(m.NameGeomAddr), m.NGeom},
		{"name_lightadr", len(m.NameLightAddr), m.NLight},
		{"name_meshadr", len(m.NameMeshAddr), m.NMesh},
		{"name_actuatoradr", len(m.NameActuatorAddr), m.NU},
		{"name_sensoradr", len(m.NameSensorAddr), m.NSensor},
		{"names", len(m.Names), m.NNames},
	}
	for _, c := range checks {
		if c.got != c.want {
			return errorf("corrupt binary model: %s has %d elements, want %d", c.name, c.got, c.want)
		}
	}
	return nil
}

func (m *model) clone() *model {
	c := *m
	c.BodyParentID = clone(m.BodyParentID)
	c.BodyJntNum = clone(m.BodyJntNum)
	c.BodyJntAddr = clone(m.BodyJntAddr)
	c.BodyGeomNum = clone(m.BodyGeomNum)
	c.BodyGeomAddr = clone(m.BodyGeomAddr)
	c.BodyPos = clone(m.BodyPos)
	c.BodyQuat = clone(m.BodyQuat)
	c.JntType = clone(m.JntType)
	c.JntBodyID = clone(m.JntBodyID)
	c.JntQposAddr = clone(m.JntQposAddr)
	c.JntDofAddr = clone(m.JntDofAddr)
	c.JntAxis = clone(m.JntAxis)
	c.GeomType = clone(m.GeomType)
	c.GeomConType = clone(m.GeomConType)
	c.GeomBodyID = clone(m.GeomBodyID)
	c.GeomDataID = clone(m.GeomDataID)
	c.GeomGroup = clone(m.GeomGroup)
	c.GeomSize = clone(m.GeomSize)
	c.GeomPos = clone(m.GeomPos)
	c.GeomQuat = clone(m.GeomQuat)
	c.GeomRGBA = clone(m.GeomRGBA)
	c.MeshVertAddr = clone(m.MeshVertAddr)
	c.MeshVertNum = clone(m.MeshVertNum)
	c.MeshFaceAddr = clone(m.MeshFaceAddr)
	c.MeshFaceNum = clone(m.MeshFaceNum)
	c.MeshVert = clone(m.MeshVert)
	c.MeshNormal = clone(m.MeshNormal)
	c.MeshFace = clone(m.MeshFace)
	c.ActuatorJnt = clone(m.ActuatorJnt)
	c.ActuatorGear = clone(m.ActuatorGear)
	c.SensorType = clone(m.SensorType)
	c.SensorObj = clone(m.SensorObj)
	c.SensorAddr = clone(m.SensorAddr)
	c.QPos0 = clone(m.QPos0)
	c.NameBodyAddr = clone(m.NameBodyAddr)
	c.NameJntAddr = clone(m.NameJntAddr)
	c.NameGeomAddr = clone(m.NameGeomAddr)
	c.NameLightAddr = clone(m.NameLightAddr)
	c.NameMeshAddr = clone(m.NameMeshAddr)
	c.NameActuatorAddr = clone(m.NameActuatorAddr)
	c.NameSensorAddr = clone(m.NameSensorAddr)
	c.Names = clone(m.Names)
	return &c
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

type loadError string

func (e loadError) Error() string { return string(e) }

func errorf(format string, args ...any) error {
	return loadError("Error: " + fmt.Sprintf(format, args...))
}

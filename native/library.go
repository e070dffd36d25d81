package native

import (
	"unsafe"

	mjruntime "github.com/wippyai/mujoco-runtime"
)

// ModelHandle is an opaque pointer to a native mjModel.
type ModelHandle unsafe.Pointer

// DataHandle is an opaque pointer to a native mjData.
type DataHandle unsafe.Pointer

// VFSHandle is an opaque pointer to a native mjVFS.
type VFSHandle unsafe.Pointer

// Result codes of MakeEmptyFileVFS.
const (
	VFSOk        = 0
	VFSFull      = 1
	VFSRepeated  = 2
	VFSNotFound  = -1
	IDNotFound   = -1
	BinaryHeader = 54321 // first int32 of every mjb file
)

// Limits mirrors the fixed capacities compiled into the native library.
type Limits struct {
	// MaxVFSFiles is mjMAXVFS, the number of slots in a file table.
	MaxVFSFiles int
	// MaxVFSName is mjMAXVFSNAME, the byte size of a name slot including
	// its terminator.
	MaxVFSName int
}

// Count selects a size field of mjModel.
type Count uint8

const (
	CountQ Count = iota
	CountV
	CountU
	CountA
	CountBody
	CountJoint
	CountGeom
	CountSite
	CountCamera
	CountLight
	CountMesh
	CountMeshVert
	CountMeshFace
	CountSensor
	CountSensorData
	CountNames
	countMax
)

var countNames = [...]string{
	CountQ:          "nq",
	CountV:          "nv",
	CountU:          "nu",
	CountA:          "na",
	CountBody:       "nbody",
	CountJoint:      "njnt",
	CountGeom:       "ngeom",
	CountSite:       "nsite",
	CountCamera:     "ncam",
	CountLight:      "nlight",
	CountMesh:       "nmesh",
	CountMeshVert:   "nmeshvert",
	CountMeshFace:   "nmeshface",
	CountSensor:     "nsensor",
	CountSensorData: "nsensordata",
	CountNames:      "nnames",
}

func (c Count) String() string {
	if c < countMax {
		return countNames[c]
	}
	return "unknown"
}

// Field selects an array of mjModel or mjData.
type Field uint8

// mjModel arrays.
const (
	FieldBodyParentID Field = iota
	FieldBodyGeomNum
	FieldBodyGeomAddr
	FieldBodyPos
	FieldBodyQuat
	FieldGeomType
	FieldGeomConType
	FieldGeomBodyID
	FieldGeomDataID
	FieldGeomGroup
	FieldGeomSize
	FieldGeomPos
	FieldGeomQuat
	FieldGeomRGBA
	FieldMeshVertAddr
	FieldMeshVertNum
	FieldMeshFaceAddr
	FieldMeshFaceNum
	FieldMeshVert
	FieldMeshNormal
	FieldMeshFace
	FieldNameBodyAddr
	FieldNameGeomAddr
	FieldNameMeshAddr
	FieldNames
	modelFieldMax
)

// mjData arrays.
const (
	FieldQPos Field = iota + 64
	FieldQVel
	FieldCtrl
	FieldXPos
	FieldXQuat
	FieldGeomXPos
	FieldGeomXMat
	FieldCfrcExt
	FieldSensorData
	dataFieldMax
)

// IsModel reports whether f addresses an mjModel array.
func (f Field) IsModel() bool { return f < modelFieldMax }

// IsData reports whether f addresses an mjData array.
func (f Field) IsData() bool { return f >= FieldQPos && f < dataFieldMax }

// Library is the raw native surface consumed by the safety layer. Every
// method maps onto one MuJoCo C entry point (or a field read) and performs no
// validation beyond what the C function does itself.
//
// Implementations: the cgo binding (build tag "mujoco") and
// nativetest.Library.
type Library interface {
	Version() string
	Limits() Limits

	// mj_defaultVFS on a freshly allocated table; DeleteVFS runs
	// mj_deleteVFS and releases the table itself.
	NewVFS() VFSHandle
	DeleteVFS(v VFSHandle)
	MakeEmptyFileVFS(v VFSHandle, name string, size int) int
	FindFileVFS(v VFSHandle, name string) int
	// FileData aliases the native buffer of slot idx. The slice is only valid
	// until the file is deleted.
	FileData(v VFSHandle, idx int) []byte
	DeleteFileVFS(v VFSHandle, name string) int
	FileCountVFS(v VFSHandle) int

	// LoadXML writes a nul-terminated message into errBuf on failure.
	// vfs may be nil to read from the filesystem.
	LoadXML(filename string, vfs VFSHandle, errBuf []byte) ModelHandle
	LoadModel(filename string, vfs VFSHandle) ModelHandle
	SizeModel(m ModelHandle) int
	SaveModel(m ModelHandle, buf []byte)
	CopyModel(m ModelHandle) ModelHandle
	DeleteModel(m ModelHandle)
	Name2ID(m ModelHandle, obj ObjType, name string) int
	ID2Name(m ModelHandle, obj ObjType, id int) (string, bool)
	ModelCount(m ModelHandle, c Count) int
	ModelArray(m ModelHandle, f Field) mjruntime.Array

	MakeData(m ModelHandle) DataHandle
	CopyData(m ModelHandle, d DataHandle) DataHandle
	DeleteData(d DataHandle)
	ResetData(m ModelHandle, d DataHandle)
	Forward(m ModelHandle, d DataHandle)
	Step(m ModelHandle, d DataHandle)
	SensorPos(m ModelHandle, d DataHandle)
	SensorVel(m ModelHandle, d DataHandle)
	SensorAcc(m ModelHandle, d DataHandle)
	DataArray(m ModelHandle, d DataHandle, f Field) mjruntime.Array
	Time(d DataHandle) float64
}

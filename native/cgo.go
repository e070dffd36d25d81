//go:build cgo && mujoco

package native

/*
#cgo LDFLAGS: -lmujoco
#include <stdlib.h>
#include <string.h>
#include <mujoco/mujoco.h>

// mjVFS with nfile/filesize/filedata and the mjMAXVFS table exist only in
// 2.x headers; 2.1.0 is the first release without license activation.
#if mjVERSION_HEADER < 210 || mjVERSION_HEADER >= 300
#error "mujoco-runtime requires MuJoCo 2.1.0 to 2.3.x headers"
#endif

static mjVFS* mjr_new_vfs(void) {
	mjVFS* v = (mjVFS*)malloc(sizeof(mjVFS));
	if (v) {
		mj_defaultVFS(v);
	}
	return v;
}

static void mjr_delete_vfs(mjVFS* v) {
	if (v) {
		mj_deleteVFS(v);
		free(v);
	}
}
*/
import "C"

import (
	"unsafe"

	mjruntime "github.com/wippyai/mujoco-runtime"
)

// Compile-time checks that the Go enumerations match the header.
func _() {
	var x [1]struct{}
	_ = x[ObjBody-C.mjOBJ_BODY]
	_ = x[ObjJoint-C.mjOBJ_JOINT]
	_ = x[ObjGeom-C.mjOBJ_GEOM]
	_ = x[ObjLight-C.mjOBJ_LIGHT]
	_ = x[ObjMesh-C.mjOBJ_MESH]
	_ = x[ObjActuator-C.mjOBJ_ACTUATOR]
	_ = x[ObjSensor-C.mjOBJ_SENSOR]
	_ = x[ObjKey-C.mjOBJ_KEY]
	_ = x[GeomPlane-C.mjGEOM_PLANE]
	_ = x[GeomBox-C.mjGEOM_BOX]
	_ = x[GeomMesh-C.mjGEOM_MESH]
	_ = x[GeomNone-C.mjGEOM_NONE]
}

type cgoLibrary struct {
	num mjruntime.Elem
}

// Open returns the cgo binding to the linked MuJoCo library. It fails when
// the header the binding was compiled against does not match the library
// found at run time.
func Open() (Library, error) {
	if int(C.mj_version()) != int(C.mjVERSION_HEADER) {
		return nil, unavailable("header/library version mismatch: header %d, library %d",
			int(C.mjVERSION_HEADER), int(C.mj_version()))
	}
	lib := &cgoLibrary{num: mjruntime.ElemFloat64}
	if C.sizeof_mjtNum == 4 {
		lib.num = mjruntime.ElemFloat32
	}
	Logger().Debug("native library opened")
	return lib, nil
}

func model(m ModelHandle) *C.mjModel { return (*C.mjModel)(m) }
func data(d DataHandle) *C.mjData    { return (*C.mjData)(d) }
func vfs(v VFSHandle) *C.mjVFS       { return (*C.mjVFS)(v) }

func (l *cgoLibrary) Version() string {
	return C.GoString(C.mj_versionString())
}

func (l *cgoLibrary) Limits() Limits {
	return Limits{MaxVFSFiles: int(C.mjMAXVFS), MaxVFSName: int(C.mjMAXVFSNAME)}
}

func (l *cgoLibrary) NewVFS() VFSHandle {
	return VFSHandle(C.mjr_new_vfs())
}

func (l *cgoLibrary) DeleteVFS(v VFSHandle) {
	C.mjr_delete_vfs(vfs(v))
}

func (l *cgoLibrary) MakeEmptyFileVFS(v VFSHandle, name string, size int) int {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return int(C.mj_makeEmptyFileVFS(vfs(v), cname, C.int(size)))
}

func (l *cgoLibrary) FindFileVFS(v VFSHandle, name string) int {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return int(C.mj_findFileVFS(vfs(v), cname))
}

func (l *cgoLibrary) FileData(v VFSHandle, idx int) []byte {
	t := vfs(v)
	if idx < 0 || idx >= int(t.nfile) {
		return nil
	}
	size := int(t.filesize[idx])
	ptr := t.filedata[idx]
	if ptr == nil || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), size)
}

func (l *cgoLibrary) DeleteFileVFS(v VFSHandle, name string) int {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return int(C.mj_deleteFileVFS(vfs(v), cname))
}

func (l *cgoLibrary) FileCountVFS(v VFSHandle) int {
	return int(vfs(v).nfile)
}

func (l *cgoLibrary) LoadXML(filename string, v VFSHandle, errBuf []byte) ModelHandle {
	cname := C.CString(filename)
	defer C.free(unsafe.Pointer(cname))
	var errPtr *C.char
	if len(errBuf) > 0 {
		errPtr = (*C.char)(unsafe.Pointer(&errBuf[0]))
	}
	return ModelHandle(C.mj_loadXML(cname, vfs(v), errPtr, C.int(len(errBuf))))
}

func (l *cgoLibrary) LoadModel(filename string, v VFSHandle) ModelHandle {
	cname := C.CString(filename)
	defer C.free(unsafe.Pointer(cname))
	return ModelHandle(C.mj_loadModel(cname, vfs(v)))
}

func (l *cgoLibrary) SizeModel(m ModelHandle) int {
	return int(C.mj_sizeModel(model(m)))
}

func (l *cgoLibrary) SaveModel(m ModelHandle, buf []byte) {
	if len(buf) == 0 {
		return
	}
	C.mj_saveModel(model(m), nil, unsafe.Pointer(&buf[0]), C.int(len(buf)))
}

func (l *cgoLibrary) CopyModel(m ModelHandle) ModelHandle {
	return ModelHandle(C.mj_copyModel(nil, model(m)))
}

func (l *cgoLibrary) DeleteModel(m ModelHandle) {
	C.mj_deleteModel(model(m))
}

func (l *cgoLibrary) Name2ID(m ModelHandle, obj ObjType, name string) int {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return int(C.mj_name2id(model(m), C.int(obj), cname))
}

func (l *cgoLibrary) ID2Name(m ModelHandle, obj ObjType, id int) (string, bool) {
	p := C.mj_id2name(model(m), C.int(obj), C.int(id))
	if p == nil {
		return "", false
	}
	return C.GoString(p), true
}

func (l *cgoLibrary) ModelCount(m ModelHandle, c Count) int {
	mm := model(m)
	switch c {
	case CountQ:
		return int(mm.nq)
	case CountV:
		return int(mm.nv)
	case CountU:
		return int(mm.nu)
	case CountA:
		return int(mm.na)
	case CountBody:
		return int(mm.nbody)
	case CountJoint:
		return int(mm.njnt)
	case CountGeom:
		return int(mm.ngeom)
	case CountSite:
		return int(mm.nsite)
	case CountCamera:
		return int(mm.ncam)
	case CountLight:
		return int(mm.nlight)
	case CountMesh:
		return int(mm.nmesh)
	case CountMeshVert:
		return int(mm.nmeshvert)
	case CountMeshFace:
		return int(mm.nmeshface)
	case CountSensor:
		return int(mm.nsensor)
	case CountSensorData:
		return int(mm.nsensordata)
	case CountNames:
		return int(mm.nnames)
	}
	return 0
}

func (l *cgoLibrary) ModelArray(m ModelHandle, f Field) mjruntime.Array {
	mm := model(m)
	nbody, ngeom, nmesh := int(mm.nbody), int(mm.ngeom), int(mm.nmesh)
	nvert, nface := int(mm.nmeshvert), int(mm.nmeshface)

	switch f {
	case FieldBodyParentID:
		return ints(unsafe.Pointer(mm.body_parentid), nbody)
	case FieldBodyGeomNum:
		return ints(unsafe.Pointer(mm.body_geomnum), nbody)
	case FieldBodyGeomAddr:
		return ints(unsafe.Pointer(mm.body_geomadr), nbody)
	case FieldBodyPos:
		return l.nums(unsafe.Pointer(mm.body_pos), nbody*3)
	case FieldBodyQuat:
		return l.nums(unsafe.Pointer(mm.body_quat), nbody*4)
	case FieldGeomType:
		return ints(unsafe.Pointer(mm.geom_type), ngeom)
	case FieldGeomConType:
		return ints(unsafe.Pointer(mm.geom_contype), ngeom)
	case FieldGeomBodyID:
		return ints(unsafe.Pointer(mm.geom_bodyid), ngeom)
	case FieldGeomDataID:
		return ints(unsafe.Pointer(mm.geom_dataid), ngeom)
	case FieldGeomGroup:
		return ints(unsafe.Pointer(mm.geom_group), ngeom)
	case FieldGeomSize:
		return l.nums(unsafe.Pointer(mm.geom_size), ngeom*3)
	case FieldGeomPos:
		return l.nums(unsafe.Pointer(mm.geom_pos), ngeom*3)
	case FieldGeomQuat:
		return l.nums(unsafe.Pointer(mm.geom_quat), ngeom*4)
	case FieldGeomRGBA:
		return floats(unsafe.Pointer(mm.geom_rgba), ngeom*4)
	case FieldMeshVertAddr:
		return ints(unsafe.Pointer(mm.mesh_vertadr), nmesh)
	case FieldMeshVertNum:
		return ints(unsafe.Pointer(mm.mesh_vertnum), nmesh)
	case FieldMeshFaceAddr:
		return ints(unsafe.Pointer(mm.mesh_faceadr), nmesh)
	case FieldMeshFaceNum:
		return ints(unsafe.Pointer(mm.mesh_facenum), nmesh)
	case FieldMeshVert:
		return floats(unsafe.Pointer(mm.mesh_vert), nvert*3)
	case FieldMeshNormal:
		return floats(unsafe.Pointer(mm.mesh_normal), nvert*3)
	case FieldMeshFace:
		return ints(unsafe.Pointer(mm.mesh_face), nface*3)
	case FieldNameBodyAddr:
		return ints(unsafe.Pointer(mm.name_bodyadr), nbody)
	case FieldNameGeomAddr:
		return ints(unsafe.Pointer(mm.name_geomadr), ngeom)
	case FieldNameMeshAddr:
		return ints(unsafe.Pointer(mm.name_meshadr), nmesh)
	case FieldNames:
		return mjruntime.Array{Ptr: unsafe.Pointer(mm.names), Len: int(mm.nnames), Elem: mjruntime.ElemByte}
	}
	return mjruntime.Array{}
}

func (l *cgoLibrary) MakeData(m ModelHandle) DataHandle {
	return DataHandle(C.mj_makeData(model(m)))
}

func (l *cgoLibrary) CopyData(m ModelHandle, d DataHandle) DataHandle {
	return DataHandle(C.mj_copyData(nil, model(m), data(d)))
}

func (l *cgoLibrary) DeleteData(d DataHandle) {
	C.mj_deleteData(data(d))
}

func (l *cgoLibrary) ResetData(m ModelHandle, d DataHandle) {
	C.mj_resetData(model(m), data(d))
}

func (l *cgoLibrary) Forward(m ModelHandle, d DataHandle) {
	C.mj_forward(model(m), data(d))
}

func (l *cgoLibrary) Step(m ModelHandle, d DataHandle) {
	C.mj_step(model(m), data(d))
}

func (l *cgoLibrary) SensorPos(m ModelHandle, d DataHandle) {
	C.mj_sensorPos(model(m), data(d))
}

func (l *cgoLibrary) SensorVel(m ModelHandle, d DataHandle) {
	C.mj_sensorVel(model(m), data(d))
}

func (l *cgoLibrary) SensorAcc(m ModelHandle, d DataHandle) {
	C.mj_sensorAcc(model(m), data(d))
}

func (l *cgoLibrary) DataArray(m ModelHandle, d DataHandle, f Field) mjruntime.Array {
	mm, dd := model(m), data(d)
	switch f {
	case FieldQPos:
		return l.nums(unsafe.Pointer(dd.qpos), int(mm.nq))
	case FieldQVel:
		return l.nums(unsafe.Pointer(dd.qvel), int(mm.nv))
	case FieldCtrl:
		return l.nums(unsafe.Pointer(dd.ctrl), int(mm.nu))
	case FieldXPos:
		return l.nums(unsafe.Pointer(dd.xpos), int(mm.nbody)*3)
	case FieldXQuat:
		return l.nums(unsafe.Pointer(dd.xquat), int(mm.nbody)*4)
	case FieldGeomXPos:
		return l.nums(unsafe.Pointer(dd.geom_xpos), int(mm.ngeom)*3)
	case FieldGeomXMat:
		return l.nums(unsafe.Pointer(dd.geom_xmat), int(mm.ngeom)*9)
	case FieldCfrcExt:
		return l.nums(unsafe.Pointer(dd.cfrc_ext), int(mm.nbody)*6)
	case FieldSensorData:
		return l.nums(unsafe.Pointer(dd.sensordata), int(mm.nsensordata))
	}
	return mjruntime.Array{}
}

func (l *cgoLibrary) Time(d DataHandle) float64 {
	return float64(data(d).time)
}

func (l *cgoLibrary) nums(p unsafe.Pointer, n int) mjruntime.Array {
	return mjruntime.Array{Ptr: p, Len: n, Elem: l.num}
}

func ints(p unsafe.Pointer, n int) mjruntime.Array {
	return mjruntime.Array{Ptr: p, Len: n, Elem: mjruntime.ElemInt32}
}

func floats(p unsafe.Pointer, n int) mjruntime.Array {
	return mjruntime.Array{Ptr: p, Len: n, Elem: mjruntime.ElemFloat32}
}

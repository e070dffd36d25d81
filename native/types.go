package native

import "strconv"

// ObjType mirrors mjtObj.
type ObjType int32

const (
	ObjUnknown ObjType = iota
	ObjBody
	ObjXBody
	ObjJoint
	ObjDOF
	ObjGeom
	ObjSite
	ObjCamera
	ObjLight
	ObjMesh
	ObjSkin
	ObjHField
	ObjTexture
	ObjMaterial
	ObjPair
	ObjExclude
	ObjEquality
	ObjTendon
	ObjActuator
	ObjSensor
	ObjNumeric
	ObjText
	ObjTuple
	ObjKey
)

var objNames = [...]string{
	"unknown", "body", "xbody", "joint", "dof", "geom", "site", "camera",
	"light", "mesh", "skin", "hfield", "texture", "material", "pair",
	"exclude", "equality", "tendon", "actuator", "sensor", "numeric", "text",
	"tuple", "key",
}

func (o ObjType) String() string {
	if o >= 0 && int(o) < len(objNames) {
		return objNames[o]
	}
	return "obj(" + strconv.Itoa(int(o)) + ")"
}

// CountOf returns the model size field holding the number of objects of
// this type, if the binding exposes one.
func (o ObjType) CountOf() (Count, bool) {
	switch o {
	case ObjBody, ObjXBody:
		return CountBody, true
	case ObjJoint:
		return CountJoint, true
	case ObjDOF:
		return CountV, true
	case ObjGeom:
		return CountGeom, true
	case ObjSite:
		return CountSite, true
	case ObjCamera:
		return CountCamera, true
	case ObjLight:
		return CountLight, true
	case ObjMesh:
		return CountMesh, true
	case ObjActuator:
		return CountU, true
	case ObjSensor:
		return CountSensor, true
	}
	return 0, false
}

// GeomType mirrors mjtGeom.
type GeomType int32

const (
	GeomPlane     GeomType = 0
	GeomHField    GeomType = 1
	GeomSphere    GeomType = 2
	GeomCapsule   GeomType = 3
	GeomEllipsoid GeomType = 4
	GeomCylinder  GeomType = 5
	GeomBox       GeomType = 6
	GeomMesh      GeomType = 7
	GeomNone      GeomType = 1001
)

// ParseGeomType validates a raw geom_type code.
func ParseGeomType(code int32) (GeomType, bool) {
	switch g := GeomType(code); g {
	case GeomPlane, GeomHField, GeomSphere, GeomCapsule, GeomEllipsoid,
		GeomCylinder, GeomBox, GeomMesh, GeomNone:
		return g, true
	}
	return 0, false
}

func (g GeomType) String() string {
	switch g {
	case GeomPlane:
		return "plane"
	case GeomHField:
		return "hfield"
	case GeomSphere:
		return "sphere"
	case GeomCapsule:
		return "capsule"
	case GeomEllipsoid:
		return "ellipsoid"
	case GeomCylinder:
		return "cylinder"
	case GeomBox:
		return "box"
	case GeomMesh:
		return "mesh"
	case GeomNone:
		return "none"
	}
	return "geom(" + strconv.Itoa(int(g)) + ")"
}

// ParseGeomName maps an MJCF type attribute to a GeomType.
func ParseGeomName(name string) (GeomType, bool) {
	for _, g := range []GeomType{GeomPlane, GeomHField, GeomSphere, GeomCapsule,
		GeomEllipsoid, GeomCylinder, GeomBox, GeomMesh} {
		if g.String() == name {
			return g, true
		}
	}
	return 0, false
}

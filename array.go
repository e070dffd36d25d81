package mjruntime

import "unsafe"

// Elem identifies the storage type of a flat native array.
type Elem uint8

const (
	ElemInvalid Elem = iota
	ElemFloat32
	ElemFloat64
	ElemInt32
	ElemByte
)

// Size returns the element size in bytes, or 0 for ElemInvalid.
func (e Elem) Size() int {
	switch e {
	case ElemFloat32, ElemInt32:
		return 4
	case ElemFloat64:
		return 8
	case ElemByte:
		return 1
	default:
		return 0
	}
}

func (e Elem) String() string {
	switch e {
	case ElemFloat32:
		return "float32"
	case ElemFloat64:
		return "float64"
	case ElemInt32:
		return "int32"
	case ElemByte:
		return "byte"
	default:
		return "invalid"
	}
}

// Array describes a flat, pointer-addressed array owned by the native engine.
// Len is the total number of elements implied by the model's declared counts
// (for example ngeom*3 for geom_pos), not a byte length.
//
// An Array is only valid while the handle it was read from is alive.
type Array struct {
	Ptr  unsafe.Pointer
	Len  int
	Elem Elem
}

// IsNil reports whether the array has no backing storage.
func (a Array) IsNil() bool {
	return a.Ptr == nil || a.Len == 0
}

// Bytes returns the byte length of the array.
func (a Array) Bytes() int {
	return a.Len * a.Elem.Size()
}

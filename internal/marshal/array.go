package marshal

import (
	"bytes"
	"math"
	"unicode/utf8"
	"unsafe"

	mjruntime "github.com/wippyai/mujoco-runtime"
	"github.com/wippyai/mujoco-runtime/errors"
)

// Span selects Count consecutive entities starting at entity Start.
type Span struct {
	Start int
	Count int
}

// All returns the span covering n entities from zero.
func All(n int) Span {
	return Span{Count: n}
}

func safeMul(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if b != 0 && a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

func safeAdd(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}

// check validates that span*stride lies inside arr and returns the first
// element index and the element count.
func check(arr mjruntime.Array, span Span, stride int, want ...mjruntime.Elem) (int, int, error) {
	if stride <= 0 {
		return 0, 0, errors.InvalidInput(errors.PhaseMarshal, "stride must be positive")
	}
	if span.Start < 0 || span.Count < 0 {
		return 0, 0, errors.OutOfBounds(errors.PhaseMarshal, nil, span.Start, arr.Len)
	}
	end, ok := safeAdd(span.Start, span.Count)
	if !ok {
		return 0, 0, errors.New(errors.PhaseMarshal, errors.KindOverflow).
			Detail("span %d+%d overflows", span.Start, span.Count).Build()
	}
	last, ok := safeMul(end, stride)
	if !ok {
		return 0, 0, errors.New(errors.PhaseMarshal, errors.KindOverflow).
			Detail("span end %d*%d overflows", end, stride).Build()
	}
	if last > arr.Len {
		return 0, 0, errors.New(errors.PhaseMarshal, errors.KindOutOfBounds).
			Detail("span [%d,%d) stride %d exceeds array length %d", span.Start, end, stride, arr.Len).
			Value(last).Build()
	}
	first := span.Start * stride
	n := span.Count * stride
	if n == 0 {
		return first, 0, nil
	}
	if arr.Ptr == nil {
		return 0, 0, errors.New(errors.PhaseMarshal, errors.KindNilPointer).
			Detail("array of length %d has no storage", arr.Len).Build()
	}
	if len(want) > 0 {
		matched := false
		for _, e := range want {
			if arr.Elem == e {
				matched = true
				break
			}
		}
		if !matched {
			return 0, 0, errors.New(errors.PhaseMarshal, errors.KindInvalidData).
				Detail("unexpected element type %s", arr.Elem).Build()
		}
	}
	return first, n, nil
}

// float64At widens element i; the caller has bounds-checked i.
func float64At(arr mjruntime.Array, i int) float64 {
	switch arr.Elem {
	case mjruntime.ElemFloat32:
		return float64(*(*float32)(unsafe.Add(arr.Ptr, i*4)))
	case mjruntime.ElemFloat64:
		return *(*float64)(unsafe.Add(arr.Ptr, i*8))
	case mjruntime.ElemInt32:
		return float64(*(*int32)(unsafe.Add(arr.Ptr, i*4)))
	}
	return 0
}

// Float64s copies span*stride elements, widened to float64.
func Float64s(arr mjruntime.Array, span Span, stride int) ([]float64, error) {
	first, n, err := check(arr, span, stride, mjruntime.ElemFloat32, mjruntime.ElemFloat64)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64At(arr, first+i)
	}
	return out, nil
}

// Vec is a fixed-size float64 tuple produced per entity.
type Vec interface {
	[3]float64 | [4]float64 | [6]float64 | [9]float64
}

// Vecs copies one fixed-size tuple per entity in span. The tuple length is
// the stride.
func Vecs[V Vec](arr mjruntime.Array, span Span) ([]V, error) {
	var zero V
	stride := len(zero)
	first, _, err := check(arr, span, stride, mjruntime.ElemFloat32, mjruntime.ElemFloat64)
	if err != nil {
		return nil, err
	}
	out := make([]V, span.Count)
	for i := range out {
		base := first + i*stride
		for j := 0; j < stride; j++ {
			out[i][j] = float64At(arr, base+j)
		}
	}
	return out, nil
}

// Int32s copies span*stride int32 elements.
func Int32s(arr mjruntime.Array, span Span, stride int) ([]int32, error) {
	first, n, err := check(arr, span, stride, mjruntime.ElemInt32)
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	if n > 0 {
		copy(out, unsafe.Slice((*int32)(unsafe.Add(arr.Ptr, first*4)), n))
	}
	return out, nil
}

// Int32At reads a single int32 element.
func Int32At(arr mjruntime.Array, i int) (int32, error) {
	first, _, err := check(arr, Span{Start: i, Count: 1}, 1, mjruntime.ElemInt32)
	if err != nil {
		return 0, err
	}
	return *(*int32)(unsafe.Add(arr.Ptr, first*4)), nil
}

// Triangles copies count faces (three vertex indices each) starting at face
// start, rejecting indices outside [0, nvert).
func Triangles(arr mjruntime.Array, span Span, nvert int) ([]uint32, error) {
	raw, err := Int32s(arr, span, 3)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(raw))
	for i, v := range raw {
		if v < 0 || int(v) >= nvert {
			return nil, errors.OutOfBounds(errors.PhaseMarshal, []string{"mesh_face"}, int(v), nvert)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// CString reads the nul-terminated string starting at byte offset in a byte
// array such as the model names table. The terminator must lie inside the
// array.
func CString(arr mjruntime.Array, offset int) (string, error) {
	first, n, err := check(arr, Span{Start: offset, Count: arr.Len - offset}, 1, mjruntime.ElemByte)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", errors.OutOfBounds(errors.PhaseMarshal, []string{"names"}, offset, arr.Len)
	}
	b := unsafe.Slice((*byte)(unsafe.Add(arr.Ptr, first)), n)
	end := bytes.IndexByte(b, 0)
	if end < 0 {
		return "", errors.InvalidData(errors.PhaseMarshal, []string{"names"}, "unterminated string")
	}
	if !utf8.Valid(b[:end]) {
		return "", errors.InvalidUTF8(errors.PhaseMarshal, []string{"names"}, b[:end])
	}
	return string(b[:end]), nil
}

// Strings splits a byte array of consecutive nul-terminated strings.
// A trailing unterminated fragment is returned as well.
func Strings(arr mjruntime.Array) ([]string, error) {
	_, n, err := check(arr, All(arr.Len), 1, mjruntime.ElemByte)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b := unsafe.Slice((*byte)(arr.Ptr), n)
	var out []string
	for len(b) > 0 {
		end := bytes.IndexByte(b, 0)
		if end < 0 {
			end = len(b)
		}
		if !utf8.Valid(b[:end]) {
			return nil, errors.InvalidUTF8(errors.PhaseMarshal, []string{"names"}, b[:end])
		}
		out = append(out, string(b[:end]))
		if end == len(b) {
			break
		}
		b = b[end+1:]
	}
	return out, nil
}

// WriteFloat64s stores values into arr, narrowing to float32 when the array
// uses single precision. len(values) must equal arr.Len.
func WriteFloat64s(arr mjruntime.Array, values []float64) error {
	if len(values) != arr.Len {
		return errors.DimensionMismatch(errors.PhaseMarshal, "array", len(values), arr.Len)
	}
	first, n, err := check(arr, All(arr.Len), 1, mjruntime.ElemFloat32, mjruntime.ElemFloat64)
	if err != nil {
		return err
	}
	switch arr.Elem {
	case mjruntime.ElemFloat64:
		dst := unsafe.Slice((*float64)(unsafe.Add(arr.Ptr, first*8)), n)
		copy(dst, values)
	case mjruntime.ElemFloat32:
		dst := unsafe.Slice((*float32)(unsafe.Add(arr.Ptr, first*4)), n)
		for i, v := range values {
			dst[i] = float32(v)
		}
	}
	return nil
}

// RawBytes copies the array's backing bytes.
func RawBytes(arr mjruntime.Array) []byte {
	if arr.IsNil() {
		return nil
	}
	return bytes.Clone(unsafe.Slice((*byte)(arr.Ptr), arr.Bytes()))
}

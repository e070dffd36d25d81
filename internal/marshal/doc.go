// Package marshal converts flat, pointer-addressed native arrays into owned Go
// values. It is the only code in the module that computes offsets into
// native memory.
//
// Every extraction takes a Span (start entity, entity count) and a stride and
// checks, with overflow-safe arithmetic, that (start+count)*stride fits in
// the array length the binding derived from the model's declared totals.
// float32 and float64 storage are widened to float64 at this boundary, so
// entity views only ever see one representation.
//
// DecodeErrorBuffer is the codec for the fixed-size error buffers the loader
// writes into.
package marshal

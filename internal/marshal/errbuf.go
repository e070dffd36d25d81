package marshal

import (
	"bytes"
	"unicode/utf8"

	"github.com/wippyai/mujoco-runtime/errors"
)

// DefaultErrorBufferSize is the size of the scratch buffer handed to the XML
// loader.
const DefaultErrorBufferSize = 1000

// NewErrorBuffer returns a zeroed scratch buffer of the given size, or of
// DefaultErrorBufferSize when size is not positive.
func NewErrorBuffer(size int) []byte {
	if size <= 0 {
		size = DefaultErrorBufferSize
	}
	return make([]byte, size)
}

// DecodeErrorBuffer returns the text a native call wrote into buf. The text
// ends at the first NUL, or at the end of buf when the engine did not
// terminate it. The engine only writes ASCII, so invalid UTF-8 is an
// invariant violation.
func DecodeErrorBuffer(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	if !utf8.Valid(buf) {
		preview := buf
		if len(preview) > 32 {
			preview = preview[:32]
		}
		errors.Invariant(errors.PhaseLoad, "error buffer is not UTF-8: %x", preview)
	}
	return string(buf)
}

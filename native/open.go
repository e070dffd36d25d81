package native

import (
	"fmt"
	"runtime"

	"github.com/wippyai/mujoco-runtime/errors"
)

// ErrUnavailable matches the error returned by Open when no native binding
// is available.
var ErrUnavailable = errors.ErrUnavailable

func unavailable(format string, args ...any) error {
	return errors.Unavailable(fmt.Sprintf(format, args...), nil)
}

// DefaultLibraryName returns the platform file name of the MuJoCo shared
// library.
func DefaultLibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libmujoco.dylib"
	case "windows":
		return "mujoco.dll"
	default:
		return "libmujoco.so"
	}
}

//go:build !(cgo && mujoco)

package native

import "go.uber.org/zap"

// Open reports ErrUnavailable: this build does not contain the cgo binding.
// If a MuJoCo shared library can be found on the default search path its
// version is included in the error to make the missing build tag obvious.
func Open() (Library, error) {
	path := DefaultLibraryName()
	if v, err := Probe(path); err == nil {
		Logger().Debug("shared library found but binding not built", zap.String("path", path), zap.String("version", v))
		return nil, unavailable("%s %s is installed but this binary was built without -tags mujoco", path, v)
	}
	return nil, unavailable("built without -tags mujoco")
}

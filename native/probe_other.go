//go:build !darwin && !linux

package native

import "github.com/wippyai/mujoco-runtime/errors"

// Probe is not supported on this platform.
func Probe(path string) (string, error) {
	return "", errors.Unavailable("library probe unsupported on this platform", nil)
}

//go:build !(cgo && mujoco)

package sim

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/mujoco-runtime/native"
)

func TestNewWithoutBinding(t *testing.T) {
	_, err := New(nil)
	if !stderrors.Is(err, native.ErrUnavailable) {
		t.Fatalf("New(nil) = %v, want unavailable", err)
	}
}

package vfs

import (
	"bytes"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/native"
	"github.com/wippyai/mujoco-runtime/native/nativetest"
)

func newVFS(t *testing.T, limits native.Limits) (*VFS, *nativetest.Library) {
	t.Helper()
	lib := nativetest.New(&nativetest.Config{Limits: limits})
	v, err := New(lib, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { v.Close() })
	return v, lib
}

func TestAddGet(t *testing.T) {
	v, _ := newVFS(t, native.Limits{})

	data := []byte("<mujoco/>")
	if err := v.Add("model.xml", data); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, ok := v.Get("model.xml")
	if !ok {
		t.Fatal("Get: not found")
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("Get = %q, want %q", got, data)
	}

	// Get returns a copy.
	got[0] = 'X'
	again, _ := v.Get("model.xml")
	if again[0] != '<' {
		t.Fatal("Get must not alias the native buffer")
	}

	// Add copies the caller's bytes.
	data[0] = 'Y'
	again, _ = v.Get("model.xml")
	if again[0] != '<' {
		t.Fatal("Add must copy caller data")
	}

	if _, ok := v.Get("missing"); ok {
		t.Fatal("Get of missing file should fail")
	}
}

func TestAddDuplicate(t *testing.T) {
	v, _ := newVFS(t, native.Limits{})

	if err := v.Add("a", []byte("first")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := v.Add("a", []byte("second"))
	if !stderrors.Is(err, errors.ErrDuplicateName) {
		t.Fatalf("err = %v, want duplicate name", err)
	}
	got, _ := v.Get("a")
	if string(got) != "first" {
		t.Fatalf("first file changed to %q", got)
	}
	if v.Len() != 1 {
		t.Fatalf("Len = %d, want 1", v.Len())
	}
}

func TestAddTableFull(t *testing.T) {
	v, lib := newVFS(t, native.Limits{MaxVFSFiles: 2})

	for _, name := range []string{"a", "b"} {
		if err := v.Add(name, []byte(name)); err != nil {
			t.Fatalf("Add(%s): %v", name, err)
		}
	}
	err := v.Add("c", []byte("c"))
	if !stderrors.Is(err, errors.ErrTableFull) {
		t.Fatalf("err = %v, want table full", err)
	}
	if _, ok := v.Get("c"); ok {
		t.Fatal("failed add must not leave a file behind")
	}
	if v.Len() != 2 {
		t.Fatalf("Len = %d, want 2", v.Len())
	}

	// Freeing a slot makes room again.
	if !v.Delete("a") {
		t.Fatal("Delete(a) = false")
	}
	if err := v.Add("c", []byte("c")); err != nil {
		t.Fatalf("Add after delete: %v", err)
	}
	if lib.Live().VFS != 1 {
		t.Fatalf("live tables = %d", lib.Live().VFS)
	}
}

func TestAddValidation(t *testing.T) {
	v, lib := newVFS(t, native.Limits{MaxVFSName: 8})

	tests := []struct {
		name string
		file string
		data []byte
		kind errors.Kind
	}{
		{"empty name", "", []byte("x"), errors.KindInvalidInput},
		{"nul in name", "a\x00b", []byte("x"), errors.KindInvalidInput},
		{"name too long", "abcdefgh", []byte("x"), errors.KindNameTooLong},
		{"empty data", "a", nil, errors.KindInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Add(tc.file, tc.data)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("err = %v, want *errors.Error", err)
			}
			if e.Kind != tc.kind {
				t.Errorf("kind = %s, want %s", e.Kind, tc.kind)
			}
		})
	}

	// Exactly MaxVFSName-1 bytes fits.
	if err := v.Add("abcdefg", []byte("x")); err != nil {
		t.Fatalf("Add at name limit: %v", err)
	}
	if n := lib.Created(nativetest.OpNewVFS); n != 1 {
		t.Fatalf("tables created = %d", n)
	}
}

func TestDelete(t *testing.T) {
	v, _ := newVFS(t, native.Limits{})

	if v.Delete("missing") {
		t.Fatal("Delete of missing file should report false")
	}
	v.Add("a", []byte("1"))
	v.Add("b", []byte("2"))
	if !v.Delete("a") {
		t.Fatal("Delete(a) = false")
	}
	if v.Delete("a") {
		t.Fatal("second Delete(a) = true")
	}
	names := v.Names()
	if len(names) != 1 || names[0] != "b" {
		t.Fatalf("Names = %v", names)
	}
	// The name is reusable after deletion.
	if err := v.Add("a", []byte("3")); err != nil {
		t.Fatalf("re-Add: %v", err)
	}
}

func TestUse(t *testing.T) {
	v, lib := newVFS(t, native.Limits{})
	v.Add("f", []byte("abc"))

	err := v.Use(func(h native.VFSHandle) error {
		if lib.FindFileVFS(h, "f") != 0 {
			t.Error("file not visible through handle")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Use: %v", err)
	}

	sentinel := stderrors.New("inner")
	if err := v.Use(func(native.VFSHandle) error { return sentinel }); err != sentinel {
		t.Fatalf("Use must return fn error, got %v", err)
	}
}

func TestClose(t *testing.T) {
	lib := nativetest.New(nil)
	v, err := New(lib, nil)
	if err != nil {
		t.Fatal(err)
	}
	v.Add("a", []byte("1"))

	if err := v.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := v.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if lib.Live().VFS != 0 {
		t.Fatal("native table not released")
	}

	if err := v.Add("b", []byte("2")); !stderrors.Is(err, errors.ErrClosed) {
		t.Fatalf("Add after Close = %v", err)
	}
	if _, ok := v.Get("a"); ok {
		t.Fatal("Get after Close should fail")
	}
	if v.Delete("a") {
		t.Fatal("Delete after Close should fail")
	}
	if v.Len() != 0 {
		t.Fatal("Len after Close should be 0")
	}
	if err := v.Use(func(native.VFSHandle) error { return nil }); !stderrors.Is(err, errors.ErrClosed) {
		t.Fatalf("Use after Close = %v", err)
	}
}

func TestNewFailure(t *testing.T) {
	lib := nativetest.New(nil)
	lib.FailNext(nativetest.OpNewVFS, 1)
	if _, err := New(lib, nil); err == nil || !strings.Contains(err.Error(), "allocation") {
		t.Fatalf("err = %v", err)
	}
	if _, err := New(nil, nil); err == nil {
		t.Fatal("nil library should fail")
	}
}

func TestConcurrentAdd(t *testing.T) {
	v, _ := newVFS(t, native.Limits{})

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- v.Add(string(rune('a'+i)), []byte{byte(i + 1)})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if v.Len() != 16 {
		t.Fatalf("Len = %d, want 16", v.Len())
	}
}

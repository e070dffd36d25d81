package sim

import (
	"encoding/binary"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/internal/marshal"
	"github.com/wippyai/mujoco-runtime/metrics"
	"github.com/wippyai/mujoco-runtime/native"
	"github.com/wippyai/mujoco-runtime/vfs"
)

// Config configures an Engine. A nil Config opens the native binding with
// default settings.
type Config struct {
	// Library is the native surface. When nil, native.Open is used.
	Library native.Library

	// ErrorBufferSize is the capacity of the loader error buffer.
	// Zero means marshal.DefaultErrorBufferSize.
	ErrorBufferSize int

	// SkipBinaryValidation hands bytes to the native binary loader without
	// checking the mjb header first.
	SkipBinaryValidation bool

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Engine loads models. It owns the virtual file table used for in-memory
// descriptions and binaries. An Engine is safe for concurrent use.
type Engine struct {
	lib     native.Library
	vfs     *vfs.VFS
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Metrics
}

// New creates an Engine.
func New(cfg *Config) (*Engine, error) {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.Library == nil {
		lib, err := native.Open()
		if err != nil {
			return nil, err
		}
		c.Library = lib
	}
	if c.ErrorBufferSize < 0 {
		return nil, errors.InvalidInput(errors.PhaseConfig, "negative error buffer size")
	}
	log := c.Logger
	if log == nil {
		log = Logger()
	}

	table, err := vfs.New(c.Library, &vfs.Config{Logger: log, Metrics: c.Metrics})
	if err != nil {
		return nil, err
	}

	log.Debug("engine created", zap.String("mujoco", c.Library.Version()))
	return &Engine{
		lib:     c.Library,
		vfs:     table,
		cfg:     c,
		log:     log,
		metrics: c.Metrics,
	}, nil
}

// Close releases the engine's file table. Models loaded through the engine
// stay valid.
func (e *Engine) Close() error {
	return e.vfs.Close()
}

// Version returns the native library version.
func (e *Engine) Version() string {
	return e.lib.Version()
}

// VFS returns the engine's file table. Files added to it are visible to
// descriptions loaded with LoadDescription, for example mesh assets.
func (e *Engine) VFS() *vfs.VFS {
	return e.vfs
}

// LoadFile compiles the description at path. The path must name a regular
// file; assets are resolved by the native loader relative to it.
func (e *Engine) LoadFile(path string) (*Model, error) {
	m, err := e.loadFile(path)
	e.metrics.ObserveLoad(metrics.SourceFile, err)
	return m, err
}

func (e *Engine) loadFile(path string) (*Model, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Object("file").Value(path).Cause(err).Detail("cannot stat %q", path).Build()
	}
	if !info.Mode().IsRegular() {
		return nil, errors.FileNotFound(path)
	}
	return e.loadXML(path, nil)
}

// LoadDescription compiles an in-memory description. The text is written to
// the engine's VFS under a reserved name that is removed on every exit path.
func (e *Engine) LoadDescription(text string) (*Model, error) {
	m, err := e.loadDescription(text)
	e.metrics.ObserveLoad(metrics.SourceDescription, err)
	return m, err
}

func (e *Engine) loadDescription(text string) (*Model, error) {
	name := "mjruntime-desc-" + uuid.NewString() + ".xml"
	if err := e.vfs.Add(name, []byte(text)); err != nil {
		return nil, err
	}
	defer e.vfs.Delete(name)

	var m *Model
	err := e.vfs.Use(func(h native.VFSHandle) error {
		var err error
		m, err = e.loadXML(name, h)
		return err
	})
	return m, err
}

// loadXML runs the native XML loader and applies the error buffer contract:
// text means failure, no text and no model is an invariant violation.
func (e *Engine) loadXML(name string, h native.VFSHandle) (*Model, error) {
	errBuf := marshal.NewErrorBuffer(e.cfg.ErrorBufferSize)
	handle := e.lib.LoadXML(name, h, errBuf)
	msg := marshal.DecodeErrorBuffer(errBuf)

	if msg != "" {
		if handle != nil {
			e.lib.DeleteModel(handle)
		}
		e.log.Debug("model load failed", zap.String("name", name), zap.String("error", msg))
		return nil, errors.Native(errors.PhaseLoad, msg)
	}
	if handle == nil {
		errors.Invariant(errors.PhaseLoad, "loader returned no model and no error for %q", name)
	}
	return e.newModel(handle), nil
}

// LoadBytes loads a compiled binary model as produced by Model.Bytes.
// Unless Config.SkipBinaryValidation is set, the mjb header is checked before
// the bytes reach the native loader.
func (e *Engine) LoadBytes(b []byte) (*Model, error) {
	m, err := e.loadBytes(b)
	e.metrics.ObserveLoad(metrics.SourceBytes, err)
	return m, err
}

func (e *Engine) loadBytes(b []byte) (*Model, error) {
	if !e.cfg.SkipBinaryValidation {
		if err := validateBinary(b); err != nil {
			return nil, err
		}
	}

	name := "mjruntime-bin-" + uuid.NewString() + ".mjb"
	if err := e.vfs.Add(name, b); err != nil {
		return nil, err
	}
	defer e.vfs.Delete(name)

	var m *Model
	err := e.vfs.Use(func(h native.VFSHandle) error {
		handle := e.lib.LoadModel(name, h)
		if handle == nil {
			return errors.Native(errors.PhaseLoad, "binary model rejected by native loader")
		}
		m = e.newModel(handle)
		return nil
	})
	return m, err
}

func validateBinary(b []byte) error {
	if len(b) < 4 {
		return errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Object("binary model").Value(len(b)).
			Detail("%d bytes is shorter than the header", len(b)).Build()
	}
	if h := int32(binary.NativeEndian.Uint32(b)); h != native.BinaryHeader {
		return errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Object("binary model").Value(h).
			Detail("header %d, want %d", h, native.BinaryHeader).Build()
	}
	return nil
}

func (e *Engine) newModel(h native.ModelHandle) *Model {
	e.metrics.HandleOpened(metrics.KindModel)
	m := &Model{lib: e.lib, handle: h, log: e.log, metrics: e.metrics}
	m.origin = m
	return m
}

package sim

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/internal/marshal"
	"github.com/wippyai/mujoco-runtime/metrics"
	"github.com/wippyai/mujoco-runtime/native"
)

// Model owns one compiled mjModel. Models are immutable after loading and
// safe for concurrent read-only use; Close waits for in-flight reads.
//
// After Close, counts report zero, lookups report absent and the remaining
// accessors return errors.ErrClosed.
type Model struct {
	lib     native.Library
	handle  native.ModelHandle
	log     *zap.Logger
	metrics *metrics.Metrics
	origin  *Model // the loaded model this one copies; itself when loaded

	mu     sync.RWMutex
	closed bool
}

// read runs fn with the handle under the read lock.
func (m *Model) read(fn func(h native.ModelHandle) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return errors.Closed(errors.PhaseRuntime, "model")
	}
	return fn(m.handle)
}

func (m *Model) count(c native.Count) int {
	var n int
	_ = m.read(func(h native.ModelHandle) error {
		n = m.lib.ModelCount(h, c)
		return nil
	})
	return n
}

// NBody returns the number of bodies, including the world body.
func (m *Model) NBody() int { return m.count(native.CountBody) }

// NGeom returns the number of geoms.
func (m *Model) NGeom() int { return m.count(native.CountGeom) }

// NMesh returns the number of meshes.
func (m *Model) NMesh() int { return m.count(native.CountMesh) }

// NQ returns the number of generalized coordinates.
func (m *Model) NQ() int { return m.count(native.CountQ) }

// NV returns the number of degrees of freedom.
func (m *Model) NV() int { return m.count(native.CountV) }

// NU returns the number of actuators.
func (m *Model) NU() int { return m.count(native.CountU) }

// NA returns the number of activation states.
func (m *Model) NA() int { return m.count(native.CountA) }

// NSensorData returns the number of sensor channels.
func (m *Model) NSensorData() int { return m.count(native.CountSensorData) }

// NSensor returns the number of sensors.
func (m *Model) NSensor() int { return m.count(native.CountSensor) }

// NJoint returns the number of joints.
func (m *Model) NJoint() int { return m.count(native.CountJoint) }

// NLight returns the number of lights.
func (m *Model) NLight() int { return m.count(native.CountLight) }

// NMeshVert returns the total number of mesh vertices.
func (m *Model) NMeshVert() int { return m.count(native.CountMeshVert) }

// NMeshFace returns the total number of mesh faces.
func (m *Model) NMeshFace() int { return m.count(native.CountMeshFace) }

func (m *Model) meshField(f native.Field, i int) (int, error) {
	var v int32
	err := m.read(func(h native.ModelHandle) error {
		n := m.lib.ModelCount(h, native.CountMesh)
		if i < 0 || i >= n {
			return errors.OutOfBounds(errors.PhaseRuntime, []string{"mesh"}, i, n)
		}
		var err error
		v, err = marshal.Int32At(m.lib.ModelArray(h, f), i)
		return err
	})
	return int(v), err
}

// MeshVertAddr returns the first vertex of mesh i in the model's vertex table.
func (m *Model) MeshVertAddr(i int) (int, error) { return m.meshField(native.FieldMeshVertAddr, i) }

// MeshVertNum returns the vertex count of mesh i.
func (m *Model) MeshVertNum(i int) (int, error) { return m.meshField(native.FieldMeshVertNum, i) }

// MeshFaceAddr returns the first face of mesh i in the model's face table.
func (m *Model) MeshFaceAddr(i int) (int, error) { return m.meshField(native.FieldMeshFaceAddr, i) }

// MeshFaceNum returns the face count of mesh i.
func (m *Model) MeshFaceNum(i int) (int, error) { return m.meshField(native.FieldMeshFaceNum, i) }

// NameToID returns the id of the named object. An id outside the declared
// object count is an invariant violation.
func (m *Model) NameToID(obj native.ObjType, name string) (int, bool) {
	id := native.IDNotFound
	_ = m.read(func(h native.ModelHandle) error {
		id = m.lib.Name2ID(h, obj, name)
		if id < 0 {
			return nil
		}
		if c, ok := obj.CountOf(); ok {
			if n := m.lib.ModelCount(h, c); id >= n {
				errors.Invariant(errors.PhaseRuntime, "mj_name2id(%s, %q) = %d, only %d objects", obj, name, id, n)
			}
		}
		return nil
	})
	return id, id >= 0
}

// IDToName returns the name of object id. Unnamed objects and ids outside
// [0, count) report false.
func (m *Model) IDToName(obj native.ObjType, id int) (string, bool) {
	var (
		name string
		ok   bool
	)
	_ = m.read(func(h native.ModelHandle) error {
		if id < 0 {
			return nil
		}
		if c, known := obj.CountOf(); known && id >= m.lib.ModelCount(h, c) {
			return nil
		}
		name, ok = m.lib.ID2Name(h, obj, id)
		return nil
	})
	return name, ok
}

// Names returns every entry of the model's names table in order, starting
// with the model name.
func (m *Model) Names() ([]string, error) {
	var names []string
	err := m.read(func(h native.ModelHandle) error {
		var err error
		names, err = marshal.Strings(m.lib.ModelArray(h, native.FieldNames))
		return err
	})
	return names, err
}

// Bytes serializes the model into the native binary format. The result has
// exactly the size reported by the native size query.
func (m *Model) Bytes() ([]byte, error) {
	var buf []byte
	err := m.read(func(h native.ModelHandle) error {
		size := m.lib.SizeModel(h)
		if size <= 0 {
			return errors.New(errors.PhaseSerialize, errors.KindNative).
				Value(size).Detail("mj_sizeModel returned %d", size).Build()
		}
		buf = make([]byte, size)
		m.lib.SaveModel(h, buf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.metrics.ObserveSerialized(len(buf))
	return buf, nil
}

// Clone returns an independent deep copy of the model.
func (m *Model) Clone() (*Model, error) {
	var c *Model
	err := m.read(func(h native.ModelHandle) error {
		ch := m.lib.CopyModel(h)
		if ch == nil {
			errors.Invariant(errors.PhaseRuntime, "mj_copyModel returned NULL")
		}
		m.metrics.HandleOpened(metrics.KindModel)
		c = &Model{lib: m.lib, handle: ch, log: m.log, metrics: m.metrics, origin: m.origin}
		return nil
	})
	m.metrics.ObserveLoad(metrics.SourceClone, err)
	return c, err
}

// Close frees the native model. It is safe to call more than once.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.lib.DeleteModel(m.handle)
	m.handle = nil
	m.metrics.HandleClosed(metrics.KindModel)
	return nil
}

package nativetest

import (
	"fmt"
	"sync"
	"unsafe"

	mjruntime "github.com/wippyai/mujoco-runtime"
	"github.com/wippyai/mujoco-runtime/native"
)

// Version reported by Library.Version.
const Version = "2.3.7"

// Op names an allocating native call that FailNext can force to return nil.
type Op uint8

const (
	OpNewVFS Op = iota
	OpLoadXML
	OpLoadModel
	OpCopyModel
	OpMakeData
	OpCopyData
	opMax
)

func (o Op) String() string {
	switch o {
	case OpNewVFS:
		return "NewVFS"
	case OpLoadXML:
		return "LoadXML"
	case OpLoadModel:
		return "LoadModel"
	case OpCopyModel:
		return "CopyModel"
	case OpMakeData:
		return "MakeData"
	case OpCopyData:
		return "CopyData"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Config configures a Library. A nil Config uses the MuJoCo 2.3 limits.
type Config struct {
	// Limits overrides mjMAXVFS and mjMAXVFSNAME. Zero fields keep the
	// defaults.
	Limits native.Limits
}

// Stats counts live native objects.
type Stats struct {
	VFS    int
	Models int
	Data   int
}

type handleKind uint8

const (
	kindVFS handleKind = iota + 1
	kindModel
	kindData
)

func (k handleKind) String() string {
	switch k {
	case kindVFS:
		return "vfs"
	case kindModel:
		return "model"
	case kindData:
		return "data"
	}
	return "unknown"
}

// Library is a pure-Go implementation of native.Library.
type Library struct {
	limits native.Limits

	mu      sync.Mutex
	live    map[unsafe.Pointer]handleKind
	fail    [opMax]int
	created [opMax]int
}

var _ native.Library = (*Library)(nil)

// New creates a Library.
func New(cfg *Config) *Library {
	limits := native.Limits{MaxVFSFiles: 2000, MaxVFSName: 1000}
	if cfg != nil {
		if cfg.Limits.MaxVFSFiles > 0 {
			limits.MaxVFSFiles = cfg.Limits.MaxVFSFiles
		}
		if cfg.Limits.MaxVFSName > 0 {
			limits.MaxVFSName = cfg.Limits.MaxVFSName
		}
	}
	return &Library{
		limits: limits,
		live:   make(map[unsafe.Pointer]handleKind),
	}
}

// FailNext makes the next n calls of op return nil.
func (l *Library) FailNext(op Op, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail[op] += n
}

// Created returns how many objects op has successfully allocated.
func (l *Library) Created(op Op) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.created[op]
}

// Live returns the number of allocated, not yet freed, native objects.
func (l *Library) Live() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	var s Stats
	for _, k := range l.live {
		switch k {
		case kindVFS:
			s.VFS++
		case kindModel:
			s.Models++
		case kindData:
			s.Data++
		}
	}
	return s
}

// shouldFail consumes one injected failure for op.
func (l *Library) shouldFail(op Op) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail[op] > 0 {
		l.fail[op]--
		return true
	}
	return false
}

func (l *Library) track(op Op, p unsafe.Pointer, k handleKind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.live[p] = k
	l.created[op]++
}

func (l *Library) release(p unsafe.Pointer, k handleKind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if got, ok := l.live[p]; !ok || got != k {
		panic(fmt.Sprintf("nativetest: free of unknown or already freed %s %p", k, p))
	}
	delete(l.live, p)
}

func (l *Library) check(p unsafe.Pointer, k handleKind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if got, ok := l.live[p]; !ok || got != k {
		panic(fmt.Sprintf("nativetest: use of unknown or freed %s %p", k, p))
	}
}

func (l *Library) table(v native.VFSHandle) *vfsTable {
	p := unsafe.Pointer(v)
	l.check(p, kindVFS)
	return (*vfsTable)(p)
}

func (l *Library) model(m native.ModelHandle) *model {
	p := unsafe.Pointer(m)
	l.check(p, kindModel)
	return (*model)(p)
}

func (l *Library) data(d native.DataHandle) *data {
	p := unsafe.Pointer(d)
	l.check(p, kindData)
	return (*data)(p)
}

// pair resolves both handles and panics when d was allocated for a model
// of different sizes, where the native engine would overrun its buffers.
func (l *Library) pair(m native.ModelHandle, d native.DataHandle) (*model, *data) {
	mm, dd := l.model(m), l.data(d)
	if got, want := mm.sizes(), dd.sizes; got != want {
		panic(fmt.Sprintf("nativetest: data sized for %v used with model sized %v", want, got))
	}
	return mm, dd
}

func (l *Library) Version() string { return Version }

func (l *Library) Limits() native.Limits { return l.limits }

func (l *Library) NewVFS() native.VFSHandle {
	if l.shouldFail(OpNewVFS) {
		return nil
	}
	t := &vfsTable{limits: l.limits}
	l.track(OpNewVFS, unsafe.Pointer(t), kindVFS)
	return native.VFSHandle(unsafe.Pointer(t))
}

func (l *Library) DeleteVFS(v native.VFSHandle) {
	if v == nil {
		return
	}
	l.release(unsafe.Pointer(v), kindVFS)
	(*vfsTable)(unsafe.Pointer(v)).clear()
}

func (l *Library) MakeEmptyFileVFS(v native.VFSHandle, name string, size int) int {
	return l.table(v).makeEmpty(name, size)
}

func (l *Library) FindFileVFS(v native.VFSHandle, name string) int {
	return l.table(v).find(name)
}

func (l *Library) FileData(v native.VFSHandle, idx int) []byte {
	return l.table(v).fileData(idx)
}

func (l *Library) DeleteFileVFS(v native.VFSHandle, name string) int {
	return l.table(v).remove(name)
}

func (l *Library) FileCountVFS(v native.VFSHandle) int {
	return len(l.table(v).names)
}

func (l *Library) LoadXML(filename string, v native.VFSHandle, errBuf []byte) native.ModelHandle {
	if l.shouldFail(OpLoadXML) {
		return nil
	}
	var t *vfsTable
	if v != nil {
		t = l.table(v)
	}
	m, err := compileFile(filename, t)
	if err != nil {
		writeError(errBuf, err.Error())
		return nil
	}
	return l.trackModel(OpLoadXML, m)
}

func (l *Library) LoadModel(filename string, v native.VFSHandle) native.ModelHandle {
	if l.shouldFail(OpLoadModel) {
		return nil
	}
	var t *vfsTable
	if v != nil {
		t = l.table(v)
	}
	raw, err := readResource(filename, "", t)
	if err != nil {
		return nil
	}
	m, err := decodeModel(raw)
	if err != nil {
		return nil
	}
	return l.trackModel(OpLoadModel, m)
}

func (l *Library) trackModel(op Op, m *model) native.ModelHandle {
	l.track(op, unsafe.Pointer(m), kindModel)
	return native.ModelHandle(unsafe.Pointer(m))
}

func (l *Library) SizeModel(m native.ModelHandle) int {
	return len(l.model(m).encode())
}

func (l *Library) SaveModel(m native.ModelHandle, buf []byte) {
	copy(buf, l.model(m).encode())
}

func (l *Library) CopyModel(m native.ModelHandle) native.ModelHandle {
	src := l.model(m)
	if l.shouldFail(OpCopyModel) {
		return nil
	}
	return l.trackModel(OpCopyModel, src.clone())
}

func (l *Library) DeleteModel(m native.ModelHandle) {
	if m == nil {
		return
	}
	l.release(unsafe.Pointer(m), kindModel)
}

func (l *Library) Name2ID(m native.ModelHandle, obj native.ObjType, name string) int {
	return l.model(m).name2id(obj, name)
}

func (l *Library) ID2Name(m native.ModelHandle, obj native.ObjType, id int) (string, bool) {
	return l.model(m).id2name(obj, id)
}

func (l *Library) ModelCount(m native.ModelHandle, c native.Count) int {
	return l.model(m).count(c)
}

func (l *Library) ModelArray(m native.ModelHandle, f native.Field) mjruntime.Array {
	return l.model(m).array(f)
}

func (l *Library) MakeData(m native.ModelHandle) native.DataHandle {
	mm := l.model(m)
	if l.shouldFail(OpMakeData) {
		return nil
	}
	d := newData(mm)
	l.track(OpMakeData, unsafe.Pointer(d), kindData)
	return native.DataHandle(unsafe.Pointer(d))
}

func (l *Library) CopyData(m native.ModelHandle, d native.DataHandle) native.DataHandle {
	mm, src := l.pair(m, d)
	if l.shouldFail(OpCopyData) {
		return nil
	}
	dst := src.clone(mm)
	l.track(OpCopyData, unsafe.Pointer(dst), kindData)
	return native.DataHandle(unsafe.Pointer(dst))
}

func (l *Library) DeleteData(d native.DataHandle) {
	if d == nil {
		return
	}
	l.release(unsafe.Pointer(d), kindData)
}

func (l *Library) ResetData(m native.ModelHandle, d native.DataHandle) {
	mm, dd := l.pair(m, d)
	dd.reset(mm)
}

func (l *Library) Forward(m native.ModelHandle, d native.DataHandle) {
	mm, dd := l.pair(m, d)
	dd.forward(mm)
}

func (l *Library) Step(m native.ModelHandle, d native.DataHandle) {
	mm, dd := l.pair(m, d)
	dd.step(mm)
}

func (l *Library) SensorPos(m native.ModelHandle, d native.DataHandle) {
	mm, dd := l.pair(m, d)
	dd.sensors(mm, sensorJointPos)
}

func (l *Library) SensorVel(m native.ModelHandle, d native.DataHandle) {
	mm, dd := l.pair(m, d)
	dd.sensors(mm, sensorJointVel)
}

// SensorAcc is a no-op: no acceleration-stage sensors are compiled.
func (l *Library) SensorAcc(m native.ModelHandle, d native.DataHandle) {
	l.pair(m, d)
}

func (l *Library) DataArray(m native.ModelHandle, d native.DataHandle, f native.Field) mjruntime.Array {
	_, dd := l.pair(m, d)
	return dd.array(f)
}

func (l *Library) Time(d native.DataHandle) float64 {
	return l.data(d).Time
}

// writeError copies msg into buf as a nul-terminated string, truncating to
// fit like strncpy followed by an explicit terminator.
func writeError(buf []byte, msg string) {
	if len(buf) == 0 {
		return
	}
	n := copy(buf[:len(buf)-1], msg)
	buf[n] = 0
}

func arrayOf[T float32 | float64 | int32 | byte](s []T, elem mjruntime.Elem) mjruntime.Array {
	if len(s) == 0 {
		return mjruntime.Array{Elem: elem}
	}
	return mjruntime.Array{Ptr: unsafe.Pointer(&s[0]), Len: len(s), Elem: elem}
}

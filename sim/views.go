package sim

import (
	"strconv"

	"github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/internal/marshal"
	"github.com/wippyai/mujoco-runtime/native"
)

// Body is a snapshot of one body.
type Body struct {
	ID       int
	Name     string
	ParentID int // -1 for the world body
	GeomNum  int
	GeomAddr int // -1 when the body has no geoms
	Pos      [3]float64
	Quat     [4]float64 // w, x, y, z; relative to the parent
}

// Geom is a snapshot of one geom.
type Geom struct {
	ID      int
	Name    string
	Type    native.GeomType
	BodyID  int
	Pos     [3]float64
	Quat    [4]float64
	Size    [3]float64
	Color   [4]float64
	Mesh    *Mesh // set for mesh geoms
	Group   int
	ConType int
}

// Mesh is a snapshot of one mesh. Indices hold three vertex indices per
// triangle, relative to Vertices.
type Mesh struct {
	ID       int
	Name     string
	Vertices [][3]float64
	Normals  [][3]float64
	Indices  []uint32
}

func (m *Mesh) clone() *Mesh {
	c := *m
	c.Vertices = append([][3]float64(nil), m.Vertices...)
	c.Normals = append([][3]float64(nil), m.Normals...)
	c.Indices = append([]uint32(nil), m.Indices...)
	return &c
}

// Geoms returns the body's geoms out of all, the result of Model.Geoms.
func (b Body) Geoms(all []Geom) []Geom {
	if b.GeomNum <= 0 || b.GeomAddr < 0 || b.GeomAddr+b.GeomNum > len(all) {
		return nil
	}
	return append([]Geom(nil), all[b.GeomAddr:b.GeomAddr+b.GeomNum]...)
}

// RenderGeom picks the geom that represents the body visually. A body with
// a single geom uses it. Otherwise only visible groups (0-2) compete:
// primitive geoms win over meshes, then the lowest group, then the lowest id.
func (b Body) RenderGeom(all []Geom) (Geom, bool) {
	geoms := b.Geoms(all)
	if len(geoms) == 1 {
		return geoms[0], true
	}
	best := -1
	for i, g := range geoms {
		if g.Group >= 3 {
			continue
		}
		if best < 0 || renderBefore(g, geoms[best]) {
			best = i
		}
	}
	if best < 0 {
		return Geom{}, false
	}
	return geoms[best], true
}

func renderBefore(a, b Geom) bool {
	am, bm := a.Type == native.GeomMesh, b.Type == native.GeomMesh
	if am != bm {
		return bm
	}
	if a.Group != b.Group {
		return a.Group < b.Group
	}
	return a.ID < b.ID
}

// names reads the name of every object addressed by the name table field.
func names(lib native.Library, h native.ModelHandle, addrField native.Field, n int) ([]string, error) {
	addrs, err := marshal.Int32s(lib.ModelArray(h, addrField), marshal.All(n), 1)
	if err != nil {
		return nil, err
	}
	table := lib.ModelArray(h, native.FieldNames)
	out := make([]string, n)
	for i, a := range addrs {
		if out[i], err = marshal.CString(table, int(a)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Bodies returns a snapshot of every body, the world body first.
func (m *Model) Bodies() ([]Body, error) {
	var bodies []Body
	err := m.read(func(h native.ModelHandle) error {
		lib := m.lib
		n := lib.ModelCount(h, native.CountBody)
		all := marshal.All(n)

		parent, err := marshal.Int32s(lib.ModelArray(h, native.FieldBodyParentID), all, 1)
		if err != nil {
			return err
		}
		geomNum, err := marshal.Int32s(lib.ModelArray(h, native.FieldBodyGeomNum), all, 1)
		if err != nil {
			return err
		}
		geomAddr, err := marshal.Int32s(lib.ModelArray(h, native.FieldBodyGeomAddr), all, 1)
		if err != nil {
			return err
		}
		pos, err := marshal.Vecs[[3]float64](lib.ModelArray(h, native.FieldBodyPos), all)
		if err != nil {
			return err
		}
		quat, err := marshal.Vecs[[4]float64](lib.ModelArray(h, native.FieldBodyQuat), all)
		if err != nil {
			return err
		}
		nm, err := names(lib, h, native.FieldNameBodyAddr, n)
		if err != nil {
			return err
		}

		bodies = make([]Body, n)
		for i := range bodies {
			bodies[i] = Body{
				ID:       i,
				Name:     nm[i],
				ParentID: int(parent[i]),
				GeomNum:  int(geomNum[i]),
				GeomAddr: int(geomAddr[i]),
				Pos:      pos[i],
				Quat:     quat[i],
			}
		}
		return nil
	})
	return bodies, err
}

// Meshes returns a snapshot of every mesh.
func (m *Model) Meshes() ([]Mesh, error) {
	var meshes []Mesh
	err := m.read(func(h native.ModelHandle) error {
		var err error
		meshes, err = readMeshes(m.lib, h)
		return err
	})
	return meshes, err
}

func readMeshes(lib native.Library, h native.ModelHandle) ([]Mesh, error) {
	n := lib.ModelCount(h, native.CountMesh)
	all := marshal.All(n)

	vertAddr, err := marshal.Int32s(lib.ModelArray(h, native.FieldMeshVertAddr), all, 1)
	if err != nil {
		return nil, err
	}
	vertNum, err := marshal.Int32s(lib.ModelArray(h, native.FieldMeshVertNum), all, 1)
	if err != nil {
		return nil, err
	}
	faceAddr, err := marshal.Int32s(lib.ModelArray(h, native.FieldMeshFaceAddr), all, 1)
	if err != nil {
		return nil, err
	}
	faceNum, err := marshal.Int32s(lib.ModelArray(h, native.FieldMeshFaceNum), all, 1)
	if err != nil {
		return nil, err
	}
	nm, err := names(lib, h, native.FieldNameMeshAddr, n)
	if err != nil {
		return nil, err
	}

	verts := lib.ModelArray(h, native.FieldMeshVert)
	normals := lib.ModelArray(h, native.FieldMeshNormal)
	faces := lib.ModelArray(h, native.FieldMeshFace)

	meshes := make([]Mesh, n)
	for i := range meshes {
		vspan := marshal.Span{Start: int(vertAddr[i]), Count: int(vertNum[i])}
		fspan := marshal.Span{Start: int(faceAddr[i]), Count: int(faceNum[i])}

		mesh := Mesh{ID: i, Name: nm[i]}
		if mesh.Vertices, err = marshal.Vecs[[3]float64](verts, vspan); err != nil {
			return nil, err
		}
		if mesh.Normals, err = marshal.Vecs[[3]float64](normals, vspan); err != nil {
			return nil, err
		}
		if mesh.Indices, err = marshal.Triangles(faces, fspan, vspan.Count); err != nil {
			return nil, err
		}
		meshes[i] = mesh
	}
	return meshes, nil
}

// Geoms returns a snapshot of every geom. Mesh geoms carry their mesh.
// An unknown geom type code is an invariant violation.
func (m *Model) Geoms() ([]Geom, error) {
	var geoms []Geom
	err := m.read(func(h native.ModelHandle) error {
		lib := m.lib
		n := lib.ModelCount(h, native.CountGeom)
		all := marshal.All(n)

		types, err := marshal.Int32s(lib.ModelArray(h, native.FieldGeomType), all, 1)
		if err != nil {
			return err
		}
		conType, err := marshal.Int32s(lib.ModelArray(h, native.FieldGeomConType), all, 1)
		if err != nil {
			return err
		}
		bodyID, err := marshal.Int32s(lib.ModelArray(h, native.FieldGeomBodyID), all, 1)
		if err != nil {
			return err
		}
		dataID, err := marshal.Int32s(lib.ModelArray(h, native.FieldGeomDataID), all, 1)
		if err != nil {
			return err
		}
		group, err := marshal.Int32s(lib.ModelArray(h, native.FieldGeomGroup), all, 1)
		if err != nil {
			return err
		}
		pos, err := marshal.Vecs[[3]float64](lib.ModelArray(h, native.FieldGeomPos), all)
		if err != nil {
			return err
		}
		quat, err := marshal.Vecs[[4]float64](lib.ModelArray(h, native.FieldGeomQuat), all)
		if err != nil {
			return err
		}
		size, err := marshal.Vecs[[3]float64](lib.ModelArray(h, native.FieldGeomSize), all)
		if err != nil {
			return err
		}
		rgba, err := marshal.Vecs[[4]float64](lib.ModelArray(h, native.FieldGeomRGBA), all)
		if err != nil {
			return err
		}
		nm, err := names(lib, h, native.FieldNameGeomAddr, n)
		if err != nil {
			return err
		}
		meshes, err := readMeshes(lib, h)
		if err != nil {
			return err
		}

		geoms = make([]Geom, n)
		for i := range geoms {
			typ, ok := native.ParseGeomType(types[i])
			if !ok {
				errors.Violated(errors.InvalidEnum(errors.PhaseMarshal,
					[]string{"geom_type", strconv.Itoa(i)}, types[i], "GeomType"))
			}
			g := Geom{
				ID:      i,
				Name:    nm[i],
				Type:    typ,
				BodyID:  int(bodyID[i]),
				Pos:     pos[i],
				Quat:    quat[i],
				Size:    size[i],
				Color:   rgba[i],
				Group:   int(group[i]),
				ConType: int(conType[i]),
			}
			if typ == native.GeomMesh {
				id := int(dataID[i])
				if id < 0 || id >= len(meshes) {
					return errors.OutOfBounds(errors.PhaseMarshal, []string{"geom_dataid"}, id, len(meshes))
				}
				g.Mesh = meshes[id].clone()
			}
			geoms[i] = g
		}
		return nil
	})
	return geoms, err
}

package sim

import (
	stderrors "errors"
	"math"
	"slices"
	"testing"

	"github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/native"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestBodies(t *testing.T) {
	eng, _ := newEngine(t)
	m := loadModel(t, eng, scene)

	bodies, err := m.Bodies()
	if err != nil {
		t.Fatal(err)
	}
	want := []Body{
		{ID: 0, Name: "world", ParentID: -1, GeomNum: 1, GeomAddr: 0, Quat: [4]float64{1, 0, 0, 0}},
		{ID: 1, Name: "body1", ParentID: 0, GeomNum: 1, GeomAddr: 1, Pos: [3]float64{0, 0, 1}, Quat: [4]float64{1, 0, 0, 0}},
	}
	if !slices.Equal(bodies, want) {
		t.Errorf("Bodies() = %+v\nwant %+v", bodies, want)
	}
}

func TestGeoms(t *testing.T) {
	eng, _ := newEngine(t)
	m := loadModel(t, eng, scene)

	geoms, err := m.Geoms()
	if err != nil {
		t.Fatal(err)
	}
	if len(geoms) != 2 {
		t.Fatalf("len = %d", len(geoms))
	}

	plane, box := geoms[0], geoms[1]
	if plane.Type != native.GeomPlane || plane.BodyID != 0 || plane.Name != "" {
		t.Errorf("plane = %+v", plane)
	}
	if box.Type != native.GeomBox || box.BodyID != 1 || box.Name != "geom1" || box.Mesh != nil {
		t.Errorf("box = %+v", box)
	}
	if box.Size != [3]float64{0.1, 0.2, 0.3} {
		t.Errorf("box size = %v", box.Size)
	}
	for i, want := range [4]float64{0, 0.9, 0, 1} {
		if !near(box.Color[i], want) {
			t.Errorf("box color = %v", box.Color)
			break
		}
	}
	if box.ConType != 1 || box.Group != 0 {
		t.Errorf("box contype/group = %d/%d", box.ConType, box.Group)
	}
}

func TestMeshes(t *testing.T) {
	eng, _ := newEngine(t)
	m := loadModel(t, eng, tetra)

	meshes, err := m.Meshes()
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 1 {
		t.Fatalf("len = %d", len(meshes))
	}
	mesh := meshes[0]
	if mesh.Name != "tet" {
		t.Errorf("name = %q", mesh.Name)
	}
	wantVerts := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	if !slices.Equal(mesh.Vertices, wantVerts) {
		t.Errorf("vertices = %v", mesh.Vertices)
	}
	if !slices.Equal(mesh.Indices, []uint32{0, 2, 1, 0, 1, 3, 0, 3, 2, 1, 2, 3}) {
		t.Errorf("indices = %v", mesh.Indices)
	}
	if len(mesh.Normals) != len(mesh.Vertices) {
		t.Errorf("%d normals for %d vertices", len(mesh.Normals), len(mesh.Vertices))
	}
	for _, n := range mesh.Normals {
		if l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]); !near(l, 1) {
			t.Errorf("normal %v has length %v", n, l)
		}
	}

	geoms, err := m.Geoms()
	if err != nil {
		t.Fatal(err)
	}
	if geoms[0].Mesh == nil || geoms[0].Mesh.Name != "tet" {
		t.Fatalf("mesh geom carries %+v", geoms[0].Mesh)
	}
	if geoms[1].Mesh != nil {
		t.Error("sphere geom carries a mesh")
	}
}

func TestGeomsMeshCopies(t *testing.T) {
	eng, _ := newEngine(t)
	m := loadModel(t, eng, pair)

	geoms, err := m.Geoms()
	if err != nil {
		t.Fatal(err)
	}
	left, right := geoms[0].Mesh, geoms[1].Mesh
	if left == nil || right == nil {
		t.Fatal("mesh geoms without mesh")
	}
	if left == right {
		t.Fatal("geoms sharing a mesh share one *Mesh")
	}
	if !slices.Equal(left.Vertices, right.Vertices) || !slices.Equal(left.Indices, right.Indices) {
		t.Fatal("copies differ")
	}

	left.Vertices[0] = [3]float64{9, 9, 9}
	left.Normals[0] = [3]float64{0, 0, 0}
	left.Indices[0] = 3
	if right.Vertices[0] != [3]float64{0, 0, 0} || right.Indices[0] != 0 {
		t.Error("mutating one geom's mesh changed the other")
	}
	if near(right.Normals[0][0]*right.Normals[0][0]+right.Normals[0][1]*right.Normals[0][1]+right.Normals[0][2]*right.Normals[0][2], 0) {
		t.Error("mutating one geom's normals changed the other")
	}

	meshes, _ := m.Meshes()
	if meshes[0].Vertices[0] != [3]float64{0, 0, 0} {
		t.Error("mesh snapshot affected by geom mutation")
	}
}

func TestGeomsUnknownType(t *testing.T) {
	eng, lib := newEngine(t)
	m := loadModel(t, eng, scene)

	arr := lib.ModelArray(m.handle, native.FieldGeomType)
	*(*int32)(arr.Ptr) = 42

	e := expectInvariant(t, func() { m.Geoms() })
	if e.Phase != errors.PhaseMarshal {
		t.Errorf("phase = %s", e.Phase)
	}
	if !slices.Equal(e.Path, []string{"geom_type", "0"}) || e.Value != int32(42) {
		t.Errorf("path = %v, value = %v", e.Path, e.Value)
	}
	if !stderrors.Is(e, &errors.Error{Kind: errors.KindInvalidEnum}) {
		t.Errorf("invariant %v is not caused by an invalid enum", e)
	}
}

func TestMeshFaceOutOfRange(t *testing.T) {
	eng, lib := newEngine(t)
	m := loadModel(t, eng, tetra)

	arr := lib.ModelArray(m.handle, native.FieldMeshFace)
	*(*int32)(arr.Ptr) = 99

	_, err := m.Meshes()
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindOutOfBounds {
		t.Fatalf("err = %v, want out of bounds", err)
	}
	if _, err := m.Geoms(); err == nil {
		t.Fatal("Geoms should surface the mesh error")
	}
}

func TestBodyGeomsAndRenderGeom(t *testing.T) {
	all := []Geom{
		{ID: 0, Type: native.GeomPlane},
		{ID: 1, Type: native.GeomBox, Group: 3},
		{ID: 2, Type: native.GeomSphere, Group: 2},
		{ID: 3, Type: native.GeomCapsule, Group: 1},
		{ID: 4, Type: native.GeomMesh, Group: 2},
		{ID: 5, Type: native.GeomBox, Group: 4},
		{ID: 6, Type: native.GeomSphere, Group: 5},
		{ID: 7, Type: native.GeomMesh, Group: 0},
		{ID: 8, Type: native.GeomSphere, Group: 2},
		{ID: 9, Type: native.GeomMesh, Group: 1},
		{ID: 10, Type: native.GeomMesh, Group: 0},
	}

	tests := []struct {
		name  string
		body  Body
		geoms []int
		want  int // -1 for none
	}{
		{"no geoms", Body{GeomAddr: -1}, nil, -1},
		{"single", Body{GeomNum: 1, GeomAddr: 0}, []int{0}, 0},
		{"single hidden group", Body{GeomNum: 1, GeomAddr: 1}, []int{1}, 1},
		{"lowest group", Body{GeomNum: 2, GeomAddr: 2}, []int{2, 3}, 3},
		{"primitive over mesh", Body{GeomNum: 3, GeomAddr: 2}, []int{2, 3, 4}, 3},
		{"primitive over lower group mesh", Body{GeomNum: 2, GeomAddr: 7}, []int{7, 8}, 8},
		{"meshes only", Body{GeomNum: 2, GeomAddr: 9}, []int{9, 10}, 10},
		{"all hidden", Body{GeomNum: 2, GeomAddr: 5}, []int{5, 6}, -1},
		{"out of range", Body{GeomNum: 3, GeomAddr: 10}, nil, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ids []int
			for _, g := range tc.body.Geoms(all) {
				ids = append(ids, g.ID)
			}
			if !slices.Equal(ids, tc.geoms) {
				t.Errorf("Geoms = %v, want %v", ids, tc.geoms)
			}

			g, ok := tc.body.RenderGeom(all)
			switch {
			case tc.want < 0 && ok:
				t.Errorf("RenderGeom = %d, want none", g.ID)
			case tc.want >= 0 && (!ok || g.ID != tc.want):
				t.Errorf("RenderGeom = %d, %v; want %d", g.ID, ok, tc.want)
			}
		})
	}
}

func TestRenderGeomFromModel(t *testing.T) {
	eng, _ := newEngine(t)
	m := loadModel(t, eng, tetra)

	bodies, _ := m.Bodies()
	geoms, _ := m.Geoms()
	g, ok := bodies[1].RenderGeom(geoms)
	if !ok || g.Name != "rock_geom" {
		t.Fatalf("RenderGeom = %q, %v", g.Name, ok)
	}
	if _, ok := bodies[0].RenderGeom(geoms); ok {
		t.Error("world body without geoms rendered something")
	}
}

package nativetest

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wippyai/mujoco-runtime/native"
)

type xmlDoc struct {
	XMLName   xml.Name    `xml:"mujoco"`
	Model     string      `xml:"model,attr"`
	Option    xmlOption   `xml:"option"`
	Meshes    []xmlMesh   `xml:"asset>mesh"`
	Worldbody xmlBody     `xml:"worldbody"`
	Motors    []xmlMotor  `xml:"actuator>motor"`
	JointPos  []xmlSensor `xml:"sensor>jointpos"`
	JointVel  []xmlSensor `xml:"sensor>jointvel"`
}

type xmlOption struct {
	Timestep string `xml:"timestep,attr"`
	Gravity  string `xml:"gravity,attr"`
}

type xmlMesh struct {
	Name   string `xml:"name,attr"`
	File   string `xml:"file,attr"`
	Vertex string `xml:"vertex,attr"`
	Face   string `xml:"face,attr"`
}

type xmlBody struct {
	Name       string     `xml:"name,attr"`
	Pos        string     `xml:"pos,attr"`
	Quat       string     `xml:"quat,attr"`
	Joints     []xmlJoint `xml:"joint"`
	FreeJoints []xmlJoint `xml:"freejoint"`
	Geoms      []xmlGeom  `xml:"geom"`
	Lights     []xmlNamed `xml:"light"`
	Bodies     []xmlBody  `xml:"body"`
}

type xmlJoint struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
	Axis string `xml:"axis,attr"`
}

type xmlGeom struct {
	Name    string `xml:"name,attr"`
	Type    string `xml:"type,attr"`
	Size    string `xml:"size,attr"`
	Pos     string `xml:"pos,attr"`
	Quat    string `xml:"quat,attr"`
	RGBA    string `xml:"rgba,attr"`
	Mesh    string `xml:"mesh,attr"`
	Group   string `xml:"group,attr"`
	ConType string `xml:"contype,attr"`
}

type xmlNamed struct {
	Name string `xml:"name,attr"`
}

type xmlMotor struct {
	Name  string `xml:"name,attr"`
	Joint string `xml:"joint,attr"`
	Gear  string `xml:"gear,attr"`
}

type xmlSensor struct {
	Name  string `xml:"name,attr"`
	Joint string `xml:"joint,attr"`
}

// compileFile loads filename through the VFS or filesystem and compiles it.
func compileFile(filename string, t *vfsTable) (*model, error) {
	raw, err := readResource(filename, "", t)
	if err != nil {
		return nil, err
	}
	var doc xmlDoc
	if err := xml.NewDecoder(bytes.NewReader(raw)).Decode(&doc); err != nil {
		return nil, loadError("XML Error: " + err.Error())
	}
	c := &compiler{
		m:     &model{Name: doc.Model, Timestep: 0.002, Gravity: [3]float64{0, 0, -9.81}},
		dir:   filepath.Dir(filename),
		vfs:   t,
		names: map[native.ObjType]map[string]bool{},
	}
	if err := c.compile(&doc); err != nil {
		return nil, err
	}
	return c.m, nil
}

type compiler struct {
	m     *model
	dir   string
	vfs   *vfsTable
	names map[native.ObjType]map[string]bool

	bodyNames     []string
	jointNames    []string
	geomNames     []string
	lightNames    []string
	meshNames     []string
	actuatorNames []string
	sensorNames   []string
}

func (c *compiler) compile(doc *xmlDoc) error {
	m := c.m
	if doc.Option.Timestep != "" {
		v, err := parseFloats(doc.Option.Timestep, 1, "timestep")
		if err != nil {
			return err
		}
		if v[0] <= 0 {
			return errorf("timestep must be positive")
		}
		m.Timestep = v[0]
	}
	if doc.Option.Gravity != "" {
		v, err := parseFloats(doc.Option.Gravity, 3, "gravity")
		if err != nil {
			return err
		}
		copy(m.Gravity[:], v)
	}

	for _, xm := range doc.Meshes {
		if err := c.mesh(xm); err != nil {
			return err
		}
	}

	// World body.
	if err := c.addBody(doc.Worldbody, "world", -1, 0); err != nil {
		return err
	}

	for _, a := range doc.Motors {
		j := indexOf(c.jointNames, a.Joint)
		if a.Joint == "" || j < 0 {
			return errorf("unknown joint '%s' in actuator", a.Joint)
		}
		gear := 1.0
		if a.Gear != "" {
			v, err := parseFloats(a.Gear, 1, "gear")
			if err != nil {
				return err
			}
			gear = v[0]
		}
		if err := c.claim(native.ObjActuator, a.Name); err != nil {
			return err
		}
		m.ActuatorJnt = append(m.ActuatorJnt, int32(j))
		m.ActuatorGear = append(m.ActuatorGear, gear)
		c.actuatorNames = append(c.actuatorNames, a.Name)
	}
	m.NU = len(m.ActuatorJnt)

	for _, s := range doc.JointPos {
		if err := c.sensor(s, sensorJointPos); err != nil {
			return err
		}
	}
	for _, s := range doc.JointVel {
		if err := c.sensor(s, sensorJointVel); err != nil {
			return err
		}
	}

	m.NBody = len(m.BodyParentID)
	m.NJnt = len(m.JntType)
	m.NGeom = len(m.GeomType)
	m.NLight = len(c.lightNames)
	m.NMesh = len(m.MeshVertNum)
	m.NMeshVert = len(m.MeshVert) / 3
	m.NMeshFace = len(m.MeshFace) / 3
	m.NSensor = len(m.SensorType)
	m.NSensorData = m.NSensor
	m.NQ = len(m.QPos0)

	c.buildNames()
	return nil
}

// claim registers a unique name for obj; empty names are allowed repeatedly.
func (c *compiler) claim(obj native.ObjType, name string) error {
	if name == "" {
		return nil
	}
	set := c.names[obj]
	if set == nil {
		set = map[string]bool{}
		c.names[obj] = set
	}
	if set[name] {
		return errorf("repeated name '%s' in %s", name, obj)
	}
	set[name] = true
	return nil
}

func (c *compiler) mesh(xm xmlMesh) error {
	m := c.m
	name := xm.Name
	if name == "" && xm.File != "" {
		base := filepath.Base(xm.File)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := c.claim(native.ObjMesh, name); err != nil {
		return err
	}

	var verts []float64
	var faces []int
	var err error
	switch {
	case xm.File != "":
		raw, rerr := readResource(xm.File, c.dir, c.vfs)
		if rerr != nil {
			return rerr
		}
		verts, faces, err = parseOBJ(raw)
	default:
		verts, err = parseFloats(xm.Vertex, -1, "vertex")
		if err == nil && xm.Face != "" {
			faces, err = parseInts(xm.Face, "face")
		}
	}
	if err != nil {
		return err
	}
	if len(verts) == 0 || len(verts)%3 != 0 {
		return errorf("mesh '%s': vertex data must be a non-empty multiple of 3", name)
	}
	if len(faces)%3 != 0 {
		return errorf("mesh '%s': face data must be a multiple of 3", name)
	}
	nv := len(verts) / 3
	for _, f := range faces {
		if f < 0 || f >= nv {
			return errorf("mesh '%s': face index %d out of range", name, f)
		}
	}

	m.MeshVertAddr = append(m.MeshVertAddr, int32(len(m.MeshVert)/3))
	m.MeshVertNum = append(m.MeshVertNum, int32(nv))
	m.MeshFaceAddr = append(m.MeshFaceAddr, int32(len(m.MeshFace)/3))
	m.MeshFaceNum = append(m.MeshFaceNum, int32(len(faces)/3))
	for _, v := range verts {
		m.MeshVert = append(m.MeshVert, float32(v))
	}
	for _, n := range vertexNormals(verts, faces) {
		m.MeshNormal = append(m.MeshNormal, float32(n))
	}
	for _, f := range faces {
		m.MeshFace = append(m.MeshFace, int32(f))
	}
	c.meshNames = append(c.meshNames, name)
	return nil
}

func (c *compiler) addBody(b xmlBody, name string, parent int, depth int) error {
	m := c.m
	id := len(m.BodyParentID)
	if depth > 0 {
		name = b.Name
	}
	if err := c.claim(native.ObjBody, name); err != nil {
		return err
	}
	pos, err := parseVec(b.Pos, 3, []float64{0, 0, 0}, "pos")
	if err != nil {
		return err
	}
	quat, err := parseVec(b.Quat, 4, []float64{1, 0, 0, 0}, "quat")
	if err != nil {
		return err
	}
	q := normalize4([4]float64{quat[0], quat[1], quat[2], quat[3]})

	m.BodyParentID = append(m.BodyParentID, int32(parent))
	m.BodyPos = append(m.BodyPos, pos...)
	m.BodyQuat = append(m.BodyQuat, q[:]...)
	c.bodyNames = append(c.bodyNames, name)

	joints := append([]xmlJoint(nil), b.Joints...)
	for _, fj := range b.FreeJoints {
		joints = append(joints, xmlJoint{Name: fj.Name, Type: "free"})
	}
	if depth == 0 && len(joints) > 0 {
		return errorf("joints are not allowed in world body")
	}
	m.BodyJntAddr = append(m.BodyJntAddr, int32(len(m.JntType)))
	m.BodyJntNum = append(m.BodyJntNum, int32(len(joints)))
	for _, j := range joints {
		if err := c.joint(j, id, depth, pos, q); err != nil {
			return err
		}
	}

	m.BodyGeomAddr = append(m.BodyGeomAddr, int32(len(m.GeomType)))
	m.BodyGeomNum = append(m.BodyGeomNum, int32(len(b.Geoms)))
	for _, g := range b.Geoms {
		if err := c.geom(g, id); err != nil {
			return err
		}
	}
	if len(b.Geoms) == 0 {
		m.BodyGeomAddr[id] = -1
	}

	for _, l := range b.Lights {
		if err := c.claim(native.ObjLight, l.Name); err != nil {
			return err
		}
		c.lightNames = append(c.lightNames, l.Name)
	}

	for _, child := range b.Bodies {
		if err := c.addBody(child, "", id, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) joint(j xmlJoint, body, depth int, pos []float64, quat [4]float64) error {
	m := c.m
	if err := c.claim(native.ObjJoint, j.Name); err != nil {
		return err
	}
	var typ int32
	switch j.Type {
	case "", "hinge":
		typ = jointHinge
	case "slide":
		typ = jointSlide
	case "free":
		typ = jointFree
		if depth != 1 {
			return errorf("free joint can only be used on top level")
		}
	default:
		return errorf("invalid joint type '%s'", j.Type)
	}
	axis, err := parseVec(j.Axis, 3, []float64{0, 0, 1}, "axis")
	if err != nil {
		return err
	}
	a := [3]float64{axis[0], axis[1], axis[2]}
	n := math.Sqrt(dot3(a, a))
	if n < 1e-10 {
		return errorf("joint axis cannot be zero")
	}

	m.JntType = append(m.JntType, typ)
	m.JntBodyID = append(m.JntBodyID, int32(body))
	m.JntQposAddr = append(m.JntQposAddr, int32(len(m.QPos0)))
	m.JntDofAddr = append(m.JntDofAddr, int32(m.NV))
	m.JntAxis = append(m.JntAxis, a[0]/n, a[1]/n, a[2]/n)
	if typ == jointFree {
		m.QPos0 = append(m.QPos0, pos...)
		m.QPos0 = append(m.QPos0, quat[:]...)
		m.NV += 6
	} else {
		m.QPos0 = append(m.QPos0, 0)
		m.NV++
	}
	c.jointNames = append(c.jointNames, j.Name)
	return nil
}

func (c *compiler) geom(g xmlGeom, body int) error {
	m := c.m
	if err := c.claim(native.ObjGeom, g.Name); err != nil {
		return err
	}
	typName := g.Type
	if typName == "" {
		typName = "sphere"
		if g.Mesh != "" {
			typName = "mesh"
		}
	}
	typ, ok := native.ParseGeomName(typName)
	if !ok {
		return errorf("invalid geom type '%s'", g.Type)
	}
	pos, err := parseVec(g.Pos, 3, []float64{0, 0, 0}, "pos")
	if err != nil {
		return err
	}
	quat, err := parseVec(g.Quat, 4, []float64{1, 0, 0, 0}, "quat")
	if err != nil {
		return err
	}
	q := normalize4([4]float64{quat[0], quat[1], quat[2], quat[3]})
	rgba, err := parseVec(g.RGBA, 4, []float64{0.5, 0.5, 0.5, 1}, "rgba")
	if err != nil {
		return err
	}
	group, err := parseInt(g.Group, 0, "group")
	if err != nil {
		return err
	}
	contype, err := parseInt(g.ConType, 1, "contype")
	if err != nil {
		return err
	}

	size := [3]float64{}
	dataID := int32(-1)
	if typ == native.GeomMesh {
		mesh := indexOf(c.meshNames, g.Mesh)
		if g.Mesh == "" || mesh < 0 {
			return errorf("mesh '%s' not found in geom", g.Mesh)
		}
		dataID = int32(mesh)
		size = c.meshExtent(mesh)
	} else {
		s, err := parseFloats(g.Size, -1, "size")
		if err != nil {
			return err
		}
		if len(s) == 0 && typ != native.GeomPlane {
			return errorf("size of geom '%s' is required", g.Name)
		}
		if len(s) > 3 {
			return errorf("size of geom '%s' has %d values, at most 3 allowed", g.Name, len(s))
		}
		copy(size[:], s)
		for _, v := range s {
			if v < 0 {
				return errorf("size of geom '%s' must be non-negative", g.Name)
			}
		}
	}

	m.GeomType = append(m.GeomType, int32(typ))
	m.GeomConType = append(m.GeomConType, int32(contype))
	m.GeomBodyID = append(m.GeomBodyID, int32(body))
	m.GeomDataID = append(m.GeomDataID, dataID)
	m.GeomGroup = append(m.GeomGroup, int32(group))
	m.GeomSize = append(m.GeomSize, size[:]...)
	m.GeomPos = append(m.GeomPos, pos...)
	m.GeomQuat = append(m.GeomQuat, q[:]...)
	for _, v := range rgba {
		m.GeomRGBA = append(m.GeomRGBA, float32(v))
	}
	c.geomNames = append(c.geomNames, g.Name)
	return nil
}

// meshExtent returns half the axis-aligned bounding box of mesh i.
func (c *compiler) meshExtent(i int) [3]float64 {
	m := c.m
	addr, n := int(m.MeshVertAddr[i]), int(m.MeshVertNum[i])
	lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for v := addr; v < addr+n; v++ {
		for k := 0; k < 3; k++ {
			x := float64(m.MeshVert[v*3+k])
			lo[k] = math.Min(lo[k], x)
			hi[k] = math.Max(hi[k], x)
		}
	}
	return [3]float64{(hi[0] - lo[0]) / 2, (hi[1] - lo[1]) / 2, (hi[2] - lo[2]) / 2}
}

func (c *compiler) sensor(s xmlSensor, typ int32) error {
	m := c.m
	j := indexOf(c.jointNames, s.Joint)
	if s.Joint == "" || j < 0 {
		return errorf("unknown joint '%s' in sensor", s.Joint)
	}
	if m.JntType[j] == jointFree {
		return errorf("joint sensor requires a hinge or slide joint")
	}
	if err := c.claim(native.ObjSensor, s.Name); err != nil {
		return err
	}
	m.SensorAddr = append(m.SensorAddr, int32(len(m.SensorType)))
	m.SensorType = append(m.SensorType, typ)
	m.SensorObj = append(m.SensorObj, int32(j))
	c.sensorNames = append(c.sensorNames, s.Name)
	return nil
}

// buildNames lays out the names buffer: model name first, then each object
// class in mjtObj order. Unnamed objects point at an empty string.
func (c *compiler) buildNames() {
	m := c.m
	var buf []byte
	add := func(name string) int32 {
		addr := int32(len(buf))
		buf = append(buf, name...)
		buf = append(buf, 0)
		return addr
	}
	addAll := func(names []string) []int32 {
		out := make([]int32, len(names))
		for i, n := range names {
			out[i] = add(n)
		}
		return out
	}
	add(m.Name)
	m.NameBodyAddr = addAll(c.bodyNames)
	m.NameJntAddr = addAll(c.jointNames)
	m.NameGeomAddr = addAll(c.geomNames)
	m.NameLightAddr = addAll(c.lightNames)
	m.NameMeshAddr = addAll(c.meshNames)
	m.NameActuatorAddr = addAll(c.actuatorNames)
	m.NameSensorAddr = addAll(c.sensorNames)
	m.Names = buf
	m.NNames = len(buf)
}

// parseOBJ reads "v x y z" and "f a b c" lines with 1-based indices.
func parseOBJ(raw []byte) ([]float64, []int, error) {
	var verts []float64
	var faces []int
	sc := bufio.NewScanner(bytes.NewReader(raw))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, nil, errorf("obj line %d: vertex needs 3 coordinates", line)
			}
			for _, f := range fields[1:4] {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, nil, errorf("obj line %d: %v", line, err)
				}
				verts = append(verts, v)
			}
		case "f":
			if len(fields) != 4 {
				return nil, nil, errorf("obj line %d: only triangles are supported", line)
			}
			for _, f := range fields[1:] {
				// "a/b/c" keeps only the position index.
				idx, err := strconv.Atoi(strings.SplitN(f, "/", 2)[0])
				if err != nil {
					return nil, nil, errorf("obj line %d: %v", line, err)
				}
				faces = append(faces, idx-1)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, errorf("obj: %v", err)
	}
	return verts, faces, nil
}

// vertexNormals averages adjacent face normals per vertex.
func vertexNormals(verts []float64, faces []int) []float64 {
	normals := make([]float64, len(verts))
	vec := func(i int) [3]float64 { return [3]float64{verts[i*3], verts[i*3+1], verts[i*3+2]} }
	for f := 0; f+2 < len(faces); f += 3 {
		a, b, c := vec(faces[f]), vec(faces[f+1]), vec(faces[f+2])
		n := cross3(sub3(b, a), sub3(c, a))
		for _, v := range faces[f : f+3] {
			normals[v*3] += n[0]
			normals[v*3+1] += n[1]
			normals[v*3+2] += n[2]
		}
	}
	for i := 0; i < len(normals); i += 3 {
		n := [3]float64{normals[i], normals[i+1], normals[i+2]}
		l := math.Sqrt(dot3(n, n))
		if l < 1e-12 {
			normals[i], normals[i+1], normals[i+2] = 0, 0, 1
			continue
		}
		normals[i], normals[i+1], normals[i+2] = n[0]/l, n[1]/l, n[2]/l
	}
	return normals
}

// parseFloats parses a whitespace separated list. want < 0 accepts any
// length.
func parseFloats(s string, want int, attr string) ([]float64, error) {
	fields := strings.Fields(s)
	if want >= 0 && len(fields) != want {
		return nil, errorf("attribute '%s' expects %d values, got %d", attr, want, len(fields))
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errorf("problem reading attribute '%s': bad number '%s'", attr, f)
		}
		out[i] = v
	}
	return out, nil
}

func parseVec(s string, n int, def []float64, attr string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return append([]float64(nil), def...), nil
	}
	return parseFloats(s, n, attr)
}

func parseInts(s, attr string) ([]int, error) {
	fields := strings.Fields(s)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, errorf("problem reading attribute '%s': bad integer '%s'", attr, f)
		}
		out[i] = v
	}
	return out, nil
}

func parseInt(s string, def int, attr string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errorf("problem reading attribute '%s': bad integer '%s'", attr, s)
	}
	return v, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

package mesh

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Topology is the primitive assembly mode of a vertex stream.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyPointList
)

func (t Topology) String() string {
	switch t {
	case TopologyTriangleList:
		return "triangle-list"
	case TopologyTriangleStrip:
		return "triangle-strip"
	case TopologyLineList:
		return "line-list"
	case TopologyPointList:
		return "point-list"
	default:
		return fmt.Sprintf("Topology(%d)", int(t))
	}
}

// FloatsPerVertex is the interleaved vertex stride in floats: position xyz then normal xyz.
const FloatsPerVertex = 6

// VertexStride is the interleaved vertex stride in bytes.
const VertexStride = FloatsPerVertex * 4

// mesh is the implementation of the MeshSource interface.
type mesh struct {
	name      string
	positions []mgl32.Vec3
	normals   []mgl32.Vec3
	topology  Topology
}

// MeshSource supplies the vertex data of a non-indexed mesh: one position and one normal per
// vertex, in the same order.
type MeshSource interface {
	// Name returns a short description used in log output.
	Name() string

	// Positions returns the vertex positions.
	//
	// Returns:
	//   - []mgl32.Vec3: one position per vertex
	Positions() []mgl32.Vec3

	// Normals returns the vertex normals, matched index-for-index with Positions.
	//
	// Returns:
	//   - []mgl32.Vec3: one unit normal per vertex
	Normals() []mgl32.Vec3

	// VertexCount returns the number of vertices.
	VertexCount() int

	// Topology returns the primitive assembly mode.
	Topology() Topology
}

var _ MeshSource = &mesh{}

// NewMesh creates a MeshSource from explicit vertex data. The slices are not copied.
//
// Parameters:
//   - name: the mesh name
//   - positions: the vertex positions
//   - normals: the vertex normals
//   - topology: the primitive assembly mode
//
// Returns:
//   - MeshSource: the mesh
//   - error: a common.ErrConfiguration error if the data is inconsistent with the topology
func NewMesh(name string, positions, normals []mgl32.Vec3, topology Topology) (MeshSource, error) {
	m := &mesh{name: name, positions: positions, normals: normals, topology: topology}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) Positions() []mgl32.Vec3 {
	return m.positions
}

func (m *mesh) Normals() []mgl32.Vec3 {
	return m.normals
}

func (m *mesh) VertexCount() int {
	return len(m.positions)
}

func (m *mesh) Topology() Topology {
	return m.topology
}

// Validate checks that a mesh has matched positions and normals and a vertex count its
// topology can assemble.
//
// Parameters:
//   - src: the mesh to check
//
// Returns:
//   - error: a common.ErrConfiguration error describing the problem
func Validate(src MeshSource) error {
	if src == nil {
		return fmt.Errorf("%w: mesh is nil", common.ErrConfiguration)
	}
	n := src.VertexCount()
	if n == 0 {
		return fmt.Errorf("%w: mesh %q has no vertices", common.ErrConfiguration, src.Name())
	}
	if len(src.Positions()) != n || len(src.Normals()) != n {
		return fmt.Errorf("%w: mesh %q has %d positions and %d normals for %d vertices",
			common.ErrConfiguration, src.Name(), len(src.Positions()), len(src.Normals()), n)
	}
	switch src.Topology() {
	case TopologyTriangleList:
		if n%3 != 0 {
			return fmt.Errorf("%w: triangle list mesh %q has %d vertices", common.ErrConfiguration, src.Name(), n)
		}
	case TopologyTriangleStrip:
		if n < 3 {
			return fmt.Errorf("%w: triangle strip mesh %q has %d vertices", common.ErrConfiguration, src.Name(), n)
		}
	case TopologyLineList:
		if n%2 != 0 {
			return fmt.Errorf("%w: line list mesh %q has %d vertices", common.ErrConfiguration, src.Name(), n)
		}
	case TopologyPointList:
	default:
		return fmt.Errorf("%w: mesh %q has unknown topology %v", common.ErrConfiguration, src.Name(), src.Topology())
	}
	return nil
}

// Interleave packs a mesh into the vertex buffer format [px, py, pz, nx, ny, nz] per vertex.
//
// Parameters:
//   - src: the mesh
//
// Returns:
//   - []float32: the interleaved vertex data, VertexCount * FloatsPerVertex long
//   - error: a common.ErrConfiguration error if the mesh is invalid
func Interleave(src MeshSource) ([]float32, error) {
	if err := Validate(src); err != nil {
		return nil, err
	}

	positions, normals := src.Positions(), src.Normals()
	out := make([]float32, 0, len(positions)*FloatsPerVertex)
	for i, p := range positions {
		n := normals[i]
		out = append(out, p[0], p[1], p[2], n[0], n[1], n[2])
	}
	return out, nil
}

// flatTriangles builds a flat-shaded triangle list from indexed faces. Every face gets its own
// three vertices carrying the face normal, and faces wound clockwise (seen from outside a mesh
// centred on the origin) are flipped so the front face is counter-clockwise.
func flatTriangles(name string, verts []mgl32.Vec3, faces [][3]int) (MeshSource, error) {
	positions := make([]mgl32.Vec3, 0, len(faces)*3)
	normals := make([]mgl32.Vec3, 0, len(faces)*3)

	for _, f := range faces {
		a, b, c := verts[f[0]], verts[f[1]], verts[f[2]]
		n := common.FaceNormal(a, b, c)
		centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)
		if n.Dot(centroid) < 0 {
			b, c = c, b
			n = n.Mul(-1)
		}
		positions = append(positions, a, b, c)
		normals = append(normals, n, n, n)
	}
	return NewMesh(name, positions, normals, TopologyTriangleList)
}

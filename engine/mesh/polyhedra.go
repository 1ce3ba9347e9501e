package mesh

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxIcosphereSubdivisions bounds the icosphere detail level. Level 6 is 81920 triangles.
const MaxIcosphereSubdivisions = 6

// NewTetrahedron creates a flat-shaded regular tetrahedron centred on the origin.
//
// Parameters:
//   - size: the circumradius
//
// Returns:
//   - MeshSource: the tetrahedron, 4 triangles
//   - error: a common.ErrConfiguration error if size is not positive
func NewTetrahedron(size float32) (MeshSource, error) {
	if !(size > 0) {
		return nil, fmt.Errorf("%w: tetrahedron size must be positive, got %v", common.ErrConfiguration, size)
	}

	s := size / float32(math.Sqrt(3))
	verts := []mgl32.Vec3{
		{s, s, s},
		{s, -s, -s},
		{-s, s, -s},
		{-s, -s, s},
	}
	faces := [][3]int{
		{0, 1, 2},
		{0, 3, 1},
		{0, 2, 3},
		{1, 3, 2},
	}
	return flatTriangles("tetrahedron", verts, faces)
}

// NewIcosphere creates a flat-shaded sphere approximation by repeatedly splitting each face of
// an icosahedron into four and projecting the new vertices onto the sphere.
//
// Parameters:
//   - subdivisions: the number of split passes, 0 yields the icosahedron
//   - radius: the sphere radius
//
// Returns:
//   - MeshSource: the icosphere, 20 * 4^subdivisions triangles
//   - error: a common.ErrConfiguration error for a non-positive radius or too many subdivisions
func NewIcosphere(subdivisions int, radius float32) (MeshSource, error) {
	if subdivisions < 0 || subdivisions > MaxIcosphereSubdivisions {
		return nil, fmt.Errorf("%w: icosphere subdivisions must be in [0, %d], got %d", common.ErrConfiguration, MaxIcosphereSubdivisions, subdivisions)
	}
	if !(radius > 0) {
		return nil, fmt.Errorf("%w: icosphere radius must be positive, got %v", common.ErrConfiguration, radius)
	}

	t := float32((1.0 + math.Sqrt(5.0)) / 2.0)
	verts := []mgl32.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i := range verts {
		verts[i] = verts[i].Normalize().Mul(radius)
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for range subdivisions {
		verts, faces = subdivide(verts, faces, radius)
	}
	return flatTriangles(fmt.Sprintf("icosphere-%d", subdivisions), verts, faces)
}

// subdivide splits every face into four, sharing edge midpoints between neighbouring faces.
func subdivide(verts []mgl32.Vec3, faces [][3]int, radius float32) ([]mgl32.Vec3, [][3]int) {
	midpoints := make(map[[2]int]int, len(faces)*3/2)
	midpoint := func(a, b int) int {
		key := [2]int{min(a, b), max(a, b)}
		if i, ok := midpoints[key]; ok {
			return i
		}
		m := verts[a].Add(verts[b]).Normalize().Mul(radius)
		verts = append(verts, m)
		midpoints[key] = len(verts) - 1
		return len(verts) - 1
	}

	out := make([][3]int, 0, len(faces)*4)
	for _, f := range faces {
		ab := midpoint(f[0], f[1])
		bc := midpoint(f[1], f[2])
		ca := midpoint(f[2], f[0])
		out = append(out,
			[3]int{f[0], ab, ca},
			[3]int{f[1], bc, ab},
			[3]int{f[2], ca, bc},
			[3]int{ab, bc, ca},
		)
	}
	return verts, out
}

package geometry

import (
	"errors"
	"fmt"

	"github.com/df07/go-room-acoustics/pkg/core"
)

// ErrInvalidGeometry is returned when a mesh cannot be constructed: no
// triangles, NaN vertices, or only degenerate triangles.
var ErrInvalidGeometry = errors.New("geometry: invalid mesh geometry")

// Minimum triangle area; faces below this are treated as degenerate and
// skipped at build time.
const minTriangleArea = 1e-12

// Mesh represents a triangle enclosure with an internal BVH for fast ray
// intersection. Immutable after construction; shared read-only during
// simulation.
type Mesh struct {
	triangles []*Triangle
	bvh       *BVH
	bbox      core.AABB
}

// MeshData is raw caller-supplied geometry. Positions are packed xyz
// triples. If Indices is empty, every 3 consecutive positions form a
// triangle. Vertex normals, if supplied by the caller, are ignored for
// intersection: face normals are recomputed from the winding.
type MeshData struct {
	Positions []float64
	Indices   []int
}

// NewMesh builds a mesh and its BVH from raw geometry data
func NewMesh(data MeshData) (*Mesh, error) {
	if len(data.Positions)%3 != 0 {
		return nil, fmt.Errorf("%w: positions length %d is not a multiple of 3", ErrInvalidGeometry, len(data.Positions))
	}

	numVertices := len(data.Positions) / 3
	vertices := make([]core.Vec3, numVertices)
	for i := 0; i < numVertices; i++ {
		v := core.NewVec3(data.Positions[i*3], data.Positions[i*3+1], data.Positions[i*3+2])
		if !v.IsFinite() {
			return nil, fmt.Errorf("%w: vertex %d is not finite", ErrInvalidGeometry, i)
		}
		vertices[i] = v
	}

	indices := data.Indices
	if len(indices) == 0 {
		// Non-indexed geometry: every 3 positions form a triangle
		indices = make([]int, numVertices)
		for i := range indices {
			indices[i] = i
		}
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: index count %d is not a multiple of 3", ErrInvalidGeometry, len(indices))
	}

	var triangles []*Triangle
	for i := 0; i < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if i0 < 0 || i1 < 0 || i2 < 0 || i0 >= numVertices || i1 >= numVertices || i2 >= numVertices {
			return nil, fmt.Errorf("%w: face index out of bounds at face %d", ErrInvalidGeometry, i/3)
		}

		triangle := NewTriangle(vertices[i0], vertices[i1], vertices[i2], len(triangles))
		if triangle.Area() < minTriangleArea {
			// Degenerate face, skip
			continue
		}
		triangles = append(triangles, triangle)
	}

	if len(triangles) == 0 {
		return nil, fmt.Errorf("%w: no non-degenerate triangles", ErrInvalidGeometry)
	}

	bbox := triangles[0].BoundingBox()
	for _, triangle := range triangles[1:] {
		bbox = bbox.Union(triangle.BoundingBox())
	}

	return &Mesh{
		triangles: triangles,
		bvh:       NewBVH(triangles),
		bbox:      bbox,
	}, nil
}

// ClosestHit returns the nearest mesh intersection along the ray beyond
// the self-intersection epsilon, or false if the ray escapes.
func (m *Mesh) ClosestHit(ray core.Ray, tMin float64) (*HitRecord, bool) {
	return m.bvh.Hit(ray, tMin, maxRayDistance)
}

// Effectively unbounded traversal distance for closed rooms
const maxRayDistance = 1e12

// TriangleCount returns the number of non-degenerate triangles in the mesh
func (m *Mesh) TriangleCount() int {
	return len(m.triangles)
}

// BoundingBox returns the bounds enclosing all mesh vertices
func (m *Mesh) BoundingBox() core.AABB {
	return m.bbox
}

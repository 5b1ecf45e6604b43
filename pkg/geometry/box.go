package geometry

import (
	"github.com/df07/go-room-acoustics/pkg/core"
)

// BoxMeshData returns the raw geometry of an axis-aligned box room
// centered at center with the given edge lengths. Faces wind so that the
// normals point into the room, which is the enclosure convention used by
// the CLI default room and the test suite.
func BoxMeshData(center core.Vec3, size core.Vec3) MeshData {
	hx, hy, hz := size.X/2, size.Y/2, size.Z/2

	corners := []core.Vec3{
		center.Add(core.NewVec3(-hx, -hy, -hz)), // 0
		center.Add(core.NewVec3(hx, -hy, -hz)),  // 1
		center.Add(core.NewVec3(hx, hy, -hz)),   // 2
		center.Add(core.NewVec3(-hx, hy, -hz)),  // 3
		center.Add(core.NewVec3(-hx, -hy, hz)),  // 4
		center.Add(core.NewVec3(hx, -hy, hz)),   // 5
		center.Add(core.NewVec3(hx, hy, hz)),    // 6
		center.Add(core.NewVec3(-hx, hy, hz)),   // 7
	}

	// Two triangles per face, wound inward
	indices := []int{
		0, 1, 2, 0, 2, 3, // z- face
		4, 6, 5, 4, 7, 6, // z+ face
		0, 5, 1, 0, 4, 5, // y- face
		3, 2, 6, 3, 6, 7, // y+ face
		0, 7, 4, 0, 3, 7, // x- face
		1, 6, 2, 1, 5, 6, // x+ face
	}

	positions := make([]float64, 0, len(corners)*3)
	for _, c := range corners {
		positions = append(positions, c.X, c.Y, c.Z)
	}

	return MeshData{Positions: positions, Indices: indices}
}

// NewBoxMesh builds the mesh of an axis-aligned box room
func NewBoxMesh(center core.Vec3, size core.Vec3) (*Mesh, error) {
	return NewMesh(BoxMeshData(center, size))
}

package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-room-acoustics/pkg/core"
)

func TestNewMesh_InvalidGeometry(t *testing.T) {
	tests := []struct {
		name string
		data MeshData
	}{
		{
			name: "empty",
			data: MeshData{},
		},
		{
			name: "positions not multiple of 3",
			data: MeshData{Positions: []float64{0, 0}},
		},
		{
			name: "NaN vertex",
			data: MeshData{Positions: []float64{0, 0, 0, 1, 0, 0, 0, math.NaN(), 0}},
		},
		{
			name: "index out of bounds",
			data: MeshData{
				Positions: []float64{0, 0, 0, 1, 0, 0, 0, 1, 0},
				Indices:   []int{0, 1, 5},
			},
		},
		{
			name: "only degenerate triangles",
			data: MeshData{Positions: []float64{0, 0, 0, 1, 1, 1, 2, 2, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMesh(tt.data)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("Expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}

func TestNewMesh_SkipsDegenerateTriangles(t *testing.T) {
	// One valid triangle followed by a degenerate one
	data := MeshData{
		Positions: []float64{
			0, 0, 0, 1, 0, 0, 0, 1, 0,
			0, 0, 0, 1, 1, 1, 2, 2, 2,
		},
	}
	mesh, err := NewMesh(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("Expected 1 triangle after skipping degenerate, got %d", mesh.TriangleCount())
	}
}

func TestNewMesh_NonIndexed(t *testing.T) {
	data := MeshData{
		Positions: []float64{0, 0, 0, 1, 0, 0, 0, 1, 0},
	}
	mesh, err := NewMesh(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("Expected 1 triangle, got %d", mesh.TriangleCount())
	}
}

func TestMesh_ClosestHit(t *testing.T) {
	mesh, err := NewBoxMesh(core.NewVec3(0, 0, 0), core.NewVec3(10, 10, 10))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// From the center, every axis direction hits a wall at distance 5
	directions := []core.Vec3{
		core.NewVec3(1, 0, 0), core.NewVec3(-1, 0, 0),
		core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0),
		core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -1),
	}
	for _, dir := range directions {
		hit, isHit := mesh.ClosestHit(core.NewRay(core.NewVec3(0, 0, 0), dir), 1e-3)
		if !isHit {
			t.Fatalf("Direction %v: expected wall hit", dir)
		}
		if math.Abs(hit.T-5.0) > 1e-9 {
			t.Errorf("Direction %v: expected t=5, got %f", dir, hit.T)
		}
	}
}

func TestBoxMesh_NormalsPointInward(t *testing.T) {
	mesh, err := NewBoxMesh(core.NewVec3(0, 0, 0), core.NewVec3(4, 4, 4))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, triangle := range mesh.triangles {
		centroid := triangle.V0.Add(triangle.V1).Add(triangle.V2).Multiply(1.0 / 3.0)
		toCenter := centroid.Negate().Normalize()
		if triangle.Normal().Dot(toCenter) <= 0 {
			t.Errorf("Triangle %d normal %v does not face the room center", triangle.id, triangle.Normal())
		}
	}
}

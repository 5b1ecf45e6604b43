package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-room-acoustics/pkg/core"
)

func TestTriangle_Hit(t *testing.T) {
	// Unit triangle in the xy plane
	triangle := NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
		0,
	)

	tests := []struct {
		name      string
		origin    core.Vec3
		direction core.Vec3
		wantHit   bool
		wantT     float64
	}{
		{
			name:      "center hit",
			origin:    core.NewVec3(0.25, 0.25, 1),
			direction: core.NewVec3(0, 0, -1),
			wantHit:   true,
			wantT:     1.0,
		},
		{
			name:      "hit from behind",
			origin:    core.NewVec3(0.25, 0.25, -2),
			direction: core.NewVec3(0, 0, 1),
			wantHit:   true,
			wantT:     2.0,
		},
		{
			name:      "miss outside edge",
			origin:    core.NewVec3(0.9, 0.9, 1),
			direction: core.NewVec3(0, 0, -1),
			wantHit:   false,
		},
		{
			name:      "parallel ray",
			origin:    core.NewVec3(0.25, 0.25, 1),
			direction: core.NewVec3(1, 0, 0),
			wantHit:   false,
		},
		{
			name:      "hit behind tMin",
			origin:    core.NewVec3(0.25, 0.25, 0.0005),
			direction: core.NewVec3(0, 0, -1),
			wantHit:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.origin, tt.direction)
			var record HitRecord
			isHit := triangle.Hit(ray, 1e-3, 1e12, &record)

			if isHit != tt.wantHit {
				t.Fatalf("Expected hit=%t, got %t", tt.wantHit, isHit)
			}
			if isHit && math.Abs(record.T-tt.wantT) > 1e-9 {
				t.Errorf("Expected t=%f, got t=%f", tt.wantT, record.T)
			}
		})
	}
}

func TestTriangle_Normal(t *testing.T) {
	triangle := NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
		0,
	)

	normal := triangle.Normal()
	expected := core.NewVec3(0, 0, 1)
	if math.Abs(normal.X-expected.X) > 1e-12 ||
		math.Abs(normal.Y-expected.Y) > 1e-12 ||
		math.Abs(normal.Z-expected.Z) > 1e-12 {
		t.Errorf("Expected normal %v, got %v", expected, normal)
	}
}

func TestTriangle_Area(t *testing.T) {
	triangle := NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(2, 0, 0),
		core.NewVec3(0, 2, 0),
		0,
	)
	if math.Abs(triangle.Area()-2.0) > 1e-12 {
		t.Errorf("Expected area 2.0, got %f", triangle.Area())
	}

	degenerate := NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 1, 1),
		core.NewVec3(2, 2, 2),
		0,
	)
	if degenerate.Area() > 1e-12 {
		t.Errorf("Expected zero area for collinear vertices, got %f", degenerate.Area())
	}
}

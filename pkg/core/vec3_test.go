package core

import (
	"math"
	"testing"
)

func TestVec3_BasicOperations(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	if got := a.Add(b); got != NewVec3(5, 7, 9) {
		t.Errorf("Add: expected (5,7,9), got %v", got)
	}
	if got := b.Subtract(a); got != NewVec3(3, 3, 3) {
		t.Errorf("Subtract: expected (3,3,3), got %v", got)
	}
	if got := a.Multiply(2); got != NewVec3(2, 4, 6) {
		t.Errorf("Multiply: expected (2,4,6), got %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot: expected 32, got %f", got)
	}
}

func TestVec3_Cross(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)

	if got := x.Cross(y); got != NewVec3(0, 0, 1) {
		t.Errorf("Cross: expected (0,0,1), got %v", got)
	}
}

func TestVec3_Normalize(t *testing.T) {
	v := NewVec3(3, 4, 0).Normalize()
	if math.Abs(v.Length()-1.0) > 1e-12 {
		t.Errorf("Normalize: expected unit length, got %f", v.Length())
	}

	zero := NewVec3(0, 0, 0).Normalize()
	if zero != (Vec3{}) {
		t.Errorf("Normalize of zero vector: expected zero, got %v", zero)
	}
}

func TestVec3_Reflect(t *testing.T) {
	tests := []struct {
		name     string
		incoming Vec3
		normal   Vec3
		expected Vec3
	}{
		{
			name:     "head-on reflection",
			incoming: NewVec3(0, -1, 0),
			normal:   NewVec3(0, 1, 0),
			expected: NewVec3(0, 1, 0),
		},
		{
			name:     "45 degree reflection",
			incoming: NewVec3(1, -1, 0).Normalize(),
			normal:   NewVec3(0, 1, 0),
			expected: NewVec3(1, 1, 0).Normalize(),
		},
		{
			name:     "grazing along surface",
			incoming: NewVec3(1, 0, 0),
			normal:   NewVec3(0, 1, 0),
			expected: NewVec3(1, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.incoming.Reflect(tt.normal)
			if math.Abs(got.X-tt.expected.X) > 1e-12 ||
				math.Abs(got.Y-tt.expected.Y) > 1e-12 ||
				math.Abs(got.Z-tt.expected.Z) > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestVec3_IsFinite(t *testing.T) {
	if !NewVec3(1, 2, 3).IsFinite() {
		t.Error("Expected finite vector to report finite")
	}
	if NewVec3(math.NaN(), 0, 0).IsFinite() {
		t.Error("Expected NaN component to report non-finite")
	}
	if NewVec3(0, math.Inf(1), 0).IsFinite() {
		t.Error("Expected Inf component to report non-finite")
	}
}

func TestRay_At(t *testing.T) {
	ray := NewRay(NewVec3(1, 0, 0), NewVec3(0, 1, 0))
	if got := ray.At(2.5); got != NewVec3(1, 2.5, 0) {
		t.Errorf("At: expected (1,2.5,0), got %v", got)
	}
}

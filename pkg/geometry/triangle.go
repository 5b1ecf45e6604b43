package geometry

import (
	"github.com/df07/go-room-acoustics/pkg/core"
)

// HitRecord describes a ray/surface intersection
type HitRecord struct {
	T          float64   // Distance along the ray
	Point      core.Vec3 // World-space intersection point
	Normal     core.Vec3 // Unit face normal of the surface hit
	TriangleID int       // Index of the triangle within its mesh
}

// Triangle represents a single triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 core.Vec3 // The three vertices
	normal     core.Vec3 // Cached unit face normal
	bbox       core.AABB // Cached bounding box
	id         int       // Index within the owning mesh
}

// NewTriangle creates a new triangle from three vertices.
// The face normal is recomputed from the vertex winding.
func NewTriangle(v0, v1, v2 core.Vec3, id int) *Triangle {
	t := &Triangle{V0: v0, V1: v1, V2: v2, id: id}
	t.computeNormal()
	t.computeBoundingBox()
	return t
}

// computeNormal calculates and caches the triangle's normal vector
func (t *Triangle) computeNormal() {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)
	t.normal = edge1.Cross(edge2).Normalize()
}

// computeBoundingBox calculates and caches the triangle's bounding box
func (t *Triangle) computeBoundingBox() {
	t.bbox = core.NewAABBFromPoints(t.V0, t.V1, t.V2)
}

// Area returns the triangle's surface area
func (t *Triangle) Area() float64 {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)
	return edge1.Cross(edge2).Length() * 0.5
}

// Hit tests if a ray intersects with the triangle using the Möller-Trumbore
// algorithm. On a hit within [tMin, tMax] the hit record is filled in.
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64, hitRecord *HitRecord) bool {
	const epsilon = 1e-8

	// Calculate two edge vectors
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	// Calculate determinant
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// If determinant is near zero, ray lies in plane of triangle
	if a > -epsilon && a < epsilon {
		return false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)

	// Check if intersection is outside triangle
	if u < 0.0 || u > 1.0 {
		return false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)

	if v < 0.0 || u+v > 1.0 {
		return false
	}

	// Calculate t parameter
	tParam := f * edge2.Dot(q)

	if tParam < tMin || tParam > tMax {
		return false
	}

	hitRecord.T = tParam
	hitRecord.Point = ray.At(tParam)
	hitRecord.Normal = t.normal
	hitRecord.TriangleID = t.id

	return true
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() core.AABB {
	return t.bbox
}

// Normal returns the triangle's cached unit face normal
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

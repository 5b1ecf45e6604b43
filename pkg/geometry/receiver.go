package geometry

import (
	"math"

	"github.com/df07/go-room-acoustics/pkg/core"
)

// ReceiverSphere is the spherical listening volume that terminates rays
type ReceiverSphere struct {
	Center core.Vec3
	Radius float64
}

// NewReceiverSphere creates a receiver sphere. Radius must be positive.
func NewReceiverSphere(center core.Vec3, radius float64) ReceiverSphere {
	return ReceiverSphere{Center: center, Radius: radius}
}

// Hit returns the nearest intersection distance of the ray with the sphere
// beyond tMin. A ray starting inside the sphere hits on the way out.
func (s ReceiverSphere) Hit(ray core.Ray, tMin float64) (float64, bool) {
	// Vector from ray origin to sphere center
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + bt + c = 0
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, false
	}

	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (-halfB - sqrtD) / a
	if root <= tMin {
		root = (-halfB + sqrtD) / a
		if root <= tMin {
			return 0, false
		}
	}

	return root, true
}

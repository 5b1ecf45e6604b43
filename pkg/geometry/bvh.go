package geometry

import (
	"sort"

	"github.com/df07/go-room-acoustics/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Triangles   []*Triangle // Multiple triangles for leaf nodes (nil for internal nodes)
}

// BVH represents a Bounding Volume Hierarchy for fast ray-triangle intersection.
// Immutable after construction; safe for concurrent traversal.
type BVH struct {
	Root *BVHNode
}

// Leaf threshold: if we have this many or fewer triangles, store them in a leaf node
const leafThreshold = 8

// NewBVH constructs a BVH from a slice of triangles
func NewBVH(triangles []*Triangle) *BVH {
	if len(triangles) == 0 {
		return &BVH{Root: nil}
	}

	// Make a copy to avoid reordering the caller's slice during splits
	trianglesCopy := make([]*Triangle, len(triangles))
	copy(trianglesCopy, triangles)

	return &BVH{Root: buildBVH(trianglesCopy, 0)}
}

// buildBVH recursively builds the BVH using median split with leaf thresholding
func buildBVH(triangles []*Triangle, depth int) *BVHNode {
	// Calculate bounding box for all triangles
	var boundingBox core.AABB
	if len(triangles) > 0 {
		boundingBox = triangles[0].BoundingBox()
		for i := 1; i < len(triangles); i++ {
			boundingBox = boundingBox.Union(triangles[i].BoundingBox())
		}
	}

	// Base case: few triangles - create leaf node with linear search
	if len(triangles) <= leafThreshold {
		return &BVHNode{
			BoundingBox: boundingBox,
			Triangles:   triangles,
		}
	}

	// For larger groups, use median split along the longest axis.
	// Much faster to build than SAH and close enough for closed rooms.
	axis := boundingBox.LongestAxis()
	sortTrianglesByAxis(triangles, axis)

	mid := len(triangles) / 2
	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(triangles[:mid], depth+1),
		Right:       buildBVH(triangles[mid:], depth+1),
	}
}

// sortTrianglesByAxis sorts triangles by bounding box center along the specified axis
func sortTrianglesByAxis(triangles []*Triangle, axis int) {
	sort.Slice(triangles, func(i, j int) bool {
		centerI := triangles[i].BoundingBox().Center()
		centerJ := triangles[j].BoundingBox().Center()

		switch axis {
		case 0:
			return centerI.X < centerJ.X
		case 1:
			return centerI.Y < centerJ.Y
		case 2:
			return centerI.Z < centerJ.Z
		default:
			return false
		}
	})
}

// Hit tests if a ray intersects any triangle in the BVH, returning the
// closest hit within [tMin, tMax]
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	if bvh.Root == nil {
		return nil, false
	}
	var record HitRecord
	if bvh.hitNode(bvh.Root, ray, tMin, tMax, &record) {
		return &record, true
	}
	return nil, false
}

// hitNode recursively tests ray intersection with BVH nodes, tightening the
// search interval as closer hits are found
func (bvh *BVH) hitNode(node *BVHNode, ray core.Ray, tMin, tMax float64, record *HitRecord) bool {
	// First check if ray hits the bounding box
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return false
	}

	// If this is a leaf node, test against all triangles using linear search
	if node.Triangles != nil {
		hitAnything := false
		closestSoFar := tMax

		var candidate HitRecord
		for _, triangle := range node.Triangles {
			if triangle.Hit(ray, tMin, closestSoFar, &candidate) {
				hitAnything = true
				closestSoFar = candidate.T
				*record = candidate
			}
		}

		return hitAnything
	}

	// Internal node - test the nearer child first (by box centers along
	// the ray), pruning the other against the closest hit
	hitAnything := false
	closestSoFar := tMax

	first, second := node.Left, node.Right
	if first != nil && second != nil &&
		second.BoundingBox.Center().Subtract(first.BoundingBox.Center()).Dot(ray.Direction) < 0 {
		first, second = second, first
	}

	if first != nil {
		if bvh.hitNode(first, ray, tMin, closestSoFar, record) {
			hitAnything = true
			closestSoFar = record.T
		}
	}

	if second != nil {
		if bvh.hitNode(second, ray, tMin, closestSoFar, record) {
			hitAnything = true
		}
	}

	return hitAnything
}

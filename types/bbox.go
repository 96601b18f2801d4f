package types

import "github.com/chewxy/math32"

// An axis aligned bounding box stored as a [min, max] pair.
type AABB [2]Vec3

// Return the canonical empty box. Extending it with any point or box yields
// that point or box.
func EmptyAABB() AABB {
	return AABB{
		Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// Build the bounding box of a triangle.
func TriangleAABB(tri [3]Vec3) AABB {
	return AABB{
		MinVec3(MinVec3(tri[0], tri[1]), tri[2]),
		MaxVec3(MaxVec3(tri[0], tri[1]), tri[2]),
	}
}

// Returns true if the box does not contain any point.
func (b AABB) IsEmpty() bool {
	return b[0][0] > b[1][0] || b[0][1] > b[1][1] || b[0][2] > b[1][2]
}

// Grow the box so it contains v.
func (b AABB) ExtendPoint(v Vec3) AABB {
	return AABB{MinVec3(b[0], v), MaxVec3(b[1], v)}
}

// Grow the box so it contains other.
func (b AABB) Extend(other AABB) AABB {
	return AABB{MinVec3(b[0], other[0]), MaxVec3(b[1], other[1])}
}

// Intersect two boxes. The result may be empty.
func (b AABB) Intersect(other AABB) AABB {
	return AABB{MaxVec3(b[0], other[0]), MinVec3(b[1], other[1])}
}

// Returns true if other lies completely inside b.
func (b AABB) Contains(other AABB) bool {
	for axis := 0; axis < 3; axis++ {
		if other[0][axis] < b[0][axis] || other[1][axis] > b[1][axis] {
			return false
		}
	}
	return true
}

// Box size along each axis. Empty boxes report a zero size.
func (b AABB) Size() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b[1].Sub(b[0])
}

// Return the box center scaled by 2 (min + max). Comparing doubled centers
// avoids a multiplication per primitive while binning.
func (b AABB) Center2() Vec3 {
	return b[0].Add(b[1])
}

// Calculate half of the box surface area. Empty boxes have zero area.
func (b AABB) HalfArea() float32 {
	d := b.Size()
	return d[0]*d[1] + d[1]*d[2] + d[0]*d[2]
}

// Returns true if all box coordinates are finite numbers.
func (b AABB) IsFinite() bool {
	for _, v := range b {
		for _, c := range v {
			if math32.IsNaN(c) || math32.IsInf(c, 0) {
				return false
			}
		}
	}
	return true
}

package bvh

import "github.com/achilleasa/bvh4/types"

// The PrimitiveSource interface is implemented by meshes whose triangles
// can be partitioned by the BVH builder. Primitive ids are the indices
// [0, NumPrimitives()).
type PrimitiveSource interface {
	NumPrimitives() int

	// Get the vertices of a triangle. The builder derives primitive bounds
	// from them and uses them for clipping triangles during spatial splits.
	Triangle(id int) [3]types.Vec3
}

// A PrimitiveSource backed by a flat triangle list.
type TriangleSoup [][3]types.Vec3

func (s TriangleSoup) NumPrimitives() int {
	return len(s)
}

func (s TriangleSoup) Triangle(id int) [3]types.Vec3 {
	return s[id]
}

package bvh

import (
	"fmt"
	"time"

	"github.com/achilleasa/bvh4/types"
)

// Statistics describes the shape and the expected traversal cost of a tree.
type Statistics struct {
	PrimitiveType string

	NumPrimitives int

	// Number of primitive references stored in leafs; exceeds
	// NumPrimitives when spatial splits replicated primitives.
	NumReferences int

	InnerNodes int
	Leaves     int
	LeafBlocks int
	Depth      int

	// Tree SAH cost normalized by the root area.
	SAH float32

	BytesUsed      int
	BytesAllocated int

	BuildTime time.Duration
}

// Collect statistics for a tree.
func ComputeStatistics(t *BVH4) Statistics {
	stats := Statistics{
		PrimitiveType:  t.PrimType.Name(),
		NumPrimitives:  t.NumPrimitives,
		BytesUsed:      t.arena.BytesUsed(),
		BytesAllocated: t.arena.BytesAllocated(),
		BuildTime:      t.BuildTime,
	}
	if t.Root.IsEmpty() {
		return stats
	}

	var sah float32
	t.Walk(func(ref NodeRef, bounds types.AABB, depth int) {
		if depth > stats.Depth {
			stats.Depth = depth
		}
		area := bounds.HalfArea()
		if ref.IsInner() {
			stats.InnerNodes++
			sah += t.TraversalCost * area
			return
		}
		numBlocks := ref.NumBlocks()
		stats.Leaves++
		stats.LeafBlocks += numBlocks
		stats.NumReferences += len(t.LeafPrimitives(ref))
		sah += t.IntersectCost * float32(numBlocks) * area
	})

	if rootArea := t.Bounds.HalfArea(); rootArea > 0 {
		sah /= rootArea
	}
	stats.SAH = sah
	return stats
}

// Get the build throughput.
func (s Statistics) PrimitivesPerSecond() float64 {
	if s.BuildTime <= 0 {
		return 0
	}
	return float64(s.NumPrimitives) / s.BuildTime.Seconds()
}

// Get the average number of references per leaf.
func (s Statistics) AvgLeafSize() float64 {
	if s.Leaves == 0 {
		return 0
	}
	return float64(s.NumReferences) / float64(s.Leaves)
}

func (s Statistics) String() string {
	return fmt.Sprintf(
		"BVH4<%s> prims: %d, refs: %d, inner nodes: %d, leaves: %d, leaf blocks: %d, depth: %d, sah: %.3f, bytes: %d, build time: %s",
		s.PrimitiveType, s.NumPrimitives, s.NumReferences, s.InnerNodes, s.Leaves, s.LeafBlocks, s.Depth, s.SAH, s.BytesUsed, s.BuildTime,
	)
}

package bvh

import (
	"fmt"
	"time"

	"github.com/achilleasa/bvh4/types"
)

// A BVH4 is a bounding volume hierarchy with up to N children per inner
// node. The tree owns the arena that stores its nodes and leaf blocks.
type BVH4 struct {
	Root NodeRef

	// Bounds of all primitives; the canonical empty box for empty trees.
	Bounds types.AABB

	NumPrimitives int

	// The layout of the leaf blocks.
	PrimType PrimitiveType

	// The SAH constants used while building the tree.
	IntersectCost float32
	TraversalCost float32

	BuildTime time.Duration

	arena *Arena
}

// Get the inner node referenced by ref.
func (t *BVH4) Node(ref NodeRef) *Node {
	return t.arena.Node(ref)
}

// Get the leaf blocks referenced by ref.
func (t *BVH4) Leaf(ref NodeRef) []LeafBlock {
	return t.arena.LeafBlocks(ref)
}

// Get the primitive ids stored in a leaf in storage order.
func (t *BVH4) LeafPrimitives(ref NodeRef) []int32 {
	ids := make([]int32, 0, MaxBlockWidth*ref.NumBlocks())
	for _, block := range t.Leaf(ref) {
		for _, id := range block.PrimIDs {
			if id >= 0 {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (t *BVH4) Arena() *Arena {
	return t.arena
}

// Free the tree storage. The tree must not be used afterwards.
func (t *BVH4) Release() {
	t.arena.Release()
	t.Root = EmptyRef
}

// Visit all subtrees in depth-first order. Bounds are the ones stored in
// the parent slot (the tree bounds for the root); the root has depth 1.
func (t *BVH4) Walk(fn func(ref NodeRef, bounds types.AABB, depth int)) {
	t.walk(t.Root, t.Bounds, 1, fn)
}

func (t *BVH4) walk(ref NodeRef, bounds types.AABB, depth int, fn func(NodeRef, types.AABB, int)) {
	fn(ref, bounds, depth)
	if !ref.IsInner() {
		return
	}
	node := t.arena.Node(ref)
	for i := 0; i < N; i++ {
		if !node.Children[i].IsEmpty() {
			t.walk(node.Children[i], node.Bounds[i], depth+1, fn)
		}
	}
}

// Check the structural invariants of the tree: all slots are assigned and
// free of barriers, empty slots are compacted, inner node bounds equal the
// union of their children and leaf blocks are densely packed.
func (t *BVH4) Verify() error {
	if t.Root.IsEmpty() {
		if t.NumPrimitives != 0 {
			return fmt.Errorf("%w: empty root for %d primitives", ErrInternal, t.NumPrimitives)
		}
		return nil
	}

	maxLeafPrims := MaxLeafBlocks << t.PrimType.LogBlockSize()
	var err error
	t.Walk(func(ref NodeRef, bounds types.AABB, depth int) {
		if err != nil {
			return
		}
		switch {
		case ref.IsUnset():
			err = fmt.Errorf("%w: unassigned node slot at depth %d", ErrInternal, depth)
		case ref.IsBarrier():
			err = fmt.Errorf("%w: barrier %s left in tree", ErrInternal, ref)
		case depth > MaxBuildDepthLeaf+1:
			err = fmt.Errorf("%w: tree depth %d exceeds limit", ErrBuildDepthExceeded, depth)
		case ref.IsInner():
			err = t.verifyNode(ref, bounds)
		default:
			err = t.verifyLeaf(ref, maxLeafPrims)
		}
	})
	return err
}

func (t *BVH4) verifyNode(ref NodeRef, bounds types.AABB) error {
	node := t.arena.Node(ref)
	numChildren := node.NumChildren()
	if numChildren == 0 {
		return fmt.Errorf("%w: inner node %s without children", ErrInternal, ref)
	}
	for i := numChildren; i < N; i++ {
		if !node.Children[i].IsEmpty() {
			return fmt.Errorf("%w: inner node %s is not compacted", ErrInternal, ref)
		}
	}
	if node.BBox() != bounds {
		return fmt.Errorf("%w: inner node %s bounds %v do not match child union %v", ErrInternal, ref, bounds, node.BBox())
	}
	return nil
}

func (t *BVH4) verifyLeaf(ref NodeRef, maxLeafPrims int) error {
	blocks := t.arena.LeafBlocks(ref)
	if len(blocks) == 0 || len(blocks) > MaxLeafBlocks {
		return fmt.Errorf("%w: leaf %s has %d blocks", ErrInternal, ref, len(blocks))
	}

	count := 0
	width := 1 << t.PrimType.LogBlockSize()
	for i := range blocks {
		used := blocks[i].Len()
		if used == 0 || used > width || (used < width && i != len(blocks)-1) {
			return fmt.Errorf("%w: leaf %s block %d has %d of %d lanes in use", ErrInternal, ref, i, used, width)
		}
		count += used
	}
	if count > maxLeafPrims {
		return fmt.Errorf("%w: leaf %s stores %d primitives", ErrInternal, ref, count)
	}
	return nil
}

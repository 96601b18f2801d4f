package bvh

import (
	"fmt"

	"github.com/achilleasa/bvh4/types"
)

// NodeRef is a tagged handle to either an inner node or a leaf. The handle
// layout is:
//
// - bit 0: barrier flag; set on subtree roots finished by a build worker
// - bits 1-2: kind (unset, inner or leaf)
// - bits 3-7: number of leaf blocks
// - bits 8-63: node index (inner) or first leaf block index (leaf)
//
// The zero value is an unset handle; EmptyRef is a leaf without blocks.
type NodeRef uint64

const (
	barrierBit NodeRef = 1

	kindShift = 1
	kindMask  = 3 << kindShift

	blockCountShift = 3
	blockCountMask  = 0x1f << blockCountShift

	indexShift = 8
)

const (
	kindUnset NodeRef = iota << kindShift
	kindInner
	kindLeaf
)

// EmptyRef marks an empty child slot (and the root of an empty tree).
const EmptyRef = kindLeaf

func innerRef(index uint32) NodeRef {
	return NodeRef(index)<<indexShift | kindInner
}

func leafRef(firstBlock uint32, numBlocks int) NodeRef {
	return NodeRef(firstBlock)<<indexShift | NodeRef(numBlocks)<<blockCountShift | kindLeaf
}

// Returns true if this handle points to an inner node.
func (r NodeRef) IsInner() bool {
	return r&kindMask == kindInner
}

// Returns true if this handle points to a (possibly empty) leaf.
func (r NodeRef) IsLeaf() bool {
	return r&kindMask == kindLeaf
}

// Returns true if this handle is the empty leaf sentinel.
func (r NodeRef) IsEmpty() bool {
	return r.ClearBarrier() == EmptyRef
}

// Returns true if this handle was never assigned.
func (r NodeRef) IsUnset() bool {
	return r&kindMask == kindUnset
}

func (r NodeRef) IsBarrier() bool {
	return r&barrierBit != 0
}

func (r NodeRef) SetBarrier() NodeRef {
	return r | barrierBit
}

func (r NodeRef) ClearBarrier() NodeRef {
	return r &^ barrierBit
}

// Get the inner node index or the first leaf block index.
func (r NodeRef) Index() uint32 {
	return uint32(r >> indexShift)
}

// Get the number of leaf blocks.
func (r NodeRef) NumBlocks() int {
	if !r.IsLeaf() {
		return 0
	}
	return int(r&blockCountMask) >> blockCountShift
}

func (r NodeRef) String() string {
	var barrier string
	if r.IsBarrier() {
		barrier = ", barrier"
	}
	switch {
	case r.IsEmpty():
		return "empty" + barrier
	case r.IsInner():
		return fmt.Sprintf("inner(%d%s)", r.Index(), barrier)
	case r.IsLeaf():
		return fmt.Sprintf("leaf(%d, %d blocks%s)", r.Index(), r.NumBlocks(), barrier)
	}
	return "unset"
}

// An inner node with up to N children. Unused slots store EmptyRef and an
// empty bounding box and are always located after the used slots.
type Node struct {
	Bounds   [N]types.AABB
	Children [N]NodeRef
}

func (n *Node) clear() {
	for i := 0; i < N; i++ {
		n.Bounds[i] = types.EmptyAABB()
		n.Children[i] = EmptyRef
	}
}

func (n *Node) set(slot int, bounds types.AABB, child NodeRef) {
	n.Bounds[slot] = bounds
	n.Children[slot] = child
}

// Get the number of used child slots.
func (n *Node) NumChildren() int {
	count := 0
	for _, child := range n.Children {
		if !child.IsEmpty() {
			count++
		}
	}
	return count
}

// Get the union of the child bounds.
func (n *Node) BBox() types.AABB {
	bbox := types.EmptyAABB()
	for i, child := range n.Children {
		if !child.IsEmpty() {
			bbox = bbox.Extend(n.Bounds[i])
		}
	}
	return bbox
}

// Move empty slots to the end while preserving the order of the used ones.
func (n *Node) compact() {
	next := 0
	for i := 0; i < N; i++ {
		if n.Children[i].IsEmpty() {
			continue
		}
		if i != next {
			n.Bounds[next], n.Bounds[i] = n.Bounds[i], n.Bounds[next]
			n.Children[next], n.Children[i] = n.Children[i], n.Children[next]
		}
		next++
	}
}

package bvh

// Rotate the subtree rooted at ref and return its height together with the
// number of applied rotations. Leafs and barriers are not descended into.
//
// For each inner node (children first) the rotation swaps a child c1 with a
// grandchild below a different child c2 and picks the swap that shrinks the
// bounds of c2 the most. Swaps that do not strictly reduce the area of c2
// are ignored, so repeating a pass on a converged tree is a no-op.
func (b *builder) rotate(ref NodeRef, depth int) (height, rotations int) {
	if ref.IsBarrier() || !ref.IsInner() {
		return 0, 0
	}
	parent := b.bvh.arena.Node(ref)

	var childHeight [N]int
	for c := 0; c < N; c++ {
		if parent.Children[c].IsEmpty() {
			continue
		}
		h, r := b.rotate(parent.Children[c], depth+1)
		childHeight[c] = h
		rotations += r
		if h > height {
			height = h
		}
	}
	height++

	var bestCost float32
	bestChild1, bestChild2, bestChild2Child := -1, -1, -1
	for c2 := 0; c2 < N; c2++ {
		child2Ref := parent.Children[c2]
		if child2Ref.IsBarrier() || !child2Ref.IsInner() {
			continue
		}
		child2 := b.bvh.arena.Node(child2Ref)
		child2Area := parent.Bounds[c2].HalfArea()

		for c1 := 0; c1 < N; c1++ {
			if c1 == c2 || parent.Children[c1].IsEmpty() {
				continue
			}
			// c1 moves one level down.
			if depth+2+childHeight[c1] > MaxBuildDepthLeaf {
				continue
			}

			for gc := 0; gc < N; gc++ {
				if child2.Children[gc].IsEmpty() {
					continue
				}
				merged := parent.Bounds[c1]
				for k := 0; k < N; k++ {
					if k != gc && !child2.Children[k].IsEmpty() {
						merged = merged.Extend(child2.Bounds[k])
					}
				}
				if cost := merged.HalfArea() - child2Area; cost < bestCost {
					bestCost = cost
					bestChild1, bestChild2, bestChild2Child = c1, c2, gc
				}
			}
		}
	}

	if bestChild1 == -1 {
		return height, rotations
	}

	child2 := b.bvh.arena.Node(parent.Children[bestChild2])
	swapChildren(parent, bestChild1, child2, bestChild2Child)
	parent.Bounds[bestChild2] = child2.BBox()
	parent.compact()
	child2.compact()
	return height, rotations + 1
}

func swapChildren(a *Node, slotA int, b *Node, slotB int) {
	a.Bounds[slotA], b.Bounds[slotB] = b.Bounds[slotB], a.Bounds[slotA]
	a.Children[slotA], b.Children[slotB] = b.Children[slotB], a.Children[slotA]
}

// Run rotation passes over the tree until a pass applies no rotation or
// maxPasses is reached. Returns the total number of applied rotations.
func (t *BVH4) Rotate(maxPasses int) int {
	if t.Root.IsEmpty() {
		return 0
	}
	b := &builder{bvh: t}
	total := 0
	for pass := 0; pass < maxPasses; pass++ {
		_, rotations := b.rotate(t.Root, 1)
		if rotations == 0 {
			break
		}
		total += rotations
	}
	return total
}

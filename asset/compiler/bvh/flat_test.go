package bvh

import (
	"strings"
	"testing"

	"github.com/achilleasa/bvh4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Capture all leafs of a flat tree in traversal order.
func flatLeaves(f *FlatTree) []leafSnapshot {
	var leaves []leafSnapshot
	var walk func(ref NodeRef, bounds types.AABB, depth int)
	walk = func(ref NodeRef, bounds types.AABB, depth int) {
		if ref.IsLeaf() {
			var ids []int32
			for _, block := range f.Leaf(ref) {
				for _, id := range block.PrimIDs {
					if id >= 0 {
						ids = append(ids, id)
					}
				}
			}
			leaves = append(leaves, leafSnapshot{bounds: bounds, depth: depth, ids: ids})
			return
		}
		node := f.Node(ref)
		for i := 0; i < N; i++ {
			if !node.Children[i].IsEmpty() {
				walk(node.Children[i], node.Bounds[i], depth+1)
			}
		}
	}
	walk(f.Root, f.Bounds, 1)
	return leaves
}

func TestFlatten(t *testing.T) {
	src := randomTriangles(3000, 31)
	tree, err := Build(src, Options{Threads: 4, SingleThreadThreshold: 500, TaskSplitThreshold: 200, RotationPasses: 2})
	require.NoError(t, err)

	flat := tree.Flatten()
	require.NoError(t, flat.Validate())
	assert.Equal(t, "triangle4", flat.PrimitiveType)
	assert.Equal(t, tree.Bounds, flat.Bounds)
	assert.Equal(t, uint32(0), flat.Root.Index())

	stats := ComputeStatistics(tree)
	assert.Len(t, flat.Nodes, stats.InnerNodes)
	assert.Len(t, flat.LeafBlocks, stats.LeafBlocks)
	assert.Equal(t, snapshotLeaves(tree), flatLeaves(flat))
	assert.True(t, strings.Contains(flat.Stats(), "Inner nodes"))
}

func TestFlattenEmptyTree(t *testing.T) {
	tree, err := Build(TriangleSoup{}, Options{})
	require.NoError(t, err)

	flat := tree.Flatten()
	assert.Equal(t, EmptyRef, flat.Root)
	assert.Empty(t, flat.Nodes)
	assert.NoError(t, flat.Validate())
}

func TestFlatTreeValidate(t *testing.T) {
	tree, err := Build(randomTriangles(500, 3), Options{Threads: 1})
	require.NoError(t, err)

	flat := tree.Flatten()
	flat.Nodes[0].Children[0] = innerRef(uint32(len(flat.Nodes)))
	assert.ErrorIs(t, flat.Validate(), ErrInternal)

	flat = tree.Flatten()
	flat.PrimitiveType = "quad"
	assert.ErrorIs(t, flat.Validate(), ErrUnknownPrimitiveType)
}

package bvh

import (
	"testing"

	"github.com/achilleasa/bvh4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveTypeNames(t *testing.T) {
	exp := []string{"triangle1", "triangle1v", "triangle4", "triangle4i", "triangle4v", "triangle8"}
	assert.Equal(t, exp, PrimitiveTypeNames())

	for _, name := range exp {
		pt, err := NewPrimitiveType(name)
		require.NoError(t, err)
		assert.Equal(t, name, pt.Name())
		assert.LessOrEqual(t, pt.LogSAHBlockSize(), pt.LogBlockSize())
		assert.LessOrEqual(t, 1<<pt.LogBlockSize(), MaxBlockWidth)
	}

	pt, err := NewPrimitiveType("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrimitiveType, pt.Name())
}

func TestTriangleFill(t *testing.T) {
	src := TriangleSoup{
		{types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0)},
		{types.XYZ(0, 0, 1), types.XYZ(0, 2, 1), types.XYZ(2, 0, 1)},
	}
	refs := []PrimRef{
		{Bounds: types.TriangleAABB(src[1]), ID: 1},
		{Bounds: types.TriangleAABB(src[0]), ID: 0},
	}

	pt, err := NewPrimitiveType("triangle4")
	require.NoError(t, err)

	var block LeafBlock
	consumed := pt.Fill(&block, refs, src)
	require.Equal(t, 2, consumed)
	assert.Equal(t, [MaxBlockWidth]int32{1, 0, -1, -1, -1, -1, -1, -1}, block.PrimIDs)
	assert.Equal(t, 2, block.Len())

	// Lane 1 holds triangle 0.
	e1 := src[0][0].Sub(src[0][1])
	e2 := src[0][2].Sub(src[0][0])
	assert.Equal(t, src[0][0], block.V0[1])
	assert.Equal(t, e1, block.V1[1])
	assert.Equal(t, e2, block.V2[1])
	assert.Equal(t, e1.Cross(e2), block.Ng[1])

	pt, err = NewPrimitiveType("triangle4v")
	require.NoError(t, err)
	pt.Fill(&block, refs, src)
	assert.Equal(t, src[1][0], block.V0[0])
	assert.Equal(t, src[1][1], block.V1[0])
	assert.Equal(t, src[1][2], block.V2[0])

	pt, err = NewPrimitiveType("triangle1")
	require.NoError(t, err)
	assert.Equal(t, 1, pt.Fill(&block, refs, src))
	assert.Equal(t, 1, block.Len())
}

func TestCreateLeafPacksSortedBlocks(t *testing.T) {
	src := randomTriangles(10, 3)
	b := newTestBuilder(t, src, Options{PrimitiveType: "triangle4"})

	var refs []PrimRef
	for _, id := range []uint32{9, 3, 7, 0, 1, 8, 2, 6, 5, 4} {
		refs = append(refs, PrimRef{Bounds: types.TriangleAABB(src[id]), ID: id})
	}
	prims, pinfo := refList(refs...)

	alloc := b.bvh.arena.newAllocator()
	ref, err := b.createLeaf(alloc, &prims, pinfo)
	require.NoError(t, err)
	require.True(t, ref.IsLeaf())
	require.Equal(t, 3, ref.NumBlocks())

	blocks := b.bvh.arena.LeafBlocks(ref)
	assert.Equal(t, [MaxBlockWidth]int32{0, 1, 2, 3, -1, -1, -1, -1}, blocks[0].PrimIDs)
	assert.Equal(t, [MaxBlockWidth]int32{4, 5, 6, 7, -1, -1, -1, -1}, blocks[1].PrimIDs)
	assert.Equal(t, [MaxBlockWidth]int32{8, 9, -1, -1, -1, -1, -1, -1}, blocks[2].PrimIDs)
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, b.bvh.LeafPrimitives(ref))
}

func TestCreateLeafWithoutPrimitives(t *testing.T) {
	b := newTestBuilder(t, TriangleSoup{}, Options{})

	var prims PrimRefList
	ref, err := b.createLeaf(b.bvh.arena.newAllocator(), &prims, emptyPrimInfo())
	require.NoError(t, err)
	assert.Equal(t, EmptyRef, ref)
}

package bvh

import (
	"testing"

	"github.com/achilleasa/bvh4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTriangle(t *testing.T) {
	tri := [3]types.Vec3{types.XYZ(0, 0, 0), types.XYZ(4, 0, 0), types.XYZ(0, 4, 2)}

	left, right := splitTriangle(tri, types.XAxis, 1)
	assert.Equal(t, types.AABB{types.XYZ(0, 0, 0), types.XYZ(1, 4, 2)}, left)
	assert.Equal(t, types.XYZ(1, 0, 0), right[0])
	assert.Equal(t, float32(4), right[1][0])
	assert.Equal(t, float32(3), right[1][1])
	assert.Equal(t, float32(1.5), right[1][2])
	assert.Equal(t, types.TriangleAABB(tri), left.Extend(right))

	// Planes outside the triangle leave one side empty.
	left, right = splitTriangle(tri, types.ZAxis, 5)
	assert.Equal(t, types.TriangleAABB(tri), left)
	assert.True(t, right.IsEmpty())
}

func TestFindReturnsSentinelForCoincidentCenters(t *testing.T) {
	tri := [3]types.Vec3{types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0)}
	src := TriangleSoup{tri, tri, tri, tri, tri, tri}
	b := newTestBuilder(t, src, Options{})

	var refs []PrimRef
	for id := range src {
		refs = append(refs, PrimRef{Bounds: types.TriangleAABB(tri), ID: uint32(id)})
	}
	prims, pinfo := refList(refs...)

	split, err := b.find(&prims, pinfo, false, false)
	require.NoError(t, err)
	assert.False(t, split.Valid())
	assert.Equal(t, "none", split.String())
	assert.Greater(t, split.SAH(), float32(1e30))

	left, right, linfo, rinfo := b.applySplit(split, &prims)
	assert.Equal(t, 3, linfo.Count)
	assert.Equal(t, 3, rinfo.Count)
	assert.Equal(t, []uint32{0, 1, 2}, idsOf(&left))
	assert.Equal(t, []uint32{3, 4, 5}, idsOf(&right))
}

func TestFallbackSplitOddCount(t *testing.T) {
	src := randomTriangles(5, 11)
	var refs []PrimRef
	for _, id := range []uint32{4, 2, 0, 3, 1} {
		refs = append(refs, PrimRef{Bounds: types.TriangleAABB(src[id]), ID: id})
	}
	prims, _ := refList(refs...)

	left, right, linfo, rinfo := fallbackSplit(&prims)
	assert.Equal(t, []uint32{0, 1, 2}, idsOf(&left))
	assert.Equal(t, []uint32{3, 4}, idsOf(&right))
	assert.Equal(t, 3, linfo.Count)
	assert.Equal(t, 2, rinfo.Count)

	exp := types.TriangleAABB(src[3]).Extend(types.TriangleAABB(src[4]))
	assert.Equal(t, exp, rinfo.Bounds)
}

func TestObjectSplitSeparatesClusters(t *testing.T) {
	src := make(TriangleSoup, 0, 16)
	for i := 0; i < 8; i++ {
		offset := float32(i) * 0.1
		src = append(src, [3]types.Vec3{types.XYZ(offset, 0, 0), types.XYZ(offset+1, 0, 0), types.XYZ(offset, 1, 0)})
	}
	for i := 0; i < 8; i++ {
		offset := 50 + float32(i)*0.1
		src = append(src, [3]types.Vec3{types.XYZ(offset, 0, 0), types.XYZ(offset+1, 0, 0), types.XYZ(offset, 1, 0)})
	}
	b := newTestBuilder(t, src, Options{SpatialSplits: true})
	b.remainingReplications.Store(100)

	prims, pinfo := generatePrimRefs(src, 1)
	split, err := b.find(&prims, pinfo, true, false)
	require.NoError(t, err)
	require.Equal(t, objectSplit, split.kind)
	assert.Equal(t, types.XAxis, split.axis)

	left, right, linfo, rinfo := b.applySplit(split, &prims)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6, 7}, idsOf(&left))
	assert.Equal(t, []uint32{8, 9, 10, 11, 12, 13, 14, 15}, idsOf(&right))
	assert.Equal(t, linfo.Count+rinfo.Count, pinfo.Count)
	assert.Equal(t, pinfo.Bounds, linfo.Bounds.Extend(rinfo.Bounds))
}

func TestSpatialSplitReplicasAreDisjoint(t *testing.T) {
	src := diagonalTriangles(64)
	b := newTestBuilder(t, src, Options{SpatialSplits: true})

	prims, pinfo := generatePrimRefs(src, 1)
	split, err := b.find(&prims, pinfo, true, false)
	require.NoError(t, err)
	require.Equal(t, spatialSplit, split.kind, "expected spatial split; got %s", split)
	require.Equal(t, len(src), split.replications)

	// Parallel binning must select the same split.
	parallelPrims, _ := generatePrimRefs(src, 4)
	b.cfg.threads = 4
	parallelSplit, err := b.find(&parallelPrims, pinfo, true, true)
	require.NoError(t, err)
	assert.Equal(t, split, parallelSplit)
	parallelPrims.release()

	plane := split.planePos(split.pos)
	left, right, linfo, rinfo := b.applySplit(split, &prims)
	require.Equal(t, len(src), linfo.Count)
	require.Equal(t, len(src), rinfo.Count)

	leftRefs := left.collect()
	rightRefs := right.collect()
	sortPrimRefs(leftRefs)
	sortPrimRefs(rightRefs)
	for i := range leftRefs {
		lref, rref := leftRefs[i], rightRefs[i]
		require.Equal(t, lref.ID, rref.ID)

		orig := types.TriangleAABB(src[lref.ID])
		assert.True(t, orig.Contains(lref.Bounds))
		assert.True(t, orig.Contains(rref.Bounds))
		assert.Equal(t, orig, lref.Bounds.Extend(rref.Bounds))
		assert.LessOrEqual(t, lref.Bounds[1][split.axis], plane)
		assert.GreaterOrEqual(t, rref.Bounds[0][split.axis], plane)
		assert.Zero(t, volume(lref.Bounds.Intersect(rref.Bounds)))
	}
}

func idsOf(list *PrimRefList) []uint32 {
	var ids []uint32
	for _, ref := range list.collect() {
		ids = append(ids, ref.ID)
	}
	return ids
}

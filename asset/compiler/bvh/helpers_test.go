package bvh

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/achilleasa/bvh4/log"
	"github.com/achilleasa/bvh4/types"
	"github.com/stretchr/testify/require"
)

// Generate n small triangles scattered inside a [0, 100] cube.
func randomTriangles(n int, seed int64) TriangleSoup {
	rng := rand.New(rand.NewSource(seed))
	randVec := func(scale float32) types.Vec3 {
		return types.XYZ(rng.Float32()*scale, rng.Float32()*scale, rng.Float32()*scale)
	}

	soup := make(TriangleSoup, n)
	for i := range soup {
		center := randVec(100)
		for v := 0; v < 3; v++ {
			soup[i][v] = center.Add(randVec(2).Sub(types.XYZ(1, 1, 1)))
		}
	}
	return soup
}

// Generate n long, thin triangles running along the XY diagonal of a
// [0, 10] cube. All triangles have the same bounds in X and Y so object
// splits cannot separate them.
func diagonalTriangles(n int) TriangleSoup {
	soup := make(TriangleSoup, n)
	for i := range soup {
		z := 0.1 * float32(i) / float32(n)
		soup[i] = [3]types.Vec3{
			types.XYZ(0, 0, z),
			types.XYZ(10, 10, z),
			types.XYZ(10, 10, z+0.01),
		}
	}
	return soup
}

func newTestBuilder(t *testing.T, src PrimitiveSource, opts Options) *builder {
	primType, err := NewPrimitiveType(opts.PrimitiveType)
	require.NoError(t, err)

	b := &builder{
		logger:   log.New("bvh test"),
		cfg:      opts.resolve(primType),
		primType: primType,
		src:      src,
	}
	b.bvh = &BVH4{
		Root:          EmptyRef,
		Bounds:        types.EmptyAABB(),
		PrimType:      primType,
		IntersectCost: b.cfg.intCost,
		TraversalCost: b.cfg.travCost,
		arena:         newArena(),
	}
	return b
}

func refList(refs ...PrimRef) (PrimRefList, PrimInfo) {
	var list PrimRefList
	pinfo := emptyPrimInfo()
	for _, ref := range refs {
		list.Add(ref)
		pinfo.add(ref.Bounds)
	}
	return list, pinfo
}

type leafSnapshot struct {
	bounds types.AABB
	depth  int
	ids    []int32
}

// Capture all leafs in traversal order.
func snapshotLeaves(tree *BVH4) []leafSnapshot {
	var leaves []leafSnapshot
	tree.Walk(func(ref NodeRef, bounds types.AABB, depth int) {
		if ref.IsLeaf() {
			leaves = append(leaves, leafSnapshot{bounds: bounds, depth: depth, ids: tree.LeafPrimitives(ref)})
		}
	})
	return leaves
}

// Count the references to each primitive.
func primitiveCounts(tree *BVH4) map[int32]int {
	counts := make(map[int32]int)
	for _, leaf := range snapshotLeaves(tree) {
		for _, id := range leaf.ids {
			counts[id]++
		}
	}
	return counts
}

func sortedIDs(counts map[int32]int) []int32 {
	ids := make([]int32, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func volume(b types.AABB) float32 {
	d := b.Size()
	return d[0] * d[1] * d[2]
}

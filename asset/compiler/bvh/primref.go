package bvh

import (
	"sort"
	"sync"

	"github.com/achilleasa/bvh4/types"
)

// Number of references stored in a single PrimRefList block.
const primBlockSize = 256

// A PrimRef references a triangle (or, after a spatial split, the part of a
// triangle that lies inside Bounds).
type PrimRef struct {
	Bounds types.AABB
	ID     uint32
}

// Order references by primitive id. References to the same primitive are
// ordered by their lower bounds.
func (r PrimRef) less(other PrimRef) bool {
	if r.ID != other.ID {
		return r.ID < other.ID
	}
	for axis := 0; axis < 3; axis++ {
		if r.Bounds[0][axis] != other.Bounds[0][axis] {
			return r.Bounds[0][axis] < other.Bounds[0][axis]
		}
	}
	return false
}

func sortPrimRefs(refs []PrimRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].less(refs[j]) })
}

type primBlock struct {
	refs []PrimRef
}

var primBlockPool = sync.Pool{
	New: func() interface{} {
		return &primBlock{refs: make([]PrimRef, 0, primBlockSize)}
	},
}

func newPrimBlock() *primBlock {
	return primBlockPool.Get().(*primBlock)
}

func freePrimBlock(block *primBlock) {
	block.refs = block.refs[:0]
	primBlockPool.Put(block)
}

// A PrimRefList stores references in fixed-size blocks. A list is owned by
// a single build record; splitting a list consumes it.
type PrimRefList struct {
	blocks []*primBlock
}

// Append a reference.
func (l *PrimRefList) Add(ref PrimRef) {
	if n := len(l.blocks); n == 0 || len(l.blocks[n-1].refs) == primBlockSize {
		l.blocks = append(l.blocks, newPrimBlock())
	}
	last := l.blocks[len(l.blocks)-1]
	last.refs = append(last.refs, ref)
}

// Get the number of references in the list.
func (l *PrimRefList) Len() int {
	count := 0
	for _, block := range l.blocks {
		count += len(block.refs)
	}
	return count
}

// Move all blocks of other to the end of this list.
func (l *PrimRefList) appendList(other *PrimRefList) {
	l.blocks = append(l.blocks, other.blocks...)
	other.blocks = nil
}

// Merge all blocks into a single block and return its references sorted
// by primitive id. The list keeps ownership of the merged block.
func (l *PrimRefList) mergeSorted() []PrimRef {
	if len(l.blocks) == 0 {
		return nil
	}

	merged := l.blocks[0]
	for _, block := range l.blocks[1:] {
		merged.refs = append(merged.refs, block.refs...)
		freePrimBlock(block)
	}
	l.blocks = l.blocks[:1]

	sortPrimRefs(merged.refs)
	return merged.refs
}

// Copy all references to a new slice.
func (l *PrimRefList) collect() []PrimRef {
	refs := make([]PrimRef, 0, l.Len())
	for _, block := range l.blocks {
		refs = append(refs, block.refs...)
	}
	return refs
}

// Return all blocks to the block pool.
func (l *PrimRefList) release() {
	for _, block := range l.blocks {
		freePrimBlock(block)
	}
	l.blocks = nil
}

// PrimInfo summarizes a set of references.
type PrimInfo struct {
	Count int

	// Union of the reference bounds.
	Bounds types.AABB

	// Bounds of the doubled reference centers (see AABB.Center2).
	CentBounds types.AABB
}

func emptyPrimInfo() PrimInfo {
	return PrimInfo{
		Bounds:     types.EmptyAABB(),
		CentBounds: types.EmptyAABB(),
	}
}

func (pi *PrimInfo) add(bounds types.AABB) {
	pi.Count++
	pi.Bounds = pi.Bounds.Extend(bounds)
	pi.CentBounds = pi.CentBounds.ExtendPoint(bounds.Center2())
}

func (pi *PrimInfo) merge(other PrimInfo) {
	pi.Count += other.Count
	pi.Bounds = pi.Bounds.Extend(other.Bounds)
	pi.CentBounds = pi.CentBounds.Extend(other.CentBounds)
}

// Calculate the SAH cost of intersecting all summarized references as a
// single leaf. Counts are rounded up to blocks of 1<<logBlockSize primitives.
func (pi PrimInfo) LeafSAH(logBlockSize uint) float32 {
	return float32(blocks(pi.Count, logBlockSize)) * pi.Bounds.HalfArea()
}

// Get the number of blocks of 1<<logBlockSize items needed for count items.
func blocks(count int, logBlockSize uint) int {
	return (count + (1 << logBlockSize) - 1) >> logBlockSize
}

// Generate a reference for each primitive in src. Large inputs are
// processed in parallel; the resulting list order only depends on src.
func generatePrimRefs(src PrimitiveSource, threads int) (PrimRefList, PrimInfo) {
	numPrims := src.NumPrimitives()

	lists := make([]PrimRefList, threads)
	infos := make([]PrimInfo, threads)
	parallelRange(threads, numPrims, func(chunk, begin, end int) {
		info := emptyPrimInfo()
		for id := begin; id < end; id++ {
			bounds := types.TriangleAABB(src.Triangle(id))
			lists[chunk].Add(PrimRef{Bounds: bounds, ID: uint32(id)})
			info.add(bounds)
		}
		infos[chunk] = info
	})

	var prims PrimRefList
	pinfo := emptyPrimInfo()
	for chunk := range lists {
		prims.appendList(&lists[chunk])
		if infos[chunk].Count != 0 {
			pinfo.merge(infos[chunk])
		}
	}
	return prims, pinfo
}

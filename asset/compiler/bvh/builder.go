package bvh

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/achilleasa/bvh4/log"
	"github.com/achilleasa/bvh4/types"
)

// A unit of pending build work.
type buildRecord struct {
	depth int
	prims PrimRefList
	pinfo PrimInfo
	split Split

	// The slot that receives the NodeRef of the generated subtree.
	dst *NodeRef
}

type stats struct {
	spatialSplits  atomic.Int64
	fallbackSplits atomic.Int64
	parallelTasks  atomic.Int64
}

type builder struct {
	logger log.Logger

	cfg      buildConfig
	primType PrimitiveType
	src      PrimitiveSource
	bvh      *BVH4

	// Number of references that spatial splits may still create.
	remainingReplications atomic.Int64

	// Shared task list for the parallel build phase.
	tasks taskList

	// Set once a worker fails; remaining tasks are discarded.
	failed atomic.Bool

	stats stats
}

// Construct a BVH4 over the triangles of src.
//
// Inner nodes are generated by greedily splitting the node primitives with
// the best SAH split until N children exist or no child benefits from
// further splitting. Large inputs are built in parallel by opts.Threads
// workers. A failed build never returns a partial tree.
func Build(src PrimitiveSource, opts Options) (*BVH4, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	primType, err := NewPrimitiveType(opts.PrimitiveType)
	if err != nil {
		return nil, err
	}

	b := &builder{
		logger:   log.New("bvh builder"),
		cfg:      opts.resolve(primType),
		primType: primType,
		src:      src,
	}
	return b.build()
}

func (b *builder) build() (*BVH4, error) {
	start := time.Now()
	numPrims := b.src.NumPrimitives()

	b.bvh = &BVH4{
		Root:          EmptyRef,
		Bounds:        types.EmptyAABB(),
		PrimType:      b.primType,
		IntersectCost: b.cfg.intCost,
		TraversalCost: b.cfg.travCost,
		arena:         newArena(),
	}
	if numPrims == 0 {
		return b.bvh, nil
	}

	if b.cfg.spatial {
		maxPrims := int(b.cfg.replicationFactor * float32(numPrims))
		if maxPrims > numPrims {
			b.remainingReplications.Store(int64(maxPrims - numPrims))
		}
	}

	parallel := b.cfg.threads > 1 && numPrims > b.cfg.singleThreadThreshold
	threads := 1
	if parallel {
		threads = b.cfg.threads
	}
	prims, pinfo := generatePrimRefs(b.src, threads)

	split, err := b.find(&prims, pinfo, b.cfg.spatial, parallel)
	if err != nil {
		return nil, err
	}
	root := buildRecord{depth: 1, prims: prims, pinfo: pinfo, split: split, dst: &b.bvh.Root}

	alloc := b.bvh.arena.newAllocator()
	if parallel {
		err = b.buildParallel(alloc, root)
	} else {
		err = b.finishBuild(alloc, &root)
	}
	if err != nil {
		b.bvh.arena.Release()
		return nil, err
	}

	if b.cfg.spatial && b.bvh.Root.IsInner() {
		b.fitBounds(b.bvh.Root)
	}

	// Subtrees finished by workers are already rotated; these passes stop
	// at barriers and only rotate the top of the tree.
	for pass := 0; pass < b.cfg.rotationPasses; pass++ {
		b.rotate(b.bvh.Root, 1)
	}
	b.bvh.Root = b.layout(b.bvh.Root)

	b.bvh.NumPrimitives = pinfo.Count
	b.bvh.Bounds = pinfo.Bounds
	b.bvh.arena.Shrink()
	b.bvh.BuildTime = time.Since(start)

	b.logger.Debugf(
		"BVH4<%s> build time: %d ms, prims: %d, spatial splits: %d, fallback splits: %d, parallel tasks: %d",
		b.primType.Name(), b.bvh.BuildTime.Nanoseconds()/1e6, numPrims,
		b.stats.spatialSplits.Load(), b.stats.fallbackSplits.Load(), b.stats.parallelTasks.Load(),
	)
	return b.bvh, nil
}

// Recursively build the subtree for record.
func (b *builder) finishBuild(alloc *allocator, record *buildRecord) error {
	var children [N]buildRecord
	numChildren, err := b.createNode(alloc, record, false, &children)
	if err != nil {
		return err
	}
	for i := 0; i < numChildren; i++ {
		if err = b.finishBuild(alloc, &children[i]); err != nil {
			return err
		}
	}
	return nil
}

// Create a leaf or an inner node for record and write it to record.dst.
// For inner nodes, the records of its children are written to children and
// their count is returned; the caller is responsible for building them.
func (b *builder) createNode(alloc *allocator, record *buildRecord, parallel bool, children *[N]buildRecord) (int, error) {
	cfg := &b.cfg
	leafSAH := cfg.intCost * record.pinfo.LeafSAH(cfg.logSAHBlockSize)
	splitSAH := cfg.travCost*record.pinfo.Bounds.HalfArea() + cfg.intCost*record.split.SAH()

	count := record.pinfo.Count
	if count <= cfg.minLeafSize || record.depth > MaxBuildDepth || (count <= cfg.maxLeafSize && leafSAH <= splitSAH) {
		ref, err := b.createLargeLeaf(alloc, &record.prims, record.pinfo, record.depth+1)
		if err != nil {
			return 0, err
		}
		*record.dst = ref
		return 0, nil
	}

	children[0] = *record
	numChildren := 1

	for numChildren < N {
		// Pick the child whose split improves the SAH the most. Children
		// that exceed the max leaf size are always split.
		bestChild := -1
		var bestSAH float32
		for i := 0; i < numChildren; i++ {
			child := &children[i]
			if child.pinfo.Count <= cfg.minLeafSize {
				continue
			}
			dSAH := child.split.SAH() - child.pinfo.LeafSAH(cfg.logSAHBlockSize)
			if child.pinfo.Count > cfg.maxLeafSize && dSAH > 0 {
				dSAH = 0
			}
			if dSAH <= bestSAH {
				bestChild = i
				bestSAH = dSAH
			}
		}
		if bestChild == -1 {
			break
		}

		target := &children[bestChild]
		split := target.split
		if !split.Valid() {
			b.stats.fallbackSplits.Add(1)
		}
		// Spatial splits are only applied if the replication budget can
		// cover them; otherwise the record is split by objects.
		if split.kind == spatialSplit && !b.reserveReplications(split.replications) {
			var err error
			if target.split, err = b.find(&target.prims, target.pinfo, false, parallel); err != nil {
				return 0, err
			}
			continue
		}

		parentCount := target.pinfo.Count
		lrecord := buildRecord{depth: record.depth + 1}
		rrecord := buildRecord{depth: record.depth + 1}
		lrecord.prims, rrecord.prims, lrecord.pinfo, rrecord.pinfo = b.applySplit(split, &target.prims)

		// Return the unused part of the reservation.
		replications := lrecord.pinfo.Count + rrecord.pinfo.Count - parentCount
		if split.kind == spatialSplit && replications < split.replications {
			b.remainingReplications.Add(int64(split.replications - replications))
		}

		// Spatial splits may push every reference to one side; retry
		// that side without spatial splits.
		if lrecord.pinfo.Count == 0 || rrecord.pinfo.Count == 0 {
			retry := rrecord
			if rrecord.pinfo.Count == 0 {
				retry = lrecord
			}
			var err error
			if retry.split, err = b.find(&retry.prims, retry.pinfo, false, parallel); err != nil {
				return 0, err
			}
			*target = retry
			continue
		}

		if split.kind == spatialSplit {
			b.stats.spatialSplits.Add(1)
		}

		spatial := cfg.spatial && b.remainingReplications.Load() > 0

		var err error
		if lrecord.split, err = b.find(&lrecord.prims, lrecord.pinfo, spatial, parallel); err != nil {
			return 0, err
		}
		if rrecord.split, err = b.find(&rrecord.prims, rrecord.pinfo, spatial, parallel); err != nil {
			return 0, err
		}
		children[bestChild] = lrecord
		children[numChildren] = rrecord
		numChildren++
	}

	ref, node := alloc.allocNode()
	for i := 0; i < numChildren; i++ {
		node.Bounds[i] = children[i].pinfo.Bounds
		children[i].dst = &node.Children[i]
	}
	*record.dst = ref
	return numChildren, nil
}

// Take count references from the replication budget. Fails without
// changing the budget if it cannot cover count.
func (b *builder) reserveReplications(count int) bool {
	for {
		remaining := b.remainingReplications.Load()
		if int64(count) > remaining {
			return false
		}
		if b.remainingReplications.CompareAndSwap(remaining, remaining-int64(count)) {
			return true
		}
	}
}

// Create a leaf for prims. Sets with more than maxLeafSize references are
// divided with the fallback splitter into a tree of leafs.
func (b *builder) createLargeLeaf(alloc *allocator, prims *PrimRefList, pinfo PrimInfo, depth int) (NodeRef, error) {
	if depth >= MaxBuildDepthLeaf {
		return 0, fmt.Errorf("%w: depth %d with %d primitives", ErrBuildDepthExceeded, depth, pinfo.Count)
	}

	if pinfo.Count <= b.cfg.maxLeafSize {
		return b.createLeaf(alloc, prims, pinfo)
	}

	var cprims [N]PrimRefList
	var cinfo [N]PrimInfo
	prims0, prims1, _, _ := fallbackSplit(prims)
	cprims[0], cprims[1], cinfo[0], cinfo[1] = fallbackSplit(&prims0)
	cprims[2], cprims[3], cinfo[2], cinfo[3] = fallbackSplit(&prims1)
	b.stats.fallbackSplits.Add(3)

	ref, node := alloc.allocNode()
	for i := 0; i < N; i++ {
		if cinfo[i].Count == 0 {
			continue
		}
		child, err := b.createLargeLeaf(alloc, &cprims[i], cinfo[i], depth+1)
		if err != nil {
			return 0, err
		}
		node.set(i, cinfo[i].Bounds, child)
	}
	node.compact()
	return ref, nil
}

// Pack prims into leaf blocks. References are sorted by primitive id so the
// leaf contents do not depend on how the references were distributed
// across list blocks.
func (b *builder) createLeaf(alloc *allocator, prims *PrimRefList, pinfo PrimInfo) (NodeRef, error) {
	if pinfo.Count == 0 {
		prims.release()
		return EmptyRef, nil
	}

	numBlocks := blocks(pinfo.Count, b.cfg.logBlockSize)
	if numBlocks > MaxLeafBlocks {
		return 0, fmt.Errorf("%w: leaf with %d primitives needs %d blocks", ErrInternal, pinfo.Count, numBlocks)
	}

	refs := prims.mergeSorted()
	first, leafBlocks := alloc.allocLeafBlocks(numBlocks)
	for i := range leafBlocks {
		refs = refs[b.primType.Fill(&leafBlocks[i], refs, b.src):]
	}
	prims.release()

	if len(refs) != 0 {
		return 0, fmt.Errorf("%w: %d references left after filling leaf", ErrInternal, len(refs))
	}
	return leafRef(first, numBlocks), nil
}

// Shrink the child bounds of the inner node ref to the union of the
// grandchild bounds and return the node bounds. Clipped references only
// cover the part of a triangle inside their box, so a subtree built with
// spatial splits may be smaller than the record it was built from. Barrier
// subtrees are fitted by their worker and are not descended into.
func (b *builder) fitBounds(ref NodeRef) types.AABB {
	node := b.bvh.arena.Node(ref)
	for i := 0; i < N; i++ {
		child := node.Children[i]
		switch {
		case !child.IsInner():
		case child.IsBarrier():
			node.Bounds[i] = b.bvh.arena.Node(child).BBox()
		default:
			node.Bounds[i] = b.fitBounds(child)
		}
	}
	return node.BBox()
}

// Clear the barrier flags set by the parallel build phase.
func (b *builder) layout(ref NodeRef) NodeRef {
	if ref.IsBarrier() {
		return ref.ClearBarrier()
	}
	if ref.IsInner() {
		node := b.bvh.arena.Node(ref)
		for i := 0; i < N; i++ {
			node.Children[i] = b.layout(node.Children[i])
		}
	}
	return ref
}

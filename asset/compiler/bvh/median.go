package bvh

import (
	"sort"
	"time"

	"github.com/achilleasa/bvh4/log"
	"github.com/achilleasa/bvh4/types"
)

// Construct a BVH4 by recursively dividing the primitives, ordered by their
// center along the X axis, into four groups of equal size. The split does
// not look at the SAH; the resulting tree serves as a quality baseline for
// the SAH builder.
func BuildMedian(src PrimitiveSource, opts Options) (*BVH4, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	primType, err := NewPrimitiveType(opts.PrimitiveType)
	if err != nil {
		return nil, err
	}

	b := &builder{
		logger:   log.New("bvh median builder"),
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
	if src.NumPrimitives() == 0 {
		return b.bvh, nil
	}

	start := time.Now()
	prims, pinfo := generatePrimRefs(src, 1)
	refs := prims.collect()
	prims.release()
	sort.Slice(refs, func(i, j int) bool {
		ci, cj := refs[i].Bounds.Center2()[0], refs[j].Bounds.Center2()[0]
		if ci != cj {
			return ci < cj
		}
		return refs[i].ID < refs[j].ID
	})

	alloc := b.bvh.arena.newAllocator()
	if b.bvh.Root, err = b.partitionMedian(alloc, refs, 1); err != nil {
		b.bvh.arena.Release()
		return nil, err
	}

	b.bvh.NumPrimitives = pinfo.Count
	b.bvh.Bounds = pinfo.Bounds
	b.bvh.arena.Shrink()
	b.bvh.BuildTime = time.Since(start)
	b.logger.Debugf("BVH4<%s> median build time: %d ms, prims: %d", primType.Name(), b.bvh.BuildTime.Nanoseconds()/1e6, pinfo.Count)
	return b.bvh, nil
}

// Partition refs and return the subtree ref.
func (b *builder) partitionMedian(alloc *allocator, refs []PrimRef, depth int) (NodeRef, error) {
	if len(refs) <= b.cfg.maxLeafSize {
		var prims PrimRefList
		pinfo := emptyPrimInfo()
		for _, ref := range refs {
			prims.Add(ref)
			pinfo.add(ref.Bounds)
		}
		return b.createLeaf(alloc, &prims, pinfo)
	}
	if depth >= MaxBuildDepthLeaf {
		return 0, ErrBuildDepthExceeded
	}

	nodeRef, node := alloc.allocNode()
	for i := 0; i < N; i++ {
		group := refs[i*len(refs)/N : (i+1)*len(refs)/N]
		if len(group) == 0 {
			continue
		}

		bounds := types.EmptyAABB()
		for _, ref := range group {
			bounds = bounds.Extend(ref.Bounds)
		}
		child, err := b.partitionMedian(alloc, group, depth+1)
		if err != nil {
			return 0, err
		}
		node.set(i, bounds, child)
	}
	node.compact()
	return nodeRef, nil
}

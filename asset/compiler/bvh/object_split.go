package bvh

import (
	"github.com/achilleasa/bvh4/types"
	"github.com/chewxy/math32"
)

const maxObjectBins = 32

// Bins reference centers along all axes.
type objectBinner struct {
	numBins int
	ofs     types.Vec3
	scale   types.Vec3

	counts [maxObjectBins][3]int
	bounds [maxObjectBins][3]types.AABB
}

func newObjectBinner(pinfo PrimInfo) *objectBinner {
	numBins := int(4 + 0.05*float32(pinfo.Count))
	if numBins > maxObjectBins {
		numBins = maxObjectBins
	}

	ob := &objectBinner{
		numBins: numBins,
		ofs:     pinfo.CentBounds[0],
	}
	diag := pinfo.CentBounds.Size()
	for axis := 0; axis < 3; axis++ {
		if diag[axis] > 0 {
			ob.scale[axis] = 0.99 * float32(numBins) / diag[axis]
		}
	}
	for bin := 0; bin < numBins; bin++ {
		for axis := 0; axis < 3; axis++ {
			ob.bounds[bin][axis] = types.EmptyAABB()
		}
	}
	return ob
}

func (ob *objectBinner) add(refs []PrimRef) {
	for _, ref := range refs {
		center := ref.Bounds.Center2()
		for axis := 0; axis < 3; axis++ {
			bin := clampBin(int((center[axis]-ob.ofs[axis])*ob.scale[axis]), ob.numBins)
			ob.counts[bin][axis]++
			ob.bounds[bin][axis] = ob.bounds[bin][axis].Extend(ref.Bounds)
		}
	}
}

func (ob *objectBinner) merge(other *objectBinner) {
	for bin := 0; bin < ob.numBins; bin++ {
		for axis := 0; axis < 3; axis++ {
			ob.counts[bin][axis] += other.counts[bin][axis]
			ob.bounds[bin][axis] = ob.bounds[bin][axis].Extend(other.bounds[bin][axis])
		}
	}
}

// Evaluate the SAH for all bin boundaries and return the best split along
// with the bounds of both sides.
func (ob *objectBinner) best(logBlockSize uint) (Split, types.AABB, types.AABB) {
	best := Split{sah: math32.Inf(1)}
	bestLeft, bestRight := types.EmptyAABB(), types.EmptyAABB()

	var rightCounts [maxObjectBins]int
	var rightBounds [maxObjectBins]types.AABB
	for axis := 0; axis < 3; axis++ {
		if ob.scale[axis] == 0 {
			continue
		}

		count, bounds := 0, types.EmptyAABB()
		for bin := ob.numBins - 1; bin > 0; bin-- {
			count += ob.counts[bin][axis]
			bounds = bounds.Extend(ob.bounds[bin][axis])
			rightCounts[bin] = count
			rightBounds[bin] = bounds
		}

		count, bounds = 0, types.EmptyAABB()
		for pos := 1; pos < ob.numBins; pos++ {
			count += ob.counts[pos-1][axis]
			bounds = bounds.Extend(ob.bounds[pos-1][axis])
			if count == 0 || rightCounts[pos] == 0 {
				continue
			}

			sah := bounds.HalfArea()*float32(blocks(count, logBlockSize)) +
				rightBounds[pos].HalfArea()*float32(blocks(rightCounts[pos], logBlockSize))
			if sah < best.sah {
				best = Split{
					kind:    objectSplit,
					sah:     sah,
					axis:    types.Axis(axis),
					pos:     pos,
					numBins: ob.numBins,
					ofs:     ob.ofs[axis],
					scale:   ob.scale[axis],
				}
				bestLeft, bestRight = bounds, rightBounds[pos]
			}
		}
	}

	return best, bestLeft, bestRight
}

// Find the best binned object partition for prims.
func findObjectSplit(prims *PrimRefList, pinfo PrimInfo, logBlockSize uint, threads int) (Split, types.AABB, types.AABB) {
	binner := newObjectBinner(pinfo)
	if threads <= 1 || len(prims.blocks) < 2 {
		for _, block := range prims.blocks {
			binner.add(block.refs)
		}
		return binner.best(logBlockSize)
	}

	partial := make([]*objectBinner, threads)
	parallelRange(threads, len(prims.blocks), func(chunk, begin, end int) {
		local := newObjectBinner(pinfo)
		for _, block := range prims.blocks[begin:end] {
			local.add(block.refs)
		}
		partial[chunk] = local
	})
	for _, local := range partial {
		if local != nil {
			binner.merge(local)
		}
	}
	return binner.best(logBlockSize)
}

// Partition prims by comparing each reference center against the split bin.
func (s Split) partitionObject(prims *PrimRefList) (left, right PrimRefList, linfo, rinfo PrimInfo) {
	linfo, rinfo = emptyPrimInfo(), emptyPrimInfo()
	for _, block := range prims.blocks {
		for _, ref := range block.refs {
			if s.binIndex(ref.Bounds.Center2()[s.axis]) < s.pos {
				left.Add(ref)
				linfo.add(ref.Bounds)
			} else {
				right.Add(ref)
				rinfo.add(ref.Bounds)
			}
		}
	}
	prims.release()
	return left, right, linfo, rinfo
}

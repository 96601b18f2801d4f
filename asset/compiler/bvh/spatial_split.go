package bvh

import (
	"github.com/achilleasa/bvh4/types"
	"github.com/chewxy/math32"
)

const spatialBins = 16

// Bins clipped triangle bounds along all axes. Each reference enters the
// bin containing its lower bound and exits the bin containing its upper
// bound; the bins in between receive the clipped triangle parts.
type spatialBinner struct {
	ofs   types.Vec3
	scale types.Vec3

	enter  [spatialBins][3]int
	exit   [spatialBins][3]int
	bounds [spatialBins][3]types.AABB
}

func newSpatialBinner(pinfo PrimInfo) *spatialBinner {
	sb := &spatialBinner{ofs: pinfo.Bounds[0]}
	diag := pinfo.Bounds.Size()
	for axis := 0; axis < 3; axis++ {
		if diag[axis] > 0 {
			sb.scale[axis] = float32(spatialBins) / diag[axis]
		}
	}
	for bin := 0; bin < spatialBins; bin++ {
		for axis := 0; axis < 3; axis++ {
			sb.bounds[bin][axis] = types.EmptyAABB()
		}
	}
	return sb
}

func (sb *spatialBinner) binIndex(x float32, axis int) int {
	return clampBin(int((x-sb.ofs[axis])*sb.scale[axis]), spatialBins)
}

func (sb *spatialBinner) planePos(bin, axis int) float32 {
	return sb.ofs[axis] + float32(bin)/sb.scale[axis]
}

func (sb *spatialBinner) add(refs []PrimRef, src PrimitiveSource) {
	for _, ref := range refs {
		var tri [3]types.Vec3
		loaded := false
		for axis := 0; axis < 3; axis++ {
			if sb.scale[axis] == 0 {
				continue
			}

			startBin := sb.binIndex(ref.Bounds[0][axis], axis)
			endBin := sb.binIndex(ref.Bounds[1][axis], axis)
			sb.enter[startBin][axis]++
			sb.exit[endBin][axis]++

			if startBin == endBin {
				sb.bounds[startBin][axis] = sb.bounds[startBin][axis].Extend(ref.Bounds)
				continue
			}

			if !loaded {
				tri = src.Triangle(int(ref.ID))
				loaded = true
			}
			rest := ref.Bounds
			for bin := startBin; bin < endBin; bin++ {
				left, right := splitTriangle(tri, types.Axis(axis), sb.planePos(bin+1, axis))
				if left = left.Intersect(rest); !left.IsEmpty() {
					sb.bounds[bin][axis] = sb.bounds[bin][axis].Extend(left)
				}
				rest = right.Intersect(rest)
			}
			if !rest.IsEmpty() {
				sb.bounds[endBin][axis] = sb.bounds[endBin][axis].Extend(rest)
			}
		}
	}
}

func (sb *spatialBinner) merge(other *spatialBinner) {
	for bin := 0; bin < spatialBins; bin++ {
		for axis := 0; axis < 3; axis++ {
			sb.enter[bin][axis] += other.enter[bin][axis]
			sb.exit[bin][axis] += other.exit[bin][axis]
			sb.bounds[bin][axis] = sb.bounds[bin][axis].Extend(other.bounds[bin][axis])
		}
	}
}

func (sb *spatialBinner) best(logBlockSize uint) Split {
	best := Split{sah: math32.Inf(1)}

	var rightCounts [spatialBins]int
	var rightAreas [spatialBins]float32
	for axis := 0; axis < 3; axis++ {
		if sb.scale[axis] == 0 {
			continue
		}

		total := 0
		for bin := 0; bin < spatialBins; bin++ {
			total += sb.enter[bin][axis]
		}

		count, bounds := 0, types.EmptyAABB()
		for bin := spatialBins - 1; bin > 0; bin-- {
			count += sb.exit[bin][axis]
			bounds = bounds.Extend(sb.bounds[bin][axis])
			rightCounts[bin] = count
			rightAreas[bin] = bounds.HalfArea()
		}

		count, bounds = 0, types.EmptyAABB()
		for pos := 1; pos < spatialBins; pos++ {
			count += sb.enter[pos-1][axis]
			bounds = bounds.Extend(sb.bounds[pos-1][axis])
			if count == 0 || rightCounts[pos] == 0 {
				continue
			}

			sah := bounds.HalfArea()*float32(blocks(count, logBlockSize)) +
				rightAreas[pos]*float32(blocks(rightCounts[pos], logBlockSize))
			if sah < best.sah {
				best = Split{
					kind:         spatialSplit,
					sah:          sah,
					axis:         types.Axis(axis),
					pos:          pos,
					numBins:      spatialBins,
					ofs:          sb.ofs[axis],
					scale:        sb.scale[axis],
					replications: count + rightCounts[pos] - total,
				}
			}
		}
	}
	return best
}

// Find the best spatial split for prims.
func findSpatialSplit(prims *PrimRefList, pinfo PrimInfo, src PrimitiveSource, logBlockSize uint, threads int) Split {
	binner := newSpatialBinner(pinfo)
	if threads <= 1 || len(prims.blocks) < 2 {
		for _, block := range prims.blocks {
			binner.add(block.refs, src)
		}
		return binner.best(logBlockSize)
	}

	partial := make([]*spatialBinner, threads)
	parallelRange(threads, len(prims.blocks), func(chunk, begin, end int) {
		local := newSpatialBinner(pinfo)
		for _, block := range prims.blocks[begin:end] {
			local.add(block.refs, src)
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

// Partition prims against the split plane. References straddling the plane
// are clipped and inserted on both sides.
func (s Split) partitionSpatial(prims *PrimRefList, src PrimitiveSource) (left, right PrimRefList, linfo, rinfo PrimInfo) {
	linfo, rinfo = emptyPrimInfo(), emptyPrimInfo()
	plane := s.planePos(s.pos)
	for _, block := range prims.blocks {
		for _, ref := range block.refs {
			startBin := s.binIndex(ref.Bounds[0][s.axis])
			endBin := s.binIndex(ref.Bounds[1][s.axis])
			switch {
			case endBin < s.pos:
				left.Add(ref)
				linfo.add(ref.Bounds)
			case startBin >= s.pos:
				right.Add(ref)
				rinfo.add(ref.Bounds)
			default:
				lbounds, rbounds := splitTriangle(src.Triangle(int(ref.ID)), s.axis, plane)
				if lbounds = lbounds.Intersect(ref.Bounds); !lbounds.IsEmpty() {
					left.Add(PrimRef{Bounds: lbounds, ID: ref.ID})
					linfo.add(lbounds)
				}
				if rbounds = rbounds.Intersect(ref.Bounds); !rbounds.IsEmpty() {
					right.Add(PrimRef{Bounds: rbounds, ID: ref.ID})
					rinfo.add(rbounds)
				}
			}
		}
	}
	prims.release()
	return left, right, linfo, rinfo
}

// Clip a triangle against an axis aligned plane and return the bounds of
// the parts below and above the plane. Edge/plane intersections are snapped
// to the plane so the two boxes never overlap along axis.
func splitTriangle(tri [3]types.Vec3, axis types.Axis, pos float32) (left, right types.AABB) {
	left, right = types.EmptyAABB(), types.EmptyAABB()
	for i := 0; i < 3; i++ {
		v0 := tri[i]
		v1 := tri[(i+1)%3]
		a0, a1 := v0[axis], v1[axis]

		if a0 <= pos {
			left = left.ExtendPoint(v0)
		}
		if a0 >= pos {
			right = right.ExtendPoint(v0)
		}

		if (a0 < pos && pos < a1) || (a1 < pos && pos < a0) {
			t := (pos - a0) / (a1 - a0)
			c := v0.Add(v1.Sub(v0).Mul(t))
			c[axis] = pos
			left = left.ExtendPoint(c)
			right = right.ExtendPoint(c)
		}
	}
	return left, right
}

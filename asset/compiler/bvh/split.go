package bvh

import (
	"fmt"

	"github.com/achilleasa/bvh4/types"
	"github.com/chewxy/math32"
)

type splitKind uint8

const (
	noSplit splitKind = iota
	objectSplit
	spatialSplit
)

// If the left and right bounds of the best object split overlap by less
// than this fraction of the parent area, spatial splits are not evaluated.
const spatialOverlapThreshold = 0.2

// A Split describes how to partition a set of references. The zero value
// is the "no viable split" sentinel with an infinite SAH.
type Split struct {
	kind splitKind
	sah  float32

	axis types.Axis

	// References whose bin index is < pos go to the left side.
	pos int

	// Bin mapping along axis: bin = int((x - ofs) * scale).
	numBins int
	ofs     float32
	scale   float32

	// Number of extra references created by a spatial split.
	replications int
}

// Get the SAH cost of the split.
func (s Split) SAH() float32 {
	if s.kind == noSplit {
		return math32.Inf(1)
	}
	return s.sah
}

// Returns true if this is not the sentinel split.
func (s Split) Valid() bool {
	return s.kind != noSplit
}

func (s Split) String() string {
	switch s.kind {
	case objectSplit:
		return fmt.Sprintf("object(axis: %d, bin: %d/%d, sah: %f)", s.axis, s.pos, s.numBins, s.sah)
	case spatialSplit:
		return fmt.Sprintf("spatial(axis: %d, plane: %f, sah: %f)", s.axis, s.planePos(s.pos), s.sah)
	}
	return "none"
}

func (s Split) binIndex(x float32) int {
	return clampBin(int((x-s.ofs)*s.scale), s.numBins)
}

// Get the world position of the plane separating bin index-1 and index.
func (s Split) planePos(index int) float32 {
	return s.ofs + float32(index)/s.scale
}

func clampBin(bin, numBins int) int {
	if bin < 0 {
		return 0
	}
	if bin >= numBins {
		return numBins - 1
	}
	return bin
}

// Find the best split for prims. Spatial splits are only evaluated if
// spatial is set and the best object split has overlapping sides. Setting
// parallel allows the binning passes to use all build workers.
func (b *builder) find(prims *PrimRefList, pinfo PrimInfo, spatial, parallel bool) (Split, error) {
	threads := 1
	if parallel {
		threads = b.cfg.threads
	}

	osplit, leftBounds, rightBounds := findObjectSplit(prims, pinfo, b.cfg.logSAHBlockSize, threads)
	if spatial {
		overlap := leftBounds.Intersect(rightBounds)
		if overlap.HalfArea() < spatialOverlapThreshold*pinfo.Bounds.HalfArea() {
			spatial = false
		}
	}
	if !spatial {
		if math32.IsInf(osplit.sah, 1) {
			return Split{}, nil
		}
		return osplit, nil
	}

	ssplit := findSpatialSplit(prims, pinfo, b.src, b.cfg.logSAHBlockSize, threads)
	bestSAH := math32.Min(osplit.sah, ssplit.sah)
	switch {
	case math32.IsInf(bestSAH, 1):
		return Split{}, nil
	case bestSAH == osplit.sah:
		return osplit, nil
	case bestSAH == ssplit.sah:
		return ssplit, nil
	}
	return Split{}, fmt.Errorf("%w: no split matches best SAH %f (object: %f, spatial: %f)", ErrInternal, bestSAH, osplit.sah, ssplit.sah)
}

// Partition prims (consuming the list) according to split. The sentinel
// split uses the fallback splitter.
func (b *builder) applySplit(split Split, prims *PrimRefList) (left, right PrimRefList, linfo, rinfo PrimInfo) {
	switch split.kind {
	case objectSplit:
		return split.partitionObject(prims)
	case spatialSplit:
		return split.partitionSpatial(prims, b.src)
	}
	return fallbackSplit(prims)
}

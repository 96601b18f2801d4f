package bvh

// Split prims into two halves without consulting the SAH. References are
// ordered by primitive id (then by lower bounds) and the left side receives
// the first ceil(n/2) references, so the result is deterministic even when
// all reference centers coincide. Lists with a single reference produce an
// empty right side.
func fallbackSplit(prims *PrimRefList) (left, right PrimRefList, linfo, rinfo PrimInfo) {
	refs := prims.collect()
	prims.release()
	sortPrimRefs(refs)

	linfo, rinfo = emptyPrimInfo(), emptyPrimInfo()
	half := (len(refs) + 1) / 2
	for i, ref := range refs {
		if i < half {
			left.Add(ref)
			linfo.add(ref.Bounds)
		} else {
			right.Add(ref)
			rinfo.add(ref.Bounds)
		}
	}
	return left, right, linfo, rinfo
}

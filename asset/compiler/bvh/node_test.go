package bvh

import (
	"testing"

	"github.com/achilleasa/bvh4/types"
)

func TestNodeRefEncoding(t *testing.T) {
	specs := []struct {
		ref       NodeRef
		inner     bool
		leaf      bool
		empty     bool
		unset     bool
		index     uint32
		numBlocks int
		str       string
	}{
		{NodeRef(0), false, false, false, true, 0, 0, "unset"},
		{EmptyRef, false, true, true, false, 0, 0, "empty"},
		{innerRef(5), true, false, false, false, 5, 0, "inner(5)"},
		{innerRef(1 << 20), true, false, false, false, 1 << 20, 0, "inner(1048576)"},
		{leafRef(7, 3), false, true, false, false, 7, 3, "leaf(7, 3 blocks)"},
		{leafRef(0, MaxLeafBlocks), false, true, false, false, 0, MaxLeafBlocks, "leaf(0, 7 blocks)"},
		{innerRef(9).SetBarrier(), true, false, false, false, 9, 0, "inner(9, barrier)"},
	}

	for specIndex, spec := range specs {
		if got := spec.ref.IsInner(); got != spec.inner {
			t.Fatalf("[spec %d] expected IsInner() to return %t; got %t", specIndex, spec.inner, got)
		}
		if got := spec.ref.IsLeaf(); got != spec.leaf {
			t.Fatalf("[spec %d] expected IsLeaf() to return %t; got %t", specIndex, spec.leaf, got)
		}
		if got := spec.ref.IsEmpty(); got != spec.empty {
			t.Fatalf("[spec %d] expected IsEmpty() to return %t; got %t", specIndex, spec.empty, got)
		}
		if got := spec.ref.IsUnset(); got != spec.unset {
			t.Fatalf("[spec %d] expected IsUnset() to return %t; got %t", specIndex, spec.unset, got)
		}
		if got := spec.ref.Index(); got != spec.index {
			t.Fatalf("[spec %d] expected index %d; got %d", specIndex, spec.index, got)
		}
		if got := spec.ref.NumBlocks(); got != spec.numBlocks {
			t.Fatalf("[spec %d] expected %d blocks; got %d", specIndex, spec.numBlocks, got)
		}
		if got := spec.ref.String(); got != spec.str {
			t.Fatalf("[spec %d] expected String() to return %q; got %q", specIndex, spec.str, got)
		}
	}
}

func TestNodeRefBarrier(t *testing.T) {
	ref := leafRef(42, 2)
	barrier := ref.SetBarrier()
	if !barrier.IsBarrier() || ref.IsBarrier() {
		t.Fatal("expected only the flagged ref to be a barrier")
	}
	if barrier.Index() != 42 || barrier.NumBlocks() != 2 || !barrier.IsLeaf() {
		t.Fatalf("expected barrier flag to preserve the ref payload; got %s", barrier)
	}
	if got := barrier.ClearBarrier(); got != ref {
		t.Fatalf("expected cleared ref to be %s; got %s", ref, got)
	}
	if !EmptyRef.SetBarrier().IsEmpty() {
		t.Fatal("expected empty ref with barrier flag to be empty")
	}
}

func TestNodeCompact(t *testing.T) {
	var node Node
	node.clear()
	if node.NumChildren() != 0 {
		t.Fatalf("expected cleared node to have no children; got %d", node.NumChildren())
	}
	if !node.BBox().IsEmpty() {
		t.Fatalf("expected cleared node bbox to be empty; got %v", node.BBox())
	}

	b1 := types.AABB{types.XYZ(0, 0, 0), types.XYZ(1, 1, 1)}
	b3 := types.AABB{types.XYZ(2, 2, 2), types.XYZ(3, 3, 3)}
	node.set(1, b1, leafRef(1, 1))
	node.set(3, b3, leafRef(3, 1))
	node.compact()

	if node.NumChildren() != 2 {
		t.Fatalf("expected 2 children; got %d", node.NumChildren())
	}
	if node.Children[0] != leafRef(1, 1) || node.Children[1] != leafRef(3, 1) {
		t.Fatalf("expected compact to preserve child order; got %v", node.Children)
	}
	if node.Bounds[0] != b1 || node.Bounds[1] != b3 {
		t.Fatalf("expected bounds to move along with their children; got %v", node.Bounds)
	}
	if !node.Children[2].IsEmpty() || !node.Children[3].IsEmpty() {
		t.Fatalf("expected trailing slots to be empty; got %v", node.Children)
	}
	if exp := b1.Extend(b3); node.BBox() != exp {
		t.Fatalf("expected bbox %v; got %v", exp, node.BBox())
	}
}

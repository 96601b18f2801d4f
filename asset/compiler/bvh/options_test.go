package bvh

import (
	"errors"
	"runtime"
	"testing"
)

func TestOptionsValidate(t *testing.T) {
	specs := []struct {
		opts  Options
		valid bool
	}{
		{DefaultOptions(), true},
		{Options{}, true},
		{Options{MinLeafSize: 2, MaxLeafSize: 8}, true},
		{Options{MinLeafSize: -1}, false},
		{Options{MaxLeafSize: -1}, false},
		{Options{MinLeafSize: 9, MaxLeafSize: 8}, false},
		{Options{IntersectCost: -1}, false},
		{Options{TraversalCost: -0.5}, false},
		{Options{ReplicationFactor: 0.5}, false},
		{Options{ReplicationFactor: 1}, true},
		{Options{Threads: -2}, false},
		{Options{SingleThreadThreshold: -1}, false},
		{Options{TaskSplitThreshold: -1}, false},
		{Options{RotationPasses: -1}, false},
	}

	for specIndex, spec := range specs {
		err := spec.opts.Validate()
		if spec.valid && err != nil {
			t.Fatalf("[spec %d] expected options to be valid; got %v", specIndex, err)
		}
		if !spec.valid && !errors.Is(err, ErrInvalidOptions) {
			t.Fatalf("[spec %d] expected ErrInvalidOptions; got %v", specIndex, err)
		}
	}
}

func TestOptionsResolve(t *testing.T) {
	specs := []struct {
		primType string
		opts     Options
		minLeaf  int
		maxLeaf  int
	}{
		{"triangle1", Options{}, 2, MaxLeafBlocks},
		{"triangle4", Options{}, 4, 4 * MaxLeafBlocks},
		{"triangle8", Options{}, 8, 8 * MaxLeafBlocks},
		{"triangle4", Options{MaxLeafSize: 1000}, 4, 4 * MaxLeafBlocks},
		{"triangle4", Options{MinLeafSize: 1, MaxLeafSize: 16}, 1, 16},
		{"triangle1", Options{MinLeafSize: 20}, MaxLeafBlocks, MaxLeafBlocks},
	}

	for specIndex, spec := range specs {
		pt, err := NewPrimitiveType(spec.primType)
		if err != nil {
			t.Fatal(err)
		}
		cfg := spec.opts.resolve(pt)
		if cfg.minLeafSize != spec.minLeaf {
			t.Fatalf("[spec %d] expected min leaf size %d; got %d", specIndex, spec.minLeaf, cfg.minLeafSize)
		}
		if cfg.maxLeafSize != spec.maxLeaf {
			t.Fatalf("[spec %d] expected max leaf size %d; got %d", specIndex, spec.maxLeaf, cfg.maxLeafSize)
		}
	}

	pt, _ := NewPrimitiveType("")
	cfg := Options{}.resolve(pt)
	if cfg.threads != runtime.NumCPU() {
		t.Fatalf("expected thread count to default to %d; got %d", runtime.NumCPU(), cfg.threads)
	}
	if cfg.travCost != DefaultTraversalCost || cfg.intCost != pt.IntersectCost() {
		t.Fatalf("expected default cost constants; got trav: %f, int: %f", cfg.travCost, cfg.intCost)
	}
	if cfg.singleThreadThreshold != DefaultSingleThreadThreshold || cfg.taskSplitThreshold != DefaultTaskSplitThreshold {
		t.Fatalf("expected default task thresholds; got %d, %d", cfg.singleThreadThreshold, cfg.taskSplitThreshold)
	}
	if cfg.rotationPasses != 0 {
		t.Fatalf("expected zero rotation passes to disable rotations; got %d", cfg.rotationPasses)
	}
}

func TestBuildRejectsBadOptions(t *testing.T) {
	if _, err := Build(randomTriangles(10, 1), Options{Threads: -1}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions; got %v", err)
	}
	if _, err := Build(randomTriangles(10, 1), Options{PrimitiveType: "quad4"}); !errors.Is(err, ErrUnknownPrimitiveType) {
		t.Fatalf("expected ErrUnknownPrimitiveType; got %v", err)
	}
}

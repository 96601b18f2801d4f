package compiler

import (
	"fmt"
	"time"

	"github.com/achilleasa/bvh4/asset/compiler/bvh"
	"github.com/achilleasa/bvh4/asset/mesh"
	"github.com/achilleasa/bvh4/log"
)

// A compiled mesh.
type Result struct {
	Mesh  *mesh.Mesh
	Tree  *bvh.BVH4
	Stats bvh.Statistics
}

// Compile builds a BVH4 for the mesh triangles and collects the tree
// statistics. The built tree is checked for structural errors before it
// is returned.
func Compile(m *mesh.Mesh, opts bvh.Options) (*Result, error) {
	logger := log.New("mesh compiler")

	if err := m.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	logger.Noticef("compiling mesh %q (%d triangles)", m.Name, m.NumPrimitives())

	tree, err := bvh.Build(m, opts)
	if err != nil {
		return nil, fmt.Errorf("compiler: could not build BVH for mesh %q: %w", m.Name, err)
	}
	if err = tree.Verify(); err != nil {
		tree.Release()
		return nil, fmt.Errorf("compiler: BVH for mesh %q is invalid: %w", m.Name, err)
	}

	stats := bvh.ComputeStatistics(tree)
	logger.Infof("%s", stats)
	logger.Noticef("compiled mesh %q in %d ms", m.Name, time.Since(start).Nanoseconds()/1e6)

	return &Result{
		Mesh:  m,
		Tree:  tree,
		Stats: stats,
	}, nil
}

// Build the median split baseline tree for the mesh.
func CompileBaseline(m *mesh.Mesh, opts bvh.Options) (*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	tree, err := bvh.BuildMedian(m, opts)
	if err != nil {
		return nil, fmt.Errorf("compiler: could not build baseline BVH for mesh %q: %w", m.Name, err)
	}
	return &Result{
		Mesh:  m,
		Tree:  tree,
		Stats: bvh.ComputeStatistics(tree),
	}, nil
}

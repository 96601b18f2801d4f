package writer

import "github.com/achilleasa/bvh4/asset/compiler/bvh"

// The Writer interface is implemented by all tree writers.
type Writer interface {
	// Write a compiled tree.
	Write(*bvh.FlatTree) error
}

// Write a compiled tree to a zip archive.
func WriteTree(tree *bvh.FlatTree, filename string) error {
	return newZipTreeWriter(filename).Write(tree)
}

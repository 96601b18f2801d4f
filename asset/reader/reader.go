package reader

import (
	"fmt"
	"strings"

	"github.com/achilleasa/bvh4/asset"
	"github.com/achilleasa/bvh4/asset/compiler/bvh"
	"github.com/achilleasa/bvh4/asset/mesh"
)

// The MeshReader interface is implemented by all mesh readers.
type MeshReader interface {
	// Read a mesh from a resource.
	Read(*asset.Resource) (*mesh.Mesh, error)
}

// Read a mesh from a local file or URL. The reader is selected by the file
// extension.
func ReadMesh(filename string) (*mesh.Mesh, error) {
	var reader MeshReader
	switch {
	case strings.HasSuffix(filename, ".obj"):
		reader = newWavefrontReader()
	default:
		return nil, fmt.Errorf("readMesh: unsupported file format for %q", filename)
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return reader.Read(res)
}

// Read a compiled tree from a zip archive.
func ReadTree(filename string) (*bvh.FlatTree, error) {
	if !strings.HasSuffix(filename, ".zip") {
		return nil, fmt.Errorf("readTree: only compiled trees with a .zip extension are supported")
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return newZipTreeReader().Read(res)
}

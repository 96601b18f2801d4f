package reader

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/bvh4/asset"
	"github.com/achilleasa/bvh4/asset/compiler/bvh"
	"github.com/achilleasa/bvh4/log"
)

// The archive entry that stores the gob-encoded tree.
const treeDataFile = "bvh4.bin"

type zipTreeReader struct {
	logger log.Logger
}

func newZipTreeReader() *zipTreeReader {
	return &zipTreeReader{
		logger: log.New("zip reader"),
	}
}

// Read a compiled tree from a zip archive.
func (p *zipTreeReader) Read(res *asset.Resource) (*bvh.FlatTree, error) {
	p.logger.Noticef(`loading compiled tree from "%s"`, res.Path())
	start := time.Now()

	// zip.NewReader requires an io.ReaderAt; resources may be streamed so
	// the archive is buffered in memory.
	data, err := io.ReadAll(res)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var tree *bvh.FlatTree
	for _, f := range zr.File {
		if f.Name != treeDataFile {
			p.logger.Warningf("unknown file %s in tree zip file; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		tree = &bvh.FlatTree{}
		err = gob.NewDecoder(rc).Decode(tree)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zipTreeReader: failed to load %s: %w", f.Name, err)
		}
	}

	if tree == nil {
		return nil, fmt.Errorf("zipTreeReader: archive does not contain %s", treeDataFile)
	}
	if err = tree.Validate(); err != nil {
		return nil, fmt.Errorf("zipTreeReader: %w", err)
	}

	p.logger.Noticef("loaded tree in %d ms", time.Since(start).Nanoseconds()/1e6)
	return tree, nil
}

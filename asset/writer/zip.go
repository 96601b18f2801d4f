package writer

import (
	"archive/zip"
	"encoding/gob"
	"os"
	"time"

	"github.com/achilleasa/bvh4/asset/compiler/bvh"
	"github.com/achilleasa/bvh4/log"
)

// The archive entry that stores the gob-encoded tree.
const treeDataFile = "bvh4.bin"

type zipTreeWriter struct {
	logger   log.Logger
	filename string
}

func newZipTreeWriter(filename string) *zipTreeWriter {
	return &zipTreeWriter{
		logger:   log.New("zip writer"),
		filename: filename,
	}
}

// Write the tree to the zip archive. An existing archive is overwritten.
func (w *zipTreeWriter) Write(tree *bvh.FlatTree) error {
	w.logger.Noticef(`writing compiled tree to "%s"`, w.filename)
	start := time.Now()

	f, err := os.Create(w.filename)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entry, err := zw.Create(treeDataFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(entry).Encode(tree); err != nil {
		return err
	}
	if err = zw.Close(); err != nil {
		return err
	}

	w.logger.Noticef("wrote compiled tree in %d ms", time.Since(start).Nanoseconds()/1e6)
	return f.Close()
}

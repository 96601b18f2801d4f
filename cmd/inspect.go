package cmd

import (
	"errors"
	"strings"

	"github.com/achilleasa/bvh4/asset/reader"
	"github.com/urfave/cli"
)

// Display information about an exported tree.
func InspectTree(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing exported tree zip file")
	}

	treeFile := ctx.Args().First()
	if !strings.HasSuffix(treeFile, ".zip") {
		return errors.New("only exported tree files with a .zip extension are supported")
	}

	tree, err := reader.ReadTree(treeFile)
	if err != nil {
		return err
	}

	logger.Noticef("tree bounds: %v, root: %#x", tree.Bounds, uint64(tree.Root))
	logger.Noticef("tree information:\n%s", tree.Stats())
	return nil
}

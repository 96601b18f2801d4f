package cmd

import (
	"bytes"
	"errors"

	"github.com/achilleasa/bvh4/asset/compiler"
	"github.com/achilleasa/bvh4/asset/mesh"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Build a random triangle soup with the SAH and median split builders and
// compare the resulting trees.
func Bench(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := loadOptions(ctx)
	if err != nil {
		return err
	}

	numPrims := ctx.Int("prims")
	if numPrims <= 0 {
		return errors.New("the number of primitives must be positive")
	}

	m := mesh.Random(numPrims, ctx.Int64("seed"), 100, 1)
	logger.Noticef("generated %d random triangles (seed %d)", numPrims, ctx.Int64("seed"))

	sah, err := compiler.Compile(m, opts)
	if err != nil {
		return err
	}
	defer sah.Tree.Release()

	median, err := compiler.CompileBaseline(m, opts)
	if err != nil {
		return err
	}
	defer median.Tree.Release()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Builder", "Type", "Prims", "Refs", "Inner nodes", "Leaves", "Depth", "SAH", "Memory", "Build time", "Mprims/s"})
	table.Append(statsRow("sah", sah.Stats))
	table.Append(statsRow("median", median.Stats))
	table.Render()

	logger.Noticef("benchmark results:\n%s", buf.String())
	if median.Stats.SAH > 0 {
		logger.Noticef("SAH cost relative to median split: %.1f%%", 100*sah.Stats.SAH/median.Stats.SAH)
	}
	return nil
}

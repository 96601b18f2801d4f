package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/bvh4/asset/compiler/bvh"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List the supported leaf primitive types.
func ListFormats(ctx *cli.Context) error {
	setupLogging(ctx)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Type", "Block size", "SAH block size", "Min leaf", "Max leaf", "Intersect cost"})
	for _, name := range bvh.PrimitiveTypeNames() {
		primType, err := bvh.NewPrimitiveType(name)
		if err != nil {
			return err
		}
		table.Append([]string{
			name,
			fmt.Sprint(1 << primType.LogBlockSize()),
			fmt.Sprint(1 << primType.LogSAHBlockSize()),
			fmt.Sprint(primType.MinLeafSize()),
			fmt.Sprint(primType.MaxLeafSize()),
			fmt.Sprintf("%.2f", primType.IntersectCost()),
		})
	}
	table.Render()

	logger.Noticef("supported primitive types:\n%s", buf.String())
	return nil
}

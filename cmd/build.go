package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/achilleasa/bvh4/asset/compiler"
	"github.com/achilleasa/bvh4/asset/compiler/bvh"
	"github.com/achilleasa/bvh4/asset/reader"
	"github.com/achilleasa/bvh4/asset/writer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Build BVH4 trees for a list of wavefront obj meshes.
func BuildMeshes(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := loadOptions(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing mesh file arguments")
	}

	var results []*compiler.Result
	for idx := 0; idx < ctx.NArg(); idx++ {
		meshFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(meshFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", meshFile)
			continue
		}

		m, err := reader.ReadMesh(meshFile)
		if err != nil {
			return err
		}

		res, err := compiler.Compile(m, opts)
		if err != nil {
			return err
		}

		if ctx.Bool("export") {
			zipFile := strings.TrimSuffix(meshFile, ".obj") + ".zip"
			if err = writer.WriteTree(res.Tree.Flatten(), zipFile); err != nil {
				res.Tree.Release()
				return err
			}
			logger.Noticef("wrote flattened tree to %s", zipFile)
		}

		res.Tree.Release()
		results = append(results, res)
	}

	logger.Noticef("build statistics:\n%s", statsTable(results))
	return nil
}

func statsTable(results []*compiler.Result) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", "Type", "Prims", "Refs", "Inner nodes", "Leaves", "Depth", "SAH", "Memory", "Build time", "Mprims/s"})
	for _, res := range results {
		table.Append(statsRow(res.Mesh.Name, res.Stats))
	}
	table.Render()
	return buf.String()
}

func statsRow(name string, stats bvh.Statistics) []string {
	return []string{
		name,
		stats.PrimitiveType,
		fmt.Sprint(stats.NumPrimitives),
		fmt.Sprint(stats.NumReferences),
		fmt.Sprint(stats.InnerNodes),
		fmt.Sprint(stats.Leaves),
		fmt.Sprint(stats.Depth),
		fmt.Sprintf("%.3f", stats.SAH),
		fmtBytes(stats.BytesUsed),
		fmt.Sprintf("%d ms", stats.BuildTime.Nanoseconds()/1e6),
		fmt.Sprintf("%.2f", stats.PrimitivesPerSecond()/1e6),
	}
}

func fmtBytes(size int) string {
	totalBytes := float32(size)
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", size)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}

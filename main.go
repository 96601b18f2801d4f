package main

import (
	"os"

	"github.com/achilleasa/bvh4/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "bvh4"
	app.Usage = "build 4-wide bounding volume hierarchies over triangle meshes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a BVH4 for one or more wavefront obj meshes",
			Description: `
Parse the triangles of each wavefront obj file and build a BVH4 using binned
SAH object splits and, optionally, spatial splits. Statistics for the built
trees are printed once all meshes are processed.

When --export is specified, the tree is flattened and written to a zip archive
next to the mesh file which can be supplied as an argument to the inspect command.`,
			ArgsUsage: "mesh_file1.obj mesh_file2.obj ...",
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "export, e",
					Usage: "write the flattened tree to a zip archive",
				},
			}, cmd.BuilderFlags...),
			Action: cmd.BuildMeshes,
		},
		{
			Name:  "bench",
			Usage: "compare the SAH builder against a median split builder",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "prims, n",
					Value: 200000,
					Usage: "number of random triangles",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random generator seed",
				},
			}, cmd.BuilderFlags...),
			Action: cmd.Bench,
		},
		{
			Name:   "formats",
			Usage:  "list supported leaf primitive types",
			Action: cmd.ListFormats,
		},
		{
			Name:      "inspect",
			Usage:     "display information about an exported tree",
			ArgsUsage: "tree_file.zip",
			Action:    cmd.InspectTree,
		},
	}

	if err := app.Run(os.Args); err != nil {
		cmd.Fatal(err)
	}
}

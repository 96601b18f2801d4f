package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/achilleasa/bvh4/asset/compiler/bvh"
	"github.com/achilleasa/bvh4/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"
)

// Flags shared by all commands that build trees.
var BuilderFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "load builder options from a yaml or toml file",
	},
	cli.StringFlag{
		Name:  "type, t",
		Value: bvh.DefaultPrimitiveType,
		Usage: "leaf primitive type (see the formats command)",
	},
	cli.IntFlag{
		Name:  "threads",
		Usage: "number of build workers; 0 uses all cpus",
	},
	cli.BoolFlag{
		Name:  "spatial",
		Usage: "enable spatial splits",
	},
	cli.Float64Flag{
		Name:  "replication",
		Value: bvh.DefaultReplicationFactor,
		Usage: "max ratio of primitive references to primitives when spatial splits are enabled",
	},
	cli.IntFlag{
		Name:  "min-leaf",
		Usage: "records with at most this many primitives always become leafs",
	},
	cli.IntFlag{
		Name:  "max-leaf",
		Usage: "max number of primitives per leaf",
	},
	cli.IntFlag{
		Name:  "rotations",
		Value: bvh.DefaultRotationPasses,
		Usage: "number of tree rotation passes",
	},
}

// Load builder options from the config file (if any) and apply flag overrides.
func loadOptions(ctx *cli.Context) (bvh.Options, error) {
	opts := bvh.DefaultOptions()

	if cfgFile := ctx.String("config"); cfgFile != "" {
		logLevel, err := readOptionsFile(cfgFile, &opts)
		if err != nil {
			return opts, err
		}
		if err = applyLogLevel(ctx, logLevel); err != nil {
			return opts, err
		}
	}

	if ctx.IsSet("type") {
		opts.PrimitiveType = ctx.String("type")
	}
	if ctx.IsSet("threads") {
		opts.Threads = ctx.Int("threads")
	}
	if ctx.IsSet("spatial") {
		opts.SpatialSplits = ctx.Bool("spatial")
	}
	if ctx.IsSet("replication") {
		opts.ReplicationFactor = float32(ctx.Float64("replication"))
	}
	if ctx.IsSet("min-leaf") {
		opts.MinLeafSize = ctx.Int("min-leaf")
	}
	if ctx.IsSet("max-leaf") {
		opts.MaxLeafSize = ctx.Int("max-leaf")
	}
	if ctx.IsSet("rotations") {
		opts.RotationPasses = ctx.Int("rotations")
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	_, err := bvh.NewPrimitiveType(opts.PrimitiveType)
	return opts, err
}

// The contents of a build config file.
type configFile struct {
	bvh.Options `yaml:",inline"`

	// Logger verbosity; the -v and -vv flags take precedence.
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// Read builder options from a yaml or toml file into opts and return the
// log level specified by the file (if any).
func readOptionsFile(filename string, opts *bvh.Options) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}

	cfg := configFile{Options: *opts}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return "", fmt.Errorf("unsupported config file format %q", filepath.Ext(filename))
	}
	if err != nil {
		return "", fmt.Errorf("could not parse config file %s: %w", filename, err)
	}

	*opts = cfg.Options
	return cfg.LogLevel, nil
}

func applyLogLevel(ctx *cli.Context, name string) error {
	if name == "" {
		return nil
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return err
	}
	if !ctx.GlobalBool("v") && !ctx.GlobalBool("vv") {
		log.SetLevel(level)
	}
	return nil
}

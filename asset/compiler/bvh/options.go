package bvh

import (
	"fmt"
	"runtime"
)

const (
	// Max number of children per inner node.
	N = 4

	// Records deeper than this are turned into leafs regardless of their SAH.
	MaxBuildDepth = 32

	// Hard depth limit for the emergency leaf splitter.
	MaxBuildDepthLeaf = MaxBuildDepth + 16

	// Max number of primitive blocks that a single leaf may reference.
	MaxLeafBlocks = 7

	// Cost of traversing an inner node relative to intersecting a primitive block.
	DefaultTraversalCost float32 = 1.0

	DefaultPrimitiveType         = "triangle4"
	DefaultSingleThreadThreshold = 50000
	DefaultTaskSplitThreshold    = 4096
	DefaultRotationPasses        = 5
	DefaultReplicationFactor     = 2.0
)

// Options controls the BVH builder. Zero values for the leaf size and
// cost fields select the defaults of the selected primitive type.
type Options struct {
	// The leaf primitive layout; see PrimitiveTypeNames().
	PrimitiveType string `yaml:"primitive_type" toml:"primitive_type"`

	// Leaf size limits. Records with at most MinLeafSize primitives always
	// become leafs. MaxLeafSize is clamped to MaxLeafBlocks blocks.
	MinLeafSize int `yaml:"min_leaf_size" toml:"min_leaf_size"`
	MaxLeafSize int `yaml:"max_leaf_size" toml:"max_leaf_size"`

	// SAH cost constants.
	IntersectCost float32 `yaml:"intersect_cost" toml:"intersect_cost"`
	TraversalCost float32 `yaml:"traversal_cost" toml:"traversal_cost"`

	// Enable spatial (clipping) splits. The number of extra references
	// created by spatial splits is bounded by (ReplicationFactor-1) * numPrimitives.
	SpatialSplits     bool    `yaml:"spatial_splits" toml:"spatial_splits"`
	ReplicationFactor float32 `yaml:"replication_factor" toml:"replication_factor"`

	// Number of build workers; 0 selects runtime.NumCPU().
	Threads int `yaml:"threads" toml:"threads"`

	// Inputs with at most this many primitives are built on a single worker.
	SingleThreadThreshold int `yaml:"single_thread_threshold" toml:"single_thread_threshold"`

	// Worker tasks below this size are finished without further task splitting.
	TaskSplitThreshold int `yaml:"task_split_threshold" toml:"task_split_threshold"`

	// Number of tree rotation passes; 0 disables rotations.
	RotationPasses int `yaml:"rotation_passes" toml:"rotation_passes"`
}

// Get the default builder options.
func DefaultOptions() Options {
	return Options{
		PrimitiveType:         DefaultPrimitiveType,
		TraversalCost:         DefaultTraversalCost,
		ReplicationFactor:     DefaultReplicationFactor,
		SingleThreadThreshold: DefaultSingleThreadThreshold,
		TaskSplitThreshold:    DefaultTaskSplitThreshold,
		RotationPasses:        DefaultRotationPasses,
	}
}

// Validate the options and return an error wrapping ErrInvalidOptions.
func (o Options) Validate() error {
	switch {
	case o.MinLeafSize < 0:
		return fmt.Errorf("%w: min leaf size must not be negative", ErrInvalidOptions)
	case o.MaxLeafSize < 0:
		return fmt.Errorf("%w: max leaf size must not be negative", ErrInvalidOptions)
	case o.MaxLeafSize > 0 && o.MinLeafSize > o.MaxLeafSize:
		return fmt.Errorf("%w: min leaf size %d exceeds max leaf size %d", ErrInvalidOptions, o.MinLeafSize, o.MaxLeafSize)
	case o.IntersectCost < 0 || o.TraversalCost < 0:
		return fmt.Errorf("%w: cost constants must not be negative", ErrInvalidOptions)
	case o.ReplicationFactor != 0 && o.ReplicationFactor < 1:
		return fmt.Errorf("%w: replication factor must be >= 1", ErrInvalidOptions)
	case o.Threads < 0:
		return fmt.Errorf("%w: thread count must not be negative", ErrInvalidOptions)
	case o.SingleThreadThreshold < 0 || o.TaskSplitThreshold < 0:
		return fmt.Errorf("%w: task thresholds must not be negative", ErrInvalidOptions)
	case o.RotationPasses < 0:
		return fmt.Errorf("%w: rotation passes must not be negative", ErrInvalidOptions)
	}
	return nil
}

// The resolved build parameters.
type buildConfig struct {
	minLeafSize int
	maxLeafSize int

	intCost  float32
	travCost float32

	logBlockSize    uint
	logSAHBlockSize uint

	spatial           bool
	replicationFactor float32

	threads               int
	singleThreadThreshold int
	taskSplitThreshold    int
	rotationPasses        int
}

func (o Options) resolve(pt PrimitiveType) buildConfig {
	cfg := buildConfig{
		minLeafSize:           pt.MinLeafSize(),
		maxLeafSize:           pt.MaxLeafSize(),
		intCost:               pt.IntersectCost(),
		travCost:              DefaultTraversalCost,
		logBlockSize:          pt.LogBlockSize(),
		logSAHBlockSize:       pt.LogSAHBlockSize(),
		spatial:               o.SpatialSplits,
		replicationFactor:     DefaultReplicationFactor,
		threads:               o.Threads,
		singleThreadThreshold: DefaultSingleThreadThreshold,
		taskSplitThreshold:    DefaultTaskSplitThreshold,
		rotationPasses:        o.RotationPasses,
	}

	if o.MinLeafSize > 0 {
		cfg.minLeafSize = o.MinLeafSize
	}
	if o.MaxLeafSize > 0 {
		cfg.maxLeafSize = o.MaxLeafSize
	}
	if o.IntersectCost > 0 {
		cfg.intCost = o.IntersectCost
	}
	if o.TraversalCost > 0 {
		cfg.travCost = o.TraversalCost
	}
	if o.ReplicationFactor > 0 {
		cfg.replicationFactor = o.ReplicationFactor
	}
	if o.SingleThreadThreshold > 0 {
		cfg.singleThreadThreshold = o.SingleThreadThreshold
	}
	if o.TaskSplitThreshold > 0 {
		cfg.taskSplitThreshold = o.TaskSplitThreshold
	}
	if cfg.threads == 0 {
		cfg.threads = runtime.NumCPU()
	}

	maxLeafPrims := MaxLeafBlocks << pt.LogBlockSize()
	if cfg.maxLeafSize <= 0 || cfg.maxLeafSize > maxLeafPrims {
		cfg.maxLeafSize = maxLeafPrims
	}
	if cfg.minLeafSize > cfg.maxLeafSize {
		cfg.minLeafSize = cfg.maxLeafSize
	}

	return cfg
}

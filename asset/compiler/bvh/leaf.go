package bvh

import (
	"fmt"
	"sort"

	"github.com/achilleasa/bvh4/types"
)

// Max number of triangles packed in a single leaf block.
const MaxBlockWidth = 8

// A LeafBlock packs up to MaxBlockWidth triangles in SoA layout. The meaning
// of the vertex lanes depends on the primitive type that filled the block.
// Unused lanes have a primitive id of -1.
type LeafBlock struct {
	V0 [MaxBlockWidth]types.Vec3
	V1 [MaxBlockWidth]types.Vec3
	V2 [MaxBlockWidth]types.Vec3
	Ng [MaxBlockWidth]types.Vec3

	PrimIDs [MaxBlockWidth]int32
}

func (lb *LeafBlock) reset() {
	*lb = LeafBlock{}
	for lane := range lb.PrimIDs {
		lb.PrimIDs[lane] = -1
	}
}

// Get the number of used lanes.
func (lb *LeafBlock) Len() int {
	count := 0
	for _, id := range lb.PrimIDs {
		if id >= 0 {
			count++
		}
	}
	return count
}

// The PrimitiveType interface is implemented by all leaf primitive layouts.
// A primitive type also defines the default leaf size and cost parameters
// for the builder.
type PrimitiveType interface {
	Name() string

	// Log2 of the number of triangles packed in a leaf block.
	LogBlockSize() uint

	// Log2 of the block granularity used when evaluating the SAH.
	LogSAHBlockSize() uint

	MinLeafSize() int

	// Max leaf size; 0 only limits leafs to MaxLeafBlocks blocks.
	MaxLeafSize() int

	IntersectCost() float32

	// Pack refs into block and return the number of consumed refs.
	Fill(block *LeafBlock, refs []PrimRef, src PrimitiveSource) int
}

type primitiveParams struct {
	name            string
	logBlockSize    uint
	logSAHBlockSize uint
	minLeafSize     int
	maxLeafSize     int
	intCost         float32
}

func (p primitiveParams) Name() string           { return p.name }
func (p primitiveParams) LogBlockSize() uint     { return p.logBlockSize }
func (p primitiveParams) LogSAHBlockSize() uint  { return p.logSAHBlockSize }
func (p primitiveParams) MinLeafSize() int       { return p.minLeafSize }
func (p primitiveParams) MaxLeafSize() int       { return p.maxLeafSize }
func (p primitiveParams) IntersectCost() float32 { return p.intCost }

// Pack triangle lanes with writeLane.
func (p primitiveParams) fill(block *LeafBlock, refs []PrimRef, writeLane func(lane int, id uint32)) int {
	block.reset()
	count := 1 << p.logBlockSize
	if len(refs) < count {
		count = len(refs)
	}
	for lane := 0; lane < count; lane++ {
		writeLane(lane, refs[lane].ID)
		block.PrimIDs[lane] = int32(refs[lane].ID)
	}
	return count
}

// Triangles with precomputed edges and geometry normal:
// V0 = v0, V1 = e1 = v0-v1, V2 = e2 = v2-v0, Ng = e1 x e2.
type triangle struct {
	primitiveParams
}

func (t *triangle) Fill(block *LeafBlock, refs []PrimRef, src PrimitiveSource) int {
	return t.fill(block, refs, func(lane int, id uint32) {
		tri := src.Triangle(int(id))
		e1 := tri[0].Sub(tri[1])
		e2 := tri[2].Sub(tri[0])
		block.V0[lane] = tri[0]
		block.V1[lane] = e1
		block.V2[lane] = e2
		block.Ng[lane] = e1.Cross(e2)
	})
}

// Triangles storing their raw vertices in V0, V1 and V2.
type triangleV struct {
	primitiveParams
}

func (t *triangleV) Fill(block *LeafBlock, refs []PrimRef, src PrimitiveSource) int {
	return t.fill(block, refs, func(lane int, id uint32) {
		tri := src.Triangle(int(id))
		block.V0[lane] = tri[0]
		block.V1[lane] = tri[1]
		block.V2[lane] = tri[2]
	})
}

// Triangles that only store primitive ids; the renderer fetches the
// vertices from the mesh.
type triangleI struct {
	primitiveParams
}

func (t *triangleI) Fill(block *LeafBlock, refs []PrimRef, _ PrimitiveSource) int {
	return t.fill(block, refs, func(int, uint32) {})
}

var primitiveTypes = map[string]func() PrimitiveType{
	"triangle1": func() PrimitiveType {
		return &triangle{primitiveParams{"triangle1", 0, 0, 2, 0, 1.0}}
	},
	"triangle4": func() PrimitiveType {
		return &triangle{primitiveParams{"triangle4", 2, 2, 4, 0, 1.0}}
	},
	"triangle8": func() PrimitiveType {
		return &triangle{primitiveParams{"triangle8", 3, 2, 8, 0, 1.0}}
	},
	"triangle1v": func() PrimitiveType {
		return &triangleV{primitiveParams{"triangle1v", 0, 0, 2, 0, 1.0}}
	},
	"triangle4v": func() PrimitiveType {
		return &triangleV{primitiveParams{"triangle4v", 2, 2, 4, 0, 1.0}}
	},
	"triangle4i": func() PrimitiveType {
		return &triangleI{primitiveParams{"triangle4i", 2, 2, 4, 0, 1.0}}
	},
}

// Create a primitive type by name. An empty name selects DefaultPrimitiveType.
func NewPrimitiveType(name string) (PrimitiveType, error) {
	if name == "" {
		name = DefaultPrimitiveType
	}
	ctor, exists := primitiveTypes[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrimitiveType, name)
	}
	return ctor(), nil
}

// Get the sorted list of supported primitive type names.
func PrimitiveTypeNames() []string {
	names := make([]string, 0, len(primitiveTypes))
	for name := range primitiveTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

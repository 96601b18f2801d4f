package bvh

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/achilleasa/bvh4/types"
	"github.com/olekukonko/tablewriter"
)

// A FlatTree is a self-contained copy of a BVH4 where inner nodes are stored
// in breadth-first order and the leaf blocks of each leaf are contiguous.
// NodeRefs inside a flat tree index its Nodes and LeafBlocks slices.
type FlatTree struct {
	PrimitiveType string
	NumPrimitives int
	Bounds        types.AABB

	IntersectCost float32
	TraversalCost float32

	Root       NodeRef
	Nodes      []Node
	LeafBlocks []LeafBlock
}

// Copy the tree into a FlatTree.
func (t *BVH4) Flatten() *FlatTree {
	flat := &FlatTree{
		PrimitiveType: t.PrimType.Name(),
		NumPrimitives: t.NumPrimitives,
		Bounds:        t.Bounds,
		IntersectCost: t.IntersectCost,
		TraversalCost: t.TraversalCost,
		Root:          EmptyRef,
	}
	if t.Root.IsEmpty() {
		return flat
	}

	type pending struct {
		src NodeRef
		dst int
	}
	var queue []pending

	remap := func(ref NodeRef) NodeRef {
		if ref.IsLeaf() {
			first := len(flat.LeafBlocks)
			flat.LeafBlocks = append(flat.LeafBlocks, t.Leaf(ref)...)
			return leafRef(uint32(first), ref.NumBlocks())
		}
		index := len(flat.Nodes)
		flat.Nodes = append(flat.Nodes, Node{})
		queue = append(queue, pending{src: ref, dst: index})
		return innerRef(uint32(index))
	}

	flat.Root = remap(t.Root)
	for len(queue) != 0 {
		next := queue[0]
		queue = queue[1:]

		node := *t.Node(next.src)
		for i := 0; i < N; i++ {
			if !node.Children[i].IsEmpty() {
				node.Children[i] = remap(node.Children[i])
			}
		}
		flat.Nodes[next.dst] = node
	}
	return flat
}

// Get the inner node referenced by ref.
func (f *FlatTree) Node(ref NodeRef) *Node {
	return &f.Nodes[ref.Index()]
}

// Get the leaf blocks referenced by ref.
func (f *FlatTree) Leaf(ref NodeRef) []LeafBlock {
	if ref.NumBlocks() == 0 {
		return nil
	}
	first := int(ref.Index())
	return f.LeafBlocks[first : first+ref.NumBlocks()]
}

// Check that all node references are within bounds and that inner nodes
// are only referenced by nodes stored before them.
func (f *FlatTree) Validate() error {
	if _, err := NewPrimitiveType(f.PrimitiveType); err != nil {
		return err
	}
	if err := f.validateRef(f.Root, -1); err != nil {
		return err
	}
	for index := range f.Nodes {
		for _, child := range f.Nodes[index].Children {
			if err := f.validateRef(child, index); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *FlatTree) validateRef(ref NodeRef, parent int) error {
	switch {
	case ref.IsEmpty():
		return nil
	case ref.IsUnset() || ref.IsBarrier():
		return fmt.Errorf("%w: invalid node ref %s", ErrInternal, ref)
	case ref.IsInner():
		if index := int(ref.Index()); index <= parent || index >= len(f.Nodes) {
			return fmt.Errorf("%w: node ref %s out of range", ErrInternal, ref)
		}
	default:
		if end := int(ref.Index()) + ref.NumBlocks(); end > len(f.LeafBlocks) {
			return fmt.Errorf("%w: leaf ref %s out of range", ErrInternal, ref)
		}
	}
	return nil
}

// Generate a table with the storage requirements of the tree.
func (f *FlatTree) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Count", "Size"})
	table.Append([]string{"Inner nodes", fmt.Sprint(len(f.Nodes)), fmtSize(f.Nodes)})
	table.Append([]string{fmt.Sprintf("Leaf blocks (%s)", f.PrimitiveType), fmt.Sprint(len(f.LeafBlocks)), fmtSize(f.LeafBlocks)})
	table.SetFooter([]string{"Total", fmt.Sprint(f.NumPrimitives) + " prims", strings.TrimLeft(fmtSize(f.Nodes, f.LeafBlocks), " ")})

	table.Render()
	return buf.String()
}

func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}

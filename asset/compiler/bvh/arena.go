package bvh

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

const (
	arenaPageShift = 10
	arenaPageSize  = 1 << arenaPageShift
	arenaPageMask  = arenaPageSize - 1
)

type arenaPage[T any] struct {
	items []T

	// Number of allocated items. Only the allocator owning the page
	// updates it.
	used int
}

// A paged pool of T. Pages never move once allocated so pointers to items
// remain valid until the pool is shrunk or released. The page directory
// is replaced atomically when it grows so lookups never need to lock.
type pool[T any] struct {
	mu  sync.Mutex
	dir atomic.Pointer[[]*arenaPage[T]]
}

func (p *pool[T]) pages() []*arenaPage[T] {
	if dir := p.dir.Load(); dir != nil {
		return *dir
	}
	return nil
}

// Allocate a new page and return the index of its first item.
func (p *pool[T]) newPage() (uint32, *arenaPage[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pages := p.pages()
	page := &arenaPage[T]{items: make([]T, arenaPageSize)}
	next := append(pages, page)
	p.dir.Store(&next)
	return uint32(len(pages)) << arenaPageShift, page
}

func (p *pool[T]) at(index uint32) *T {
	return &p.pages()[index>>arenaPageShift].items[index&arenaPageMask]
}

func (p *pool[T]) slice(first uint32, count int) []T {
	offset := int(first & arenaPageMask)
	return p.pages()[first>>arenaPageShift].items[offset : offset+count]
}

// Replace partially used pages with right-sized copies.
func (p *pool[T]) shrink() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, page := range p.pages() {
		if page.used == len(page.items) {
			continue
		}
		items := make([]T, page.used)
		copy(items, page.items)
		page.items = items
	}
}

func (p *pool[T]) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dir.Store(nil)
}

// Returns the number of used and allocated items.
func (p *pool[T]) usage() (used, allocated int) {
	for _, page := range p.pages() {
		used += page.used
		allocated += len(page.items)
	}
	return used, allocated
}

// Hands out items from a private page of a pool.
type cursor[T any] struct {
	pool *pool[T]
	base uint32
	page *arenaPage[T]
}

// Allocate count contiguous items; count must not exceed the page size.
func (c *cursor[T]) alloc(count int) (uint32, []T) {
	if c.page == nil || c.page.used+count > len(c.page.items) {
		c.base, c.page = c.pool.newPage()
	}
	index := c.base + uint32(c.page.used)
	items := c.page.items[c.page.used : c.page.used+count]
	c.page.used += count
	return index, items
}

// Arena stores the inner nodes and leaf blocks of a BVH4. Items are handed
// out by allocators which are owned by a single build worker each;
// consecutive allocations are not guaranteed to be adjacent.
type Arena struct {
	nodes  pool[Node]
	blocks pool[LeafBlock]
}

func newArena() *Arena {
	return &Arena{}
}

// Get the node referenced by an inner NodeRef.
func (a *Arena) Node(ref NodeRef) *Node {
	return a.nodes.at(ref.Index())
}

// Get the blocks referenced by a leaf NodeRef.
func (a *Arena) LeafBlocks(ref NodeRef) []LeafBlock {
	if ref.NumBlocks() == 0 {
		return nil
	}
	return a.blocks.slice(ref.Index(), ref.NumBlocks())
}

// Trim unused page space. Must not be called while a build is in progress.
func (a *Arena) Shrink() {
	a.nodes.shrink()
	a.blocks.shrink()
}

// Drop all nodes and leaf blocks.
func (a *Arena) Release() {
	a.nodes.release()
	a.blocks.release()
}

// Get the number of bytes used by allocated nodes and leaf blocks.
func (a *Arena) BytesUsed() int {
	usedNodes, _ := a.nodes.usage()
	usedBlocks, _ := a.blocks.usage()
	return usedNodes*int(unsafe.Sizeof(Node{})) + usedBlocks*int(unsafe.Sizeof(LeafBlock{}))
}

// Get the number of bytes reserved by the arena pages.
func (a *Arena) BytesAllocated() int {
	_, nodes := a.nodes.usage()
	_, leafBlocks := a.blocks.usage()
	return nodes*int(unsafe.Sizeof(Node{})) + leafBlocks*int(unsafe.Sizeof(LeafBlock{}))
}

func (a *Arena) newAllocator() *allocator {
	return &allocator{
		nodes:  cursor[Node]{pool: &a.nodes},
		blocks: cursor[LeafBlock]{pool: &a.blocks},
	}
}

// A per-worker allocator.
type allocator struct {
	nodes  cursor[Node]
	blocks cursor[LeafBlock]
}

// Allocate a node with all slots set to the empty sentinel.
func (a *allocator) allocNode() (NodeRef, *Node) {
	index, items := a.nodes.alloc(1)
	node := &items[0]
	node.clear()
	return innerRef(index), node
}

// Allocate count contiguous leaf blocks.
func (a *allocator) allocLeafBlocks(count int) (uint32, []LeafBlock) {
	return a.blocks.alloc(count)
}

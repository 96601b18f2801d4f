package bvh

import (
	"container/heap"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// A max-heap of build records ordered by primitive count.
type recordHeap []buildRecord

func (h recordHeap) Len() int            { return len(h) }
func (h recordHeap) Less(i, j int) bool  { return h[i].pinfo.Count > h[j].pinfo.Count }
func (h recordHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *recordHeap) Push(x interface{}) { *h = append(*h, x.(buildRecord)) }
func (h *recordHeap) Pop() interface{} {
	old := *h
	n := len(old)
	record := old[n-1]
	*h = old[:n-1]
	return record
}

// The task list shared by all build workers. The active counter tracks
// records that are either queued or being processed; it only reaches zero
// once no worker can produce more records.
type taskList struct {
	mu      sync.Mutex
	records []buildRecord
	active  atomic.Int64
}

func (tl *taskList) push(records ...buildRecord) {
	tl.mu.Lock()
	tl.records = append(tl.records, records...)
	tl.active.Add(int64(len(records)))
	tl.mu.Unlock()
}

func (tl *taskList) pop() (buildRecord, bool) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	n := len(tl.records)
	if n == 0 {
		return buildRecord{}, false
	}
	record := tl.records[n-1]
	tl.records[n-1] = buildRecord{}
	tl.records = tl.records[:n-1]
	return record, true
}

// Build the tree for root using all workers. The largest records are
// expanded on the calling goroutine (with parallel split finding) until
// there is at least one task per worker; the workers then drain the shared
// task list.
func (b *builder) buildParallel(alloc *allocator, root buildRecord) error {
	pending := recordHeap{root}
	for pending.Len() > 0 && pending.Len() < b.cfg.threads {
		task := heap.Pop(&pending).(buildRecord)
		if task.pinfo.Count <= b.cfg.singleThreadThreshold {
			heap.Push(&pending, task)
			break
		}

		var children [N]buildRecord
		numChildren, err := b.createNode(alloc, &task, true, &children)
		if err != nil {
			return err
		}
		for i := 0; i < numChildren; i++ {
			heap.Push(&pending, children[i])
		}
	}

	b.logger.Debugf("dispatching %d top-level tasks to %d workers", pending.Len(), b.cfg.threads)
	b.tasks.push(pending...)

	// Wait() orders all leaf and node writes of the workers before the
	// rotation and layout passes that follow.
	var g errgroup.Group
	for worker := 0; worker < b.cfg.threads; worker++ {
		g.Go(b.worker)
	}
	return g.Wait()
}

// Process tasks until the active counter drops to zero. An empty task list
// with active records means that another worker may still push children,
// so the worker yields and retries.
func (b *builder) worker() error {
	alloc := b.bvh.arena.newAllocator()

	var workerErr error
	for b.tasks.active.Load() > 0 {
		record, ok := b.tasks.pop()
		if !ok {
			runtime.Gosched()
			continue
		}

		if b.failed.Load() {
			record.prims.release()
		} else if err := b.continueBuild(alloc, &record); err != nil {
			b.failed.Store(true)
			if workerErr == nil {
				workerErr = err
			}
		}
		b.tasks.active.Add(-1)
	}
	return workerErr
}

// Finish small records and mark their root as a barrier; expand large
// records by one level and queue their children.
func (b *builder) continueBuild(alloc *allocator, record *buildRecord) error {
	b.stats.parallelTasks.Add(1)

	if record.pinfo.Count < b.cfg.taskSplitThreshold {
		if err := b.finishBuild(alloc, record); err != nil {
			return err
		}
		if b.cfg.spatial && record.dst.IsInner() {
			b.fitBounds(*record.dst)
		}
		for pass := 0; pass < b.cfg.rotationPasses; pass++ {
			b.rotate(*record.dst, record.depth)
		}
		*record.dst = record.dst.SetBarrier()
		return nil
	}

	var children [N]buildRecord
	numChildren, err := b.createNode(alloc, record, false, &children)
	if err != nil {
		return err
	}
	b.tasks.push(children[:numChildren]...)
	return nil
}

package bvh

import "golang.org/x/sync/errgroup"

// Split [0, n) into at most threads contiguous chunks and run fn for each
// chunk on its own goroutine. Blocks until all chunks are processed.
func parallelRange(threads, n int, fn func(chunk, begin, end int)) {
	if threads > n {
		threads = n
	}
	if threads <= 1 {
		if n > 0 {
			fn(0, 0, n)
		}
		return
	}

	var g errgroup.Group
	for chunk := 0; chunk < threads; chunk++ {
		chunk := chunk
		begin := chunk * n / threads
		end := (chunk + 1) * n / threads
		g.Go(func() error {
			fn(chunk, begin, end)
			return nil
		})
	}
	_ = g.Wait()
}

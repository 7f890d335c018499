package lindemann

import "golang.org/x/sync/errgroup"

// chunksPerWorker oversplits the index range so uneven neighbor counts
// balance out across workers.
const chunksPerWorker = 4

// parallelFor runs fn over [0, n) in contiguous chunks on at most workers
// goroutines. Chunks never overlap.
func parallelFor(workers, n, minChunk int, fn func(start, end int)) {
	if workers <= 1 || n <= minChunk {
		fn(0, n)
		return
	}

	chunks := workers * chunksPerWorker
	if n/minChunk < chunks {
		chunks = n / minChunk
	}
	if chunks < 1 {
		chunks = 1
	}
	chunkSize := (n + chunks - 1) / chunks

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	// Workers never return an error; Wait only joins them.
	g.Wait()
}

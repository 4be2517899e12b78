package common

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// GetGrainSize returns a reasonable chunk size for ParallelFor, clamped to
// [minGrainSize, maxGrainSize].
func GetGrainSize(nSamples, minGrainSize, maxGrainSize int) int {
	procs := runtime.GOMAXPROCS(0)
	grainPerProc := nSamples / procs
	if grainPerProc < minGrainSize {
		return minGrainSize
	}
	if grainPerProc > maxGrainSize {
		return maxGrainSize
	}
	return grainPerProc
}

// ParallelFor calls f over [0, n) in chunks of at most grain indices. Chunks
// are handed out to GOMAXPROCS workers; f must be safe for concurrent use on
// disjoint ranges.
func ParallelFor(n, grain int, f func(start, end int)) {
	if n <= 0 {
		return
	}
	if grain < 1 {
		grain = 1
	}
	workers := runtime.GOMAXPROCS(0)
	if chunks := (n + grain - 1) / grain; chunks < workers {
		workers = chunks
	}
	var next int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for p := 0; p < workers; p++ {
		go func() {
			defer wg.Done()
			for {
				start := int(atomic.AddInt64(&next, int64(grain))) - grain
				if start >= n {
					return
				}
				end := start + grain
				if end > n {
					end = n
				}
				f(start, end)
			}
		}()
	}
	wg.Wait()
}

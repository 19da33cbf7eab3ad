// Package parallel provides a chunked parallel-for used to fan out
// read-only inference over a dataset.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Config controls how For splits work.
type Config struct {
	NumWorkers   int // Upper bound on goroutines; 1 or less runs sequentially.
	MinChunkSize int // Minimum items per goroutine.
}

// DefaultConfig sizes the pool from the physical core count reported by
// cpuid, falling back to runtime.NumCPU when detection fails.
func DefaultConfig() Config {
	return Config{
		NumWorkers:   Workers(),
		MinChunkSize: 256, // One forward pass is ~100k flops; smaller chunks are not worth a goroutine.
	}
}

// Workers returns the number of workers DefaultConfig uses.
func Workers() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// chunks returns how many goroutines For starts for n items.
func (c Config) chunks(n int) int {
	if n <= 0 {
		return 0
	}
	k := min(max(c.NumWorkers, 1), n)
	if c.MinChunkSize > 0 {
		k = min(k, n/c.MinChunkSize)
	}
	return max(k, 1)
}

// For calls f(i) for every i in [0, n), splitting the range into contiguous
// chunks of near-equal size. With a single chunk f runs on the calling
// goroutine in index order. f must be safe to call concurrently for
// distinct i.
func For(n int, f func(i int), cfg Config) {
	k := cfg.chunks(n)
	if k <= 1 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(k)
	for c := 0; c < k; c++ {
		lo, hi := c*n/k, (c+1)*n/k
		go func() {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				f(i)
			}
		}()
	}
	wg.Wait()
}

package flux

import (
	"context"
	"math/rand/v2"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

func workerCount(workers, n int) int {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	return max(workers, 1)
}

// fanOut runs events [0, n) over the given number of workers. Worker w
// handles events w, w+workers, ... with its own generator seeded from
// (seed, w), so results only depend on the seed and the worker count.
func fanOut(ctx context.Context, workers, n int, seed uint64, progress func(int),
	fn func(worker int, rnd *rand.Rand, event int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	var done atomic.Int64
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			rnd := rand.New(rand.NewPCG(seed, uint64(w)))
			for i := w; i < n; i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(w, rnd, i); err != nil {
					return err
				}
				if progress != nil {
					progress(int(done.Add(1)))
				}
			}
			return nil
		})
	}
	return g.Wait()
}

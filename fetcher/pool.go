package fetcher

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/nullbyte-labs/proxyharvest/harvest"
)

// FetchAll downloads every source concurrently, bounded by maxWorkers, and
// returns the pages in no particular order (fetch order is unspecified per
// the pipeline's concurrency model).
func (f *Fetcher) FetchAll(ctx context.Context, srcs []harvest.Source, maxWorkers int) []harvest.FetchedPage {
	if maxWorkers <= 0 {
		maxWorkers = 32
	}

	pool, err := ants.NewPool(maxWorkers)
	if err != nil {
		// Fall back to a tiny pool rather than failing the whole run.
		pool, _ = ants.NewPool(1)
	}
	defer pool.Release()

	pages := make([]harvest.FetchedPage, len(srcs))

	var wg sync.WaitGroup

	for i, src := range srcs {
		i, src := i, src

		wg.Add(1)

		submitErr := pool.Submit(func() {
			defer wg.Done()

			pages[i] = f.Fetch(ctx, src)
		})

		if submitErr != nil {
			wg.Done()

			pages[i] = f.Fetch(ctx, src)
		}
	}

	wg.Wait()

	return pages
}

package dsort

import (
	"context"
	"runtime"

	"github.com/exascience/dsort/comm"
	"golang.org/x/sync/errgroup"
)

// SortLocal sorts a copy of data with Sort, running the given number of
// workers as goroutines connected by in-process endpoints. If workers <= 0,
// runtime.GOMAXPROCS(0) workers are used.
//
// When one worker fails, the others are canceled, and the first error is
// returned.
func SortLocal(ctx context.Context, workers int, data []float64) ([]float64, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]float64, len(data))
	g, ctx := errgroup.WithContext(ctx)
	for _, ep := range comm.NewLocal(workers) {
		ep := ep
		g.Go(func() error {
			defer ep.Close()
			if ep.Rank() == Coordinator {
				return Sort(ctx, ep, len(data), data, out)
			}
			return Sort(ctx, ep, 0, nil, nil)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

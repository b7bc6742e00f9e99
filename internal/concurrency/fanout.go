package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach fans tasks 0..n-1 out over at most limit goroutines and waits
// for all of them. The first error cancels the remaining tasks' context.
func ForEach(ctx context.Context, limit, n int, fn func(ctx context.Context, i int) error) error {
	if limit <= 0 {
		limit = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	return g.Wait()
}

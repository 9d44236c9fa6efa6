package ecs

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelEach calls fn for every entity matching view, spreading the calls
// over at most w.Config().Workers goroutines. The matching set is snapshotted
// before any call runs, and ParallelEach returns once every call has finished.
// The first error cancels the context handed to the remaining calls and is
// returned.
//
// fn receives the view's pointers and may write through them, but calls must
// touch disjoint data and must not create, delete, attach or detach anything.
// Structural changes belong in w.Commands().
func ParallelEach[T any](ctx context.Context, w *World, view *View[T], fn func(ctx context.Context, id EntityId, item T) error) error {
	ids, items := view.Collect()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.Workers)

	for i := range ids {
		id, item := ids[i], items[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, id, item)
		})
	}
	return g.Wait()
}

package discovery

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// branch is the outcome of one fan-out branch: a value, or a skip reason.
// Modeling the lossy merge explicitly keeps the intentional
// swallow-and-continue traversal independently testable.
type branch[T any] struct {
	value   T
	skipped bool
	reason  error
}

func ok[T any](v T) branch[T] {
	return branch[T]{value: v}
}

func skipped[T any](reason error) branch[T] {
	var zero T
	return branch[T]{value: zero, skipped: true, reason: reason}
}

// fanOut runs fn over items concurrently and returns one branch per item,
// in item order. A failing branch never cancels its siblings; fn reports
// failure through the returned branch, so the group itself never errors.
func fanOut[In, Out any](ctx context.Context, items []In, fn func(context.Context, In) branch[Out]) []branch[Out] {
	results := make([]branch[Out], len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			results[i] = fn(gctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// values collects the values of the non-skipped branches, in branch order.
func values[T any](branches []branch[T]) []T {
	out := make([]T, 0, len(branches))
	for _, b := range branches {
		if !b.skipped {
			out = append(out, b.value)
		}
	}
	return out
}

package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run calls fn for every input concurrently and returns the results in input
// order. Every input reaches fn. The first error cancels the context handed
// to the other calls and is returned alone; no partial results are returned.
func Run[In, Out any](ctx context.Context, inputs []In, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	return RunLimit(ctx, -1, inputs, fn)
}

// RunLimit is Run with at most limit calls in flight. A negative limit means
// no bound.
func RunLimit[In, Out any](ctx context.Context, limit int, inputs []In, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(inputs))
	if len(inputs) == 0 {
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, in := range inputs {
		g.Go(func() error {
			res, err := fn(gctx, in)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

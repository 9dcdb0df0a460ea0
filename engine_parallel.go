package pycompleter

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BuildFiles builds each file independently and returns the results in the
// order of paths. With parallel mode on (the default) builds run on a
// worker pool bounded by the CPU count; the first failure cancels the rest.
func (e *Engine) BuildFiles(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))
	if !e.useParallel {
		for i, path := range paths {
			res, err := e.Build(ctx, Request{Path: path})
			if err != nil {
				return nil, fmt.Errorf("build %s: %w", path, err)
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(runtime.NumCPU(), len(paths))))
	for i, path := range paths {
		g.Go(func() error {
			res, err := e.Build(gctx, Request{Path: path})
			if err != nil {
				return fmt.Errorf("build %s: %w", path, err)
			}
			// Each goroutine owns its own slot.
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Debug().Int("files", len(paths)).Msg("parallel build complete")
	return results, nil
}

package rename

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/filechanger/filechanger/pkg/model"
	"github.com/filechanger/filechanger/pkg/progress"
)

// runParallel fans the entries out over at most Workers goroutines. Each
// task writes only its own slot of outcomes. All tasks share the executor's
// Recorder, whose sink serialises lines.
func (e *Executor) runParallel(ctx context.Context, paths []string, prog *progress.Progress) ([]model.Outcome, error) {
	outcomes := make([]model.Outcome, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if !e.opts.FailFast {
		// Failures are reported through outcomes only, so the group context
		// is never cancelled by a sibling.
		gctx = ctx
	}
	g.SetLimit(e.opts.Workers)

	for i, path := range paths {
		g.Go(func() error {
			out, skipped := e.excluded(path, model.ActionDirectoryFile)
			if !skipped {
				out = e.safeRenameEntry(gctx, path, model.ActionDirectoryFile)
			}
			outcomes[i] = out
			prog.Increment(filepath.Base(path))
			if out.Err != nil && !out.Skipped && e.opts.FailFast {
				return out.Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, ctx.Err()
}

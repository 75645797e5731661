// Package rename applies the filename shift to a single file or to every
// entry of a directory.
package rename

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/filechanger/filechanger/pkg/errclass"
	"github.com/filechanger/filechanger/pkg/fsutil"
	"github.com/filechanger/filechanger/pkg/logging"
	"github.com/filechanger/filechanger/pkg/metrics"
	"github.com/filechanger/filechanger/pkg/model"
	"github.com/filechanger/filechanger/pkg/pathutil"
	"github.com/filechanger/filechanger/pkg/progress"
	"github.com/filechanger/filechanger/pkg/shift"
)

// Recorder receives one call per completed rename.
type Recorder interface {
	Record(action, oldName, newName string)
}

type nopRecorder struct{}

func (nopRecorder) Record(action, oldName, newName string) {}

// Options configures an Executor.
type Options struct {
	Strategy model.Strategy
	// Workers bounds the parallel strategy. Zero means GOMAXPROCS.
	Workers int
	// FailFast stops a batch at the first failed rename.
	FailFast bool
	// IncludeExtension shifts the whole name instead of the stem only.
	IncludeExtension bool
	// Exclude reports directory entries that must be left alone.
	Exclude func(path string) bool
	// Progress is called after every entry of a directory batch.
	Progress progress.Callback
}

// Executor performs renames and reports them to a Recorder.
type Executor struct {
	opts  Options
	audit Recorder
	log   *logging.Logger
	stats *metrics.Registry
	shift func(string) string
}

// New creates an Executor. A nil log discards diagnostics.
func New(opts Options, rec Recorder, log *logging.Logger) *Executor {
	if opts.Strategy == "" {
		opts.Strategy = model.StrategySequential
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = logging.Discard()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	fn := shift.Filename
	if opts.IncludeExtension {
		fn = shift.Name
	}
	return &Executor{
		opts:  opts,
		audit: rec,
		log:   log,
		stats: metrics.NewRegistry(),
		shift: fn,
	}
}

// Stats returns the counters accumulated so far.
func (e *Executor) Stats() metrics.Summary {
	return e.stats.Snapshot()
}

// TargetName returns the name a base name is renamed to.
func (e *Executor) TargetName(name string) string {
	return e.shift(name)
}

// RenameOne renames the regular file at path to its shifted sibling.
// Validation failures are returned before anything is touched; the returned
// Outcome carries the same error as the second result.
func (e *Executor) RenameOne(ctx context.Context, path string) (model.Outcome, error) {
	if _, err := pathutil.RequireFile(path); err != nil {
		return model.Outcome{OldPath: path, Action: model.ActionSingleFile, Err: err}, err
	}
	out := e.safeRenameEntry(ctx, path, model.ActionSingleFile)
	return out, out.Err
}

// RenameAll renames every immediate entry of dir. The listing is read in
// full before the first rename. Outcomes are returned in listing order
// whatever the strategy.
//
// Without FailFast a failed entry does not stop the batch and the returned
// error is nil; callers inspect the outcomes. With FailFast the first
// failure is returned and later entries are not attempted.
func (e *Executor) RenameAll(ctx context.Context, dir string) ([]model.Outcome, error) {
	if _, err := pathutil.RequireDir(dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errclass.ErrTargetNotFound.Wrap(err, "list "+dir)
	}

	paths := make([]string, len(entries))
	for i, entry := range entries {
		paths[i] = filepath.Join(dir, entry.Name())
	}

	log := e.log.WithFields(map[string]any{"dir": dir, "strategy": string(e.opts.Strategy)})
	log.Debug("batch start", map[string]any{"entries": len(paths), "workers": e.opts.Workers})

	prog := progress.New("Renaming", len(paths), e.opts.Progress)
	if e.opts.Strategy == model.StrategyParallel {
		return e.runParallel(ctx, paths, prog)
	}
	return e.runSequential(ctx, paths, prog)
}

func (e *Executor) runSequential(ctx context.Context, paths []string, prog *progress.Progress) ([]model.Outcome, error) {
	outcomes := make([]model.Outcome, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out, skipped := e.excluded(path, model.ActionDirectoryFile)
		if !skipped {
			out = e.safeRenameEntry(ctx, path, model.ActionDirectoryFile)
		}
		outcomes = append(outcomes, out)
		prog.Increment(filepath.Base(path))
		if out.Err != nil && e.opts.FailFast {
			return outcomes, out.Err
		}
	}
	return outcomes, nil
}

// excluded reports whether path is on the exclusion list, returning the
// skipped outcome when it is.
func (e *Executor) excluded(path string, action model.Action) (model.Outcome, bool) {
	if e.opts.Exclude == nil || !e.opts.Exclude(path) {
		return model.Outcome{}, false
	}
	e.stats.RecordSkip()
	e.log.Debug("skipped excluded entry", map[string]any{"path": path})
	return model.Outcome{OldPath: path, Action: action, Skipped: true}, true
}

// renameEntry renames path to its shifted sibling and records it.
func (e *Executor) renameEntry(ctx context.Context, path string, action model.Action) model.Outcome {
	out := model.Outcome{OldPath: path, Action: action}

	if err := ctx.Err(); err != nil {
		out.Skipped = true
		out.Err = err
		e.stats.RecordSkip()
		return out
	}

	newName := e.shift(filepath.Base(path))
	if err := pathutil.ValidateBaseName(newName); err != nil {
		return e.fail(out, err)
	}
	out.NewPath = filepath.Join(filepath.Dir(path), newName)

	if err := fsutil.RenameNoClobber(out.OldPath, out.NewPath); err != nil {
		return e.fail(out, errclass.ErrRenameFailed.Wrap(err, ""))
	}

	e.audit.Record(string(action), out.OldPath, out.NewPath)
	e.stats.RecordRename(true)
	if e.log.Enabled(logging.LevelTrace) {
		e.log.Trace("renamed", map[string]any{"old_name": out.OldPath, "new_name": out.NewPath})
	}
	return out
}

// safeRenameEntry turns a panic during one rename into an Unexpected outcome
// so that a single entry cannot take the batch down.
func (e *Executor) safeRenameEntry(ctx context.Context, path string, action model.Action) (out model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = e.fail(model.Outcome{OldPath: path, Action: action},
				errclass.ErrUnexpected.WithMessagef("panic renaming %s: %v", path, r))
		}
	}()
	return e.renameEntry(ctx, path, action)
}

func (e *Executor) fail(out model.Outcome, err error) model.Outcome {
	out.Err = err
	e.stats.RecordRename(false)
	e.log.ErrorErr(fmt.Sprintf("rename %s failed", out.OldPath), err, map[string]any{
		"old_name": out.OldPath,
		"new_name": out.NewPath,
	})
	return out
}

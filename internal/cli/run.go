package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/filechanger/filechanger/internal/audit"
	"github.com/filechanger/filechanger/internal/rename"
	"github.com/filechanger/filechanger/pkg/color"
	"github.com/filechanger/filechanger/pkg/config"
	"github.com/filechanger/filechanger/pkg/errclass"
	"github.com/filechanger/filechanger/pkg/logging"
	"github.com/filechanger/filechanger/pkg/metrics"
	"github.com/filechanger/filechanger/pkg/model"
	"github.com/filechanger/filechanger/pkg/progress"
	"github.com/filechanger/filechanger/pkg/rotate"
)

// session is everything a rename run needs once configuration is resolved.
type session struct {
	cfg    *config.Config
	log    *logging.Logger
	out    io.Writer
	errOut io.Writer
	silent bool
}

// report logs err at level and prints it unless silenced.
func (s *session) report(level logging.Level, msg string, err error) {
	fields := map[string]any{"code": errclass.Code(err)}
	if level == logging.LevelCritical {
		s.log.CriticalErr(msg, err, fields)
	} else {
		s.log.ErrorErr(msg, err, fields)
	}
	if !s.silent {
		fmtErr(s.errOut, "%s", msg)
	}
}

func (a *app) runShift(cmd *cobra.Command, args []string) error {
	errOut := cmd.ErrOrStderr()

	cfg, err := loadConfig(cmd, &a.flags)
	if err != nil {
		if !a.flags.silent {
			fmtErr(errOut, "%v", err)
		}
		return exitWith(exitCode(err), err)
	}

	sink, err := rotate.Open(cfg.Log.File, cfg.RotateOptions())
	if err != nil {
		if !a.flags.silent {
			fmtErr(errOut, "open log: %v", err)
		}
		return exitWith(ExitFailure, err)
	}
	defer sink.Close()

	log := logging.NewLogger(cfg.LogLevel())
	log.SetOutput(sink)
	if a.flags.silent {
		log.SetFallback(nil)
	} else {
		log.SetFallback(errOut)
	}

	s := &session{
		cfg:    cfg,
		log:    log.WithFields(map[string]any{"run_id": uuid.NewString()}),
		out:    cmd.OutOrStdout(),
		errOut: errOut,
		silent: a.flags.silent,
	}

	single := cmd.Flags().Changed("file")
	var bar *progress.Terminal
	opts := rename.Options{
		Strategy:         cfg.Batch.Strategy,
		Workers:          cfg.Batch.Workers,
		FailFast:         cfg.Batch.FailFast,
		IncludeExtension: cfg.Batch.IncludeExtension,
		Exclude:          logExcluder(sink.Path(), cfg.Log.Backups),
	}
	if a.flags.progress && !single && !a.jsonOutput {
		bar = progress.NewTerminalTo(errOut, "Renaming", true)
		opts.Progress = bar.Callback()
	}
	ex := rename.New(opts, audit.NewLogger(log), s.log)

	if err := a.dispatch(cmd.Context(), s, ex, bar, single); err != nil {
		return exitWith(exitCode(err), err)
	}
	return nil
}

func loadConfig(cmd *cobra.Command, f *runFlags) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errclass.ErrUnexpected.Wrap(err, "get working directory")
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	f.apply(cfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logExcluder keeps a directory batch away from the log file it is writing.
func logExcluder(logFile string, backups int) func(string) bool {
	logPath, err := filepath.Abs(logFile)
	if err != nil {
		return nil
	}
	return func(path string) bool {
		abs, err := filepath.Abs(path)
		return err == nil && rotate.IsBackupOf(logPath, abs, backups)
	}
}

// dispatch runs the selected operation. A panic is converted into an
// Unexpected error and reported like any other fault.
func (a *app) dispatch(ctx context.Context, s *session, ex *rename.Executor, bar *progress.Terminal, single bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errclass.ErrUnexpected.WithMessagef("%v", r)
			s.report(logging.LevelCritical, fmt.Sprintf("An unexpected error occurred: %v", r), err)
		}
	}()

	if single {
		return a.shiftFile(ctx, s, ex)
	}
	return a.shiftDir(ctx, s, ex, bar)
}

func (a *app) shiftFile(ctx context.Context, s *session, ex *rename.Executor) error {
	out, err := ex.RenameOne(ctx, a.flags.file)
	switch {
	case errclass.IsValidation(err):
		s.report(logging.LevelError, fmt.Sprintf("The file %s does not exist or is not a file.", a.flags.file), err)
		return err
	case errors.Is(err, errclass.ErrRenameFailed):
		// The executor has logged the failure already.
		if !s.silent {
			fmtErr(s.errOut, "%v", err)
		}
		return err
	case err != nil:
		s.report(logging.LevelCritical, fmt.Sprintf("An unexpected error occurred: %v", err), err)
		return err
	}

	if a.jsonOutput {
		return outputJSON(s.out, out)
	}
	fmt.Fprintf(s.out, "%s -> %s\n", out.OldPath, color.Path(out.NewPath))
	return nil
}

func (a *app) shiftDir(ctx context.Context, s *session, ex *rename.Executor, bar *progress.Terminal) error {
	outcomes, err := ex.RenameAll(ctx, a.flags.dir)
	if bar != nil {
		bar.Done("")
	}
	if errclass.IsValidation(err) {
		s.report(logging.LevelError, fmt.Sprintf("The directory %s does not exist or is not a directory.", a.flags.dir), err)
		return err
	}

	stats := ex.Stats()
	fields := map[string]any{
		"dir":         a.flags.dir,
		"renamed":     stats.Renamed,
		"failed":      stats.Failed,
		"skipped":     stats.Skipped,
		"duration_ms": stats.Duration.Milliseconds(),
	}
	if stats.Failed > 0 {
		s.log.Warn("batch finished with failures", fields)
	} else {
		s.log.Info("batch finished", fields)
	}

	if err != nil {
		// A fail-fast abort or an interrupt ends the batch early.
		s.report(logging.LevelCritical, fmt.Sprintf("An unexpected error occurred: %v", err), err)
	} else if stats.Failed > 0 && !s.silent {
		for _, o := range outcomes {
			if o.Err != nil && !o.Skipped {
				fmtErr(s.errOut, "%v", o.Err)
			}
		}
	}

	if a.jsonOutput {
		if jerr := outputJSON(s.out, batchResult{Outcomes: outcomes, Summary: stats}); jerr != nil {
			return jerr
		}
	} else {
		printSummary(s.out, stats)
	}

	if err != nil {
		return err
	}
	if stats.Failed > 0 {
		return errclass.ErrRenameFailed.WithMessagef("%d of %d renames failed", stats.Failed, stats.Total())
	}
	return nil
}

type batchResult struct {
	Outcomes []model.Outcome `json:"outcomes"`
	Summary  metrics.Summary `json:"summary"`
}

func printSummary(w io.Writer, s metrics.Summary) {
	line := fmt.Sprintf("Renamed %d of %d entries", s.Renamed, s.Total())
	if s.Failed > 0 {
		line += ", " + color.Error(fmt.Sprintf("%d failed", s.Failed))
	}
	if s.Skipped > 0 {
		line += ", " + color.Warning(fmt.Sprintf("%d skipped", s.Skipped))
	}
	fmt.Fprintf(w, "%s %s\n", line, color.Dim(fmt.Sprintf("(%s)", s.Duration.Round(time.Millisecond))))
}

package cli

import (
	"github.com/spf13/pflag"

	"github.com/filechanger/filechanger/pkg/config"
	"github.com/filechanger/filechanger/pkg/model"
)

// runFlags are the root command's rename flags.
type runFlags struct {
	file       string
	dir        string
	silent     bool
	parallel   bool
	workers    int
	failFast   bool
	includeExt bool
	progress   bool
	logFile    string
	logLevel   string
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.file, "file", "f", "", "path of a single file to shift")
	fs.StringVarP(&f.dir, "dir", "d", "", "directory whose entries are all shifted")
	fs.BoolVarP(&f.silent, "silent", "s", false, "suppress error output (errors are still logged)")
	fs.BoolVar(&f.parallel, "parallel", false, "rename directory entries concurrently")
	fs.IntVarP(&f.workers, "workers", "j", 0, "number of concurrent renames with --parallel (default: number of CPUs)")
	fs.BoolVar(&f.failFast, "fail-fast", false, "stop a directory batch at the first failed rename")
	fs.BoolVar(&f.includeExt, "include-ext", false, "shift the file extension too")
	fs.BoolVar(&f.progress, "progress", false, "show a progress bar for directory batches")
	fs.StringVar(&f.logFile, "log-file", "", "log file path (overrides "+config.EnvLogFile+")")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (overrides "+config.EnvLogLevel+")")
}

// apply overrides cfg with every flag set on the command line.
func (f *runFlags) apply(cfg *config.Config, fs *pflag.FlagSet) {
	if fs.Changed("parallel") {
		if f.parallel {
			cfg.Batch.Strategy = model.StrategyParallel
		} else {
			cfg.Batch.Strategy = model.StrategySequential
		}
	}
	if fs.Changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if fs.Changed("fail-fast") {
		cfg.Batch.FailFast = f.failFast
	}
	if fs.Changed("include-ext") {
		cfg.Batch.IncludeExtension = f.includeExt
	}
	if fs.Changed("log-file") {
		cfg.Log.File = f.logFile
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
}

// Package cli implements the filechanger command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/filechanger/filechanger/pkg/color"
	"github.com/filechanger/filechanger/pkg/errclass"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitValidation = 2
)

// Version is set at build time.
var Version = "dev"

// app holds the state of one command-line invocation.
type app struct {
	flags      runFlags
	jsonOutput bool
	noColor    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "filechanger (-f <file> | -d <dir>)",
		Short: "Shift file or directory names by 1 character to the left",
		Long: `filechanger renames a single file, or every entry of a directory, by moving
each ASCII letter of the name one position back in the alphabet ('a' wraps
to 'z', 'A' to 'Z'). Digits, punctuation and the file extension are kept.

Every rename is appended as a JSON line to a rotating log file
(file_changer.log by default, see FCLOG_NAME and FCLOG_LEVEL).

Examples:
  filechanger -f Bbc.txt              # renames to Aab.txt
  filechanger -d ./photos             # renames every entry of ./photos
  filechanger -d ./photos --parallel  # same, spread over all CPUs
  filechanger history -n 20           # last 20 recorded renames`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(a.noColor)
		},
		RunE: a.runShift,
	}

	rootCmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")
	a.flags.register(rootCmd.Flags())
	rootCmd.MarkFlagsMutuallyExclusive("file", "dir")
	rootCmd.MarkFlagsOneRequired("file", "dir")

	rootCmd.AddCommand(a.newHistoryCmd())
	rootCmd.AddCommand(a.newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command and returns the process exit code.
// An interrupt cancels the batch between renames.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(ctx context.Context, cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and argument errors from cobra itself.
	fmt.Fprintln(stderr, errPrefix()+err.Error())
	return ExitValidation
}

// exitError carries an exit code for an error that has already been
// reported to the user and the log.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

func errPrefix() string {
	if color.Enabled() {
		return color.Error("filechanger:") + " "
	}
	return "filechanger: "
}

func fmtErr(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, errPrefix()+format+"\n", args...)
}

// outputJSON prints v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitCode maps an error class to an exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errclass.IsValidation(err):
		return ExitValidation
	default:
		return ExitFailure
	}
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/filechanger/filechanger/internal/audit"
	"github.com/filechanger/filechanger/pkg/color"
	"github.com/filechanger/filechanger/pkg/config"
	"github.com/filechanger/filechanger/pkg/model"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var (
		limit   int
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded renames",
		Long: `Show renames recorded in the log file and its rotated backups,
oldest first. Diagnostic entries are skipped.

Examples:
  filechanger history              # last 20 renames
  filechanger history -n 0         # every rename still on disk
  filechanger history --json       # machine-readable records`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.Load(cwd)
			if err != nil {
				fmtErr(cmd.ErrOrStderr(), "%v", err)
				return exitWith(exitCode(err), err)
			}
			if cmd.Flags().Changed("log-file") {
				cfg.Log.File = logFile
			}

			records, err := audit.NewReader(cfg.Log.File, cfg.Log.Backups).Tail(limit)
			if err != nil {
				fmtErr(cmd.ErrOrStderr(), "read history: %v", err)
				return exitWith(ExitFailure, err)
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput {
				if records == nil {
					records = []model.AuditRecord{}
				}
				return outputJSON(out, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No renames recorded.")
				return nil
			}
			for _, r := range records {
				fmt.Fprintf(out, "%s  %s -> %s\n", color.Dim(r.Action), r.OldName, color.Path(r.NewName))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of records to show (0 for all)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "log file to read (overrides "+config.EnvLogFile+")")
	return cmd
}

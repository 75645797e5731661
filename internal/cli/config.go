package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/filechanger/filechanger/pkg/config"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <command>",
		Short: "Inspect filechanger configuration",
		Long: `Inspect the configuration resolved from defaults, ` + config.FileName + `,
` + config.DotEnvName + ` and the environment.

Environment variables:
  ` + config.EnvLogLevel + `      log level (TRACE, DEBUG, INFO, WARNING, ERROR, CRITICAL)
  ` + config.EnvLogFile + `       log file path
  ` + config.EnvLogMaxBytes + `  rotate the log past this many bytes
  ` + config.EnvLogBackups + `    number of rotated backups kept
  ` + config.EnvLogCompress + `   gzip rotated backups (true, false)
  ` + config.EnvStrategy + `      directory strategy (sequential, parallel)
  ` + config.EnvWorkers + `       concurrent renames for the parallel strategy`,
		DisableFlagsInUseLine: true,
	}
	cmd.AddCommand(a.newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func (a *app) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
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
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.FileName + " in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			path := filepath.Join(cwd, config.FileName)
			if _, err := os.Stat(path); err == nil && !force {
				err := fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
				fmtErr(cmd.ErrOrStderr(), "%v", err)
				return exitWith(ExitFailure, err)
			}
			if err := config.Save(cwd, config.Default()); err != nil {
				fmtErr(cmd.ErrOrStderr(), "%v", err)
				return exitWith(ExitFailure, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

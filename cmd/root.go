// Package cmd implements the CLI commands for schemacorrect.
//
// This package follows the Cobra command pattern, with each command
// in its own file and a root command that ties them together.
package cmd

import (
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/schemacorrect/schemacorrect/internal/logging"
)

var version = "0.3.0"

var logLevelFlag string

// logger is configured by the root PersistentPreRun and shared by all
// subcommands.
var logger *slog.Logger

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "schemacorrect",
	Short: "Safe, additive database schema correction",
	Long: `Schemacorrect diffs a reference database against a live target and
produces an ordered plan of additive DDL.

It provides:
  • Schema introspection for PostgreSQL, MySQL, SQLite, and libSQL
  • Additive correction plans (create table/column/index, add foreign key)
  • Risk reports for divergences that cannot be applied safely
  • Transactional apply with lock and statement timeouts`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevelFlag)
		if err != nil {
			return err
		}
		logger = logging.New(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level: debug, info, warn, error, critical")

	// Set version from build info if available
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
		if version == "(devel)" {
			version = "dev"
		}
		rootCmd.Version = version
	}
}

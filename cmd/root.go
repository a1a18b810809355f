// =============================================================================
// DIMOB Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   newRootCmd (dimob)
//   ├── newConvertCmd  (dimob convert <file>)
//   ├── newProcessCmd  (dimob process)
//   ├── newValidateCmd (dimob validate <file>)
//   └── newVersionCmd  (dimob version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the main configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/config"
)

// =============================================================================
// INVOCATION STATE
// =============================================================================

// cli holds the state of one invocation: the global flags and what the root
// command loads from them before a subcommand runs. Every call to Run builds
// a fresh command tree around a fresh cli, so nothing leaks between calls.
type cli struct {
	// cfgFile holds the path to the main configuration file.
	cfgFile string

	// verbose forces debug logging.
	verbose bool

	config *config.MainConfig
	logger *slog.Logger
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// newRootCmd builds the base command and attaches every subcommand.
func newRootCmd() *cobra.Command {
	app := &cli{}

	rootCmd := &cobra.Command{
		Use:   "dimob",
		Short: "DIMOB Converter - Turn real-estate sales spreadsheets into DIMOB declarations",
		Long: `DIMOB Converter reads CSV, XLSX or XLS exports of real-estate sales and writes
the fixed-width DIMOB declaration (R01, R02 and one IR line per contract).

Key Features:
  - CSV (any delimiter, UTF-8 or Latin-1), XLSX and XLS input
  - Configurable column layout
  - Check-digit and format validation with advisory warnings
  - Concurrent batch processing with archival and a summary log

Example Usage:
  dimob convert vendas.xlsx -o DIMOB.txt   # Convert one file
  dimob convert vendas.csv -o -            # Write the declaration to stdout
  dimob process                            # Convert every file in the input directory
  dimob validate vendas.csv                # Report findings without converting`,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.initConfig()
		},

		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	// Persistent flags are available to this command and all subcommands.
	rootCmd.PersistentFlags().StringVar(
		&app.cfgFile,
		"config",
		config.DefaultConfigPath,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&app.verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.AddCommand(
		newConvertCmd(app),
		newProcessCmd(app),
		newValidateCmd(app),
		newVersionCmd(),
	)

	return rootCmd
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI with the process arguments and exits non-zero on error.
// This is called by main.main().
func Execute() {
	if err := Run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Run executes the CLI with the given arguments and output streams.
func Run(args []string, stdout, stderr io.Writer) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}

// initConfig loads the main configuration and builds the logger.
func (app *cli) initConfig() error {
	cfg, err := config.LoadMainConfig(app.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	level := cfg.LogLevel
	if app.verbose {
		level = "debug"
	}

	app.config = cfg
	app.logger = config.InitLogger(level, cfg.LogFormat)
	return nil
}

// =============================================================================
// DIMOB Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which converts a single file.
//
// COMMAND USAGE:
//   dimob convert <file> [flags]
//
// FLAGS:
//   -o, --output : Output path. "-" writes to stdout. Without it, a name is
//                  generated from output_format in the output directory.
//
// The input file is never archived by this command.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/converter"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/validation"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/pkg/utils"
)

// newConvertCmd builds the 'convert' command.
func newConvertCmd(app *cli) *cobra.Command {
	var outputPath string

	convertCmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert one CSV, XLSX or XLS file into a DIMOB declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runConvert(cmd, args[0], outputPath)
		},
	}

	convertCmd.Flags().StringVarP(
		&outputPath,
		"output",
		"o",
		"",
		`Output file, or "-" for stdout (default: generated name in the output directory)`,
	)

	return convertCmd
}

// runConvert converts inputPath and reports where the declaration went.
func (app *cli) runConvert(cmd *cobra.Command, inputPath, outputPath string) error {
	if !utils.FileExists(inputPath) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	if outputPath == "-" {
		return app.convertToStdout(cmd, inputPath)
	}

	opts := []converter.Option{converter.WithoutArchive(), converter.WithLogger(app.logger)}
	if outputPath != "" {
		opts = append(opts, converter.WithOutputPath(outputPath))
	} else if err := os.MkdirAll(app.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	result := converter.New(inputPath, app.config, opts...).Run()
	if !result.Success {
		return result.Error
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s -> %s (%d contract(s))\n",
		filepath.Base(inputPath), result.OutputFile, result.Stats.RecordsWritten)
	return nil
}

// convertToStdout writes the declaration to stdout. Findings go to the log.
func (app *cli) convertToStdout(cmd *cobra.Command, inputPath string) error {
	grid, _, err := converter.ReadGrid(inputPath, app.config.Input)
	if err != nil {
		return err
	}

	doc, err := converter.Convert(grid, converter.OptionsFromConfig(app.config))
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", filepath.Base(inputPath), err)
	}

	for _, finding := range doc.Validation.Errors {
		if finding.Severity == validation.SeverityError {
			app.logger.Error("Validation error", "rule", finding.Rule, "finding", finding.Error())
		} else {
			app.logger.Warn("Validation warning", "rule", finding.Rule, "finding", finding.Error())
		}
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), doc.Content)
	return err
}

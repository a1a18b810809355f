// =============================================================================
// DIMOB Converter - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks an input file
// without writing a declaration.
//
// COMMAND USAGE:
//   dimob validate <file> [flags]
//
// FLAGS:
//   --report             : Also write the findings to this file
//   --warnings-as-errors : Fail on warnings as well as errors
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/converter"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/dimobwriter"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/extractor"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/validation"
)

// validateOptions holds the flags of one 'validate' invocation.
type validateOptions struct {
	reportPath       string
	warningsAsErrors bool
}

// newValidateCmd builds the 'validate' command.
func newValidateCmd(app *cli) *cobra.Command {
	var opts validateOptions

	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a CSV, XLSX or XLS file and list its findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runValidate(cmd, args[0], opts)
		},
	}

	validateCmd.Flags().StringVar(&opts.reportPath, "report", "", "Write the findings to this file")
	validateCmd.Flags().BoolVar(&opts.warningsAsErrors, "warnings-as-errors", false, "Fail on warnings as well as errors")

	return validateCmd
}

// runValidate extracts and validates inputPath.
func (app *cli) runValidate(cmd *cobra.Command, inputPath string, opts validateOptions) error {
	out := cmd.OutOrStdout()

	grid, _, err := converter.ReadGrid(inputPath, app.config.Input)
	if err != nil {
		return err
	}

	set, err := extractor.New(extractor.WithLayout(app.config.ExtractorLayout())).Extract(grid)
	if err != nil {
		return err
	}

	validator := validation.NewValidatorWithOptions(validation.ValidationOptions{
		TreatWarningsAsErrors: opts.warningsAsErrors,
		Dates:                 dimobwriter.DateOptions{PreferDayFirst: app.config.PreferDayFirst},
	})
	result := validator.ValidateAll(set)

	fmt.Fprintln(out, validation.FormatErrors(result.Errors))
	fmt.Fprintf(out, "%d contract(s), %d error(s), %d warning(s)\n",
		result.RecordsValidated, result.ErrorCount, result.WarningCount)

	if opts.reportPath != "" {
		if err := validation.WriteErrorLog(result.Errors, inputPath, opts.reportPath); err != nil {
			return err
		}
	}

	if !result.IsValid {
		return fmt.Errorf("%s is not valid", inputPath)
	}
	return nil
}

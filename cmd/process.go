// =============================================================================
// DIMOB Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts every file in the
// input directory.
//
// COMMAND USAGE:
//   dimob process [flags]
//
// FLAGS:
//   --fail-fast  : Stop starting new files after the first failure
//   --keep-input : Leave inputs in the input directory after conversion
//   --retention  : Delete archived files older than this duration
//
// PROCESSING PIPELINE:
//   1. Create the working directories
//   2. Discover input files
//   3. Convert the files concurrently (at most max_concurrency at a time)
//   4. Print the summary and append it to the summary log
//   5. Prune old archives
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/converter"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// processOptions holds the flags of one 'process' invocation.
type processOptions struct {
	failFast  bool
	keepInput bool
	retention time.Duration
}

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// newProcessCmd builds the 'process' command.
func newProcessCmd(app *cli) *cobra.Command {
	var opts processOptions

	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Convert every CSV, XLSX and XLS file in the input directory",
		Long: `The process command scans the input directory for CSV, XLSX and XLS files and
converts each of them into a DIMOB declaration.

Files are converted concurrently and independently: a failure in one file
does not affect the others unless continue_on_error is false or --fail-fast
is given.

On successful processing:
  - The declaration is placed in the output directory
  - The input is moved to the input archive
  - The declaration is copied to the output archive, if one is configured

On error:
  - The input remains in the input directory
  - The error is listed in the summary`,

		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runProcess(cmd, opts)
		},
	}

	processCmd.Flags().BoolVar(
		&opts.failFast,
		"fail-fast",
		false,
		"Stop starting new files after the first failure",
	)

	processCmd.Flags().BoolVar(
		&opts.keepInput,
		"keep-input",
		false,
		"Leave inputs in the input directory after conversion",
	)

	processCmd.Flags().DurationVar(
		&opts.retention,
		"retention",
		0,
		"Delete archived files older than this (e.g. 720h); 0 keeps everything",
	)

	return processCmd
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess converts the input directory and writes the summary.
func (app *cli) runProcess(cmd *cobra.Command, opts processOptions) error {
	out := cmd.OutOrStdout()
	startTime := time.Now()

	// =========================================================================
	// STEP 1: PREPARE DIRECTORIES
	// =========================================================================

	cfg := *app.config
	if opts.keepInput {
		cfg.KeepInput = true
	}
	if opts.failFast {
		cfg.ContinueOnError = false
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	inputFiles, err := files.DiscoverInputFiles()
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No input files found in the input directory.")
		return nil
	}

	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// Each file gets its own Converter. A nil result marks a file that was
	// never started because an earlier failure cancelled the batch.

	results := make([]*converter.Result, len(inputFiles))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.MaxConcurrency)

	for i, file := range inputFiles {
		i, file := i, file
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			result := converter.New(file, &cfg, converter.WithLogger(app.logger)).Run()
			results[i] = &result

			if !result.Success && !cfg.ContinueOnError {
				return fmt.Errorf("%s: %w", filepath.Base(file), result.Error)
			}
			return nil
		})
	}

	groupErr := g.Wait()

	// =========================================================================
	// STEP 4: COLLECT RESULTS AND WRITE SUMMARY
	// =========================================================================

	summary := summarize(inputFiles, results)
	summary.StartTime = startTime
	summary.EndTime = time.Now()

	for _, result := range results {
		if result == nil {
			continue
		}
		if result.Success {
			fmt.Fprintf(out, "  ✓ %s -> %s\n", filepath.Base(result.FilePath), result.OutputFile)
		} else {
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(result.FilePath), result.Error)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, utils.FormatSummary(summary))

	if err := utils.WriteSummaryLog(summary, cfg.SummaryLog); err != nil {
		app.logger.Warn("Failed to write summary log", "path", cfg.SummaryLog, "error", err)
	}

	// =========================================================================
	// STEP 5: PRUNE ARCHIVES
	// =========================================================================

	if opts.retention > 0 {
		app.pruneArchives(opts.retention, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	}

	if groupErr != nil {
		return fmt.Errorf("processing stopped: %w", groupErr)
	}
	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// summarize builds the processing summary from the per-file results.
func summarize(inputFiles []string, results []*converter.Result) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{TotalFiles: len(inputFiles)}

	for i, result := range results {
		if result == nil {
			summary.SkippedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    inputFiles[i],
				ErrorMessage: "skipped after an earlier failure",
			})
			continue
		}

		summary.ValidationErrors += result.Stats.ValidationErrors
		summary.ValidationWarnings += result.Stats.ValidationWarnings

		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
			})
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalRecords += result.Stats.RecordsWritten
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   result.FilePath,
			OutputFile:  result.OutputFile,
			ArchivePath: result.ArchivePath,
			Records:     result.Stats.RecordsWritten,
			ProcessTime: result.Stats.ProcessingTime,
		})
	}

	return summary
}

// pruneArchives removes archived files older than the retention period.
func (app *cli) pruneArchives(retention time.Duration, dirs ...string) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		removed, err := utils.CleanOldArchives(dir, retention)
		if err != nil {
			app.logger.Warn("Failed to prune archive", "dir", dir, "error", err)
			continue
		}
		if removed > 0 {
			app.logger.Info("Pruned archive", "dir", dir, "removed", removed)
		}
	}
}

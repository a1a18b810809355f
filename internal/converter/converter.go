// =============================================================================
// DIMOB Converter - Converter Module
// =============================================================================
//
// This module contains the conversion pipeline. Convert turns a decoded grid
// into a DIMOB document; Converter wraps it with the file handling for a
// single input file.
//
// CONVERSION PIPELINE:
//   1. Detect the input format (CSV, XLSX or XLS)
//   2. Decode the input into a grid
//   3. Extract the company header and the contract records
//   4. Validate the records
//   5. Encode the DIMOB document
//   6. Write the output file
//   7. Archive the processed files
//
// CONCURRENCY:
//   A Converter handles exactly one file and shares nothing with other
//   Converters, so a batch can run one per goroutine.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/dimobwriter"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/extractor"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/types"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/validation"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/pkg/utils"
)

// =============================================================================
// CONVERSION
// =============================================================================

// Options controls a single conversion.
type Options struct {
	// Layout locates the header and contract fields in the grid.
	Layout extractor.Layout

	// Dates controls how ambiguous sale dates are read.
	Dates dimobwriter.DateOptions

	// StrictValidation fails the conversion on validation errors instead of
	// logging them.
	StrictValidation bool

	// Now supplies the default calendar year. Nil means time.Now.
	Now func() time.Time
}

// OptionsFromConfig derives conversion options from the main configuration.
func OptionsFromConfig(mainConfig *config.MainConfig) Options {
	return Options{
		Layout:           mainConfig.ExtractorLayout(),
		Dates:            dimobwriter.DateOptions{PreferDayFirst: mainConfig.PreferDayFirst},
		StrictValidation: mainConfig.StrictValidation,
	}
}

// Document is a converted DIMOB declaration.
type Document struct {
	// Content is the CRLF-terminated fixed-width text.
	Content string

	Header types.CompanyHeader

	// Records is the number of IR lines in Content.
	Records int

	// Validation holds the findings for the extracted records.
	Validation *validation.ValidationResult
}

// ValidationFailedError is returned by Convert in strict mode when the
// extracted records have validation errors.
type ValidationFailedError struct {
	Result *validation.ValidationResult
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s)", e.Result.ErrorCount)
}

// Convert extracts, validates and encodes a grid.
//
// RETURNS:
//   - The document.
//   - An *extractor.ExtractionError or *dimobwriter.FormatError unchanged,
//     or a *ValidationFailedError in strict mode.
func Convert(grid types.Grid, opts Options) (*Document, error) {
	extractorOpts := []extractor.Option{extractor.WithLayout(opts.Layout)}
	if opts.Now != nil {
		extractorOpts = append(extractorOpts, extractor.WithClock(opts.Now))
	}

	set, err := extractor.New(extractorOpts...).Extract(grid)
	if err != nil {
		return nil, err
	}

	result := validation.NewValidatorWithOptions(validation.ValidationOptions{
		Dates: opts.Dates,
	}).ValidateAll(set)
	if opts.StrictValidation && result.ErrorCount > 0 {
		return nil, &ValidationFailedError{Result: result}
	}

	content, err := dimobwriter.EncodeRecordSet(set, opts.Dates)
	if err != nil {
		return nil, err
	}

	return &Document{
		Content:    content,
		Header:     set.Header,
		Records:    len(set.Records),
		Validation: result,
	}, nil
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the generated declaration.
	// This is empty if processing failed.
	OutputFile string

	// ArchivePath is where the input was moved, if it was archived.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Format is the detected input format.
	Format Format

	// RowsRead is the number of grid rows decoded, blank rows included.
	RowsRead int

	// RecordsWritten is the number of IR lines in the output.
	RecordsWritten int

	ValidationErrors   int
	ValidationWarnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single input file.
type Converter struct {
	inputPath  string
	mainConfig *config.MainConfig
	files      *utils.FileManager

	// outputPath overrides the generated output name when set.
	outputPath string
	archive    bool
	now        func() time.Time
	logger     Logger
}

// Logger is the logging interface used by the converter. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithOutputPath writes the declaration to path instead of a generated name
// in the output directory.
func WithOutputPath(path string) Option {
	return func(c *Converter) {
		c.outputPath = path
	}
}

// WithoutArchive leaves the input and output files where they are.
func WithoutArchive() Option {
	return func(c *Converter) {
		c.archive = false
	}
}

// WithClock sets the time source for output names and default years.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.now = now
	}
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The path to the CSV, XLSX or XLS file.
//   - mainConfig: The main application configuration.
//   - opts: Optional overrides.
//
// RETURNS:
//   - A new Converter instance.
func New(inputPath string, mainConfig *config.MainConfig, opts ...Option) *Converter {
	c := &Converter{
		inputPath:  inputPath,
		mainConfig: mainConfig,
		files: utils.NewFileManager(
			mainConfig.InputDir,
			mainConfig.OutputDir,
			mainConfig.InputArchiveDir,
			mainConfig.OutputArchiveDir,
		),
		archive: true,
		now:     time.Now,
		logger:  slog.Default(),
	}
	c.files.UseTimestampSubdirs = mainConfig.ArchiveDateSubdirs
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
//
// PROCESSING STEPS:
//   1. Detect the format and decode the grid
//   2. Convert the grid
//   3. Write the output file
//   4. Archive the processed files
func (c *Converter) Run() (result Result) {
	startTime := c.now()
	result = Result{
		FilePath: c.inputPath,
		Success:  false,
	}
	defer func() {
		result.Stats.ProcessingTime = c.now().Sub(startTime)
	}()

	// =========================================================================
	// STEP 1: DECODE INPUT
	// =========================================================================

	c.logger.Info("Processing file", "file", c.inputPath)

	grid, format, err := ReadGrid(c.inputPath, c.mainConfig.Input)
	if err != nil {
		result.Error = err
		return result
	}

	result.Stats.Format = format
	result.Stats.RowsRead = len(grid)
	c.logger.Debug("Decoded input", "format", format, "rows", len(grid))

	// =========================================================================
	// STEP 2: CONVERT
	// =========================================================================
	// Extraction and encoding errors are fatal. Validation findings are
	// logged; they only fail the file under strict validation.

	opts := OptionsFromConfig(c.mainConfig)
	opts.Now = c.now

	doc, err := Convert(grid, opts)
	if err != nil {
		var failed *ValidationFailedError
		if errors.As(err, &failed) {
			c.logFindings(failed.Result)
			result.Stats.ValidationErrors = failed.Result.ErrorCount
			result.Stats.ValidationWarnings = failed.Result.WarningCount
		}
		result.Error = fmt.Errorf("failed to convert %s: %w", filepath.Base(c.inputPath), err)
		return result
	}

	c.logFindings(doc.Validation)
	result.Stats.ValidationErrors = doc.Validation.ErrorCount
	result.Stats.ValidationWarnings = doc.Validation.WarningCount
	result.Stats.RecordsWritten = doc.Records

	// =========================================================================
	// STEP 3: WRITE OUTPUT FILE
	// =========================================================================

	outputPath, err := c.writeOutput(doc.Content)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}

	result.OutputFile = outputPath
	c.logger.Info("Wrote declaration", "output", outputPath, "records", doc.Records)

	// =========================================================================
	// STEP 4: ARCHIVE FILES
	// =========================================================================

	if c.archive {
		archivePath, err := c.archiveFiles(outputPath)
		if err != nil {
			// The declaration exists; a failed archive does not undo it.
			c.logger.Warn("Failed to archive files", "file", c.inputPath, "error", err)
		}
		result.ArchivePath = archivePath
	}

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// logFindings logs validation errors at error level and warnings at warn
// level.
func (c *Converter) logFindings(result *validation.ValidationResult) {
	for _, finding := range result.Errors {
		args := []interface{}{"file", c.inputPath, "rule", finding.Rule, "finding", finding.Error()}
		if finding.Severity == validation.SeverityError {
			c.logger.Error("Validation error", args...)
		} else {
			c.logger.Warn("Validation warning", args...)
		}
	}
}

// writeOutput writes the declaration and returns its path.
//
// NAMING:
//   The output_format setting is expanded with {timestamp}, {date}, {time},
//   {uuid} and {original} (the input name without extension). A name that
//   is already taken gets a numeric suffix.
func (c *Converter) writeOutput(content string) (string, error) {
	if c.outputPath != "" {
		return c.outputPath, writeFile(c.outputPath, content)
	}

	original := strings.TrimSuffix(filepath.Base(c.inputPath), filepath.Ext(c.inputPath))
	fileName := utils.GenerateOutputFileName(c.mainConfig.OutputFormat, c.now(), map[string]string{
		"original": original,
	})

	file, path, err := c.files.CreateOutputFile(fileName)
	if err != nil {
		return "", err
	}

	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return path, nil
}

// archiveFiles moves the input to the input archive unless keep_input is
// set, and copies the output to the output archive when one is configured.
//
// RETURNS:
//   - The archived input path, empty if the input was kept.
func (c *Converter) archiveFiles(outputPath string) (string, error) {
	if _, err := c.files.ArchiveOutputFile(outputPath); err != nil {
		return "", fmt.Errorf("failed to archive output file: %w", err)
	}

	if c.mainConfig.KeepInput {
		return "", nil
	}

	archivePath, err := c.files.ArchiveInputFile(c.inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to archive input file: %w", err)
	}
	return archivePath, nil
}

// =============================================================================
// DIMOB Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults (DefaultConfig)
//   2. Main config file (config.yaml)
//   3. A .env file in the working directory
//   4. DIMOB_* environment variables
//
// A missing config.yaml at the default path is not an error: the defaults
// are used. A missing file at an explicitly requested path is.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/extractor"
)

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = "config.yaml"

// envPrefix prefixes every environment override.
const envPrefix = "DIMOB_"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for CSV, XLSX and XLS files by the process command.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the generated DIMOB files.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after a successful conversion.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated DIMOB file.
	// Empty disables output archiving.
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ArchiveDateSubdirs files archived inputs and outputs under YYYY/MM/DD.
	// Default: false
	ArchiveDateSubdirs bool `yaml:"archive_date_subdirs"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// SummaryLog is the file the process command appends its run summary to.
	// Default: "./logs/summary.log"
	SummaryLog string `yaml:"summary_log"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the slog handler: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat defines the output file name.
	// Placeholders:
	//   {timestamp} - Current time (YYYYMMDDHHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//   {time}      - Current time of day (HHMMSS)
	//   {uuid}      - A random UUID
	//   {original}  - The input file name without extension
	//
	// Default: "DIMOB_{timestamp}.txt"
	OutputFormat string `yaml:"output_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files converted at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps a batch running after a file fails.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error"`

	// StrictValidation fails a conversion when the validator reports errors.
	// Default: false (findings are logged only)
	StrictValidation bool `yaml:"strict_validation"`

	// KeepInput leaves input files in place instead of archiving them.
	// Default: false
	KeepInput bool `yaml:"keep_input"`

	// PreferDayFirst reads ambiguous sale dates such as 03/04/2024 as
	// day/month. Default: false (month first)
	PreferDayFirst bool `yaml:"prefer_day_first"`

	// =========================================================================
	// SOURCE FILE SETTINGS
	// =========================================================================

	// Input controls how CSV and workbook files are decoded.
	Input InputSettings `yaml:"input"`

	// Layout overrides individual positions of the default grid layout.
	Layout LayoutOverrides `yaml:"layout"`
}

// =============================================================================
// INPUT SETTINGS STRUCTURE
// =============================================================================

// InputSettings contains settings for decoding source files.
type InputSettings struct {
	// Delimiter separates CSV fields. Aliases: "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding of CSV files: "UTF-8", "ISO-8859-1" or "Windows-1252".
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// Sheet is the workbook sheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`
}

// =============================================================================
// LAYOUT OVERRIDES STRUCTURE
// =============================================================================

// LayoutOverrides holds optional 0-based positions. Unset fields keep the
// value of extractor.DefaultLayout.
//
// EXAMPLE:
//
//	layout:
//	  sale_value_column: 11
//	  contract_number_columns: [0, 5]
type LayoutOverrides struct {
	HeaderRow    *int `yaml:"header_row"`
	DataStartRow *int `yaml:"data_start_row"`

	CNPJColumn         *int `yaml:"cnpj_column"`
	CalendarYearColumn *int `yaml:"calendar_year_column"`
	CompanyNameColumn  *int `yaml:"company_name_column"`
	TradeNameColumn    *int `yaml:"trade_name_column"`

	OperationTypeColumn     *int `yaml:"operation_type_column"`
	DeveloperDocumentColumn *int `yaml:"developer_document_column"`
	BuyerDocumentColumn     *int `yaml:"buyer_document_column"`
	BuyerNameColumn         *int `yaml:"buyer_name_column"`
	SaleValueColumn         *int `yaml:"sale_value_column"`
	SaleDateColumn          *int `yaml:"sale_date_column"`

	ContractNumberColumns []int `yaml:"contract_number_columns"`
}

// Apply returns layout with every set override applied.
func (o LayoutOverrides) Apply(layout extractor.Layout) extractor.Layout {
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}

	set(&layout.HeaderRow, o.HeaderRow)
	set(&layout.DataStartRow, o.DataStartRow)
	set(&layout.CNPJColumn, o.CNPJColumn)
	set(&layout.CalendarYearColumn, o.CalendarYearColumn)
	set(&layout.CompanyNameColumn, o.CompanyNameColumn)
	set(&layout.TradeNameColumn, o.TradeNameColumn)
	set(&layout.OperationTypeColumn, o.OperationTypeColumn)
	set(&layout.DeveloperDocumentColumn, o.DeveloperDocumentColumn)
	set(&layout.BuyerDocumentColumn, o.BuyerDocumentColumn)
	set(&layout.BuyerNameColumn, o.BuyerNameColumn)
	set(&layout.SaleValueColumn, o.SaleValueColumn)
	set(&layout.SaleDateColumn, o.SaleDateColumn)

	if len(o.ContractNumberColumns) > 0 {
		layout.ContractNumberColumns = append([]int(nil), o.ContractNumberColumns...)
	}

	return layout
}

// ExtractorLayout returns the extractor layout described by this configuration.
func (c *MainConfig) ExtractorLayout() extractor.Layout {
	return c.Layout.Apply(extractor.DefaultLayout())
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *MainConfig {
	config := &MainConfig{ContinueOnError: true}
	applyMainConfigDefaults(config)
	return config
}

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the YAML file. When it equals
//     DefaultConfigPath and the file does not exist, defaults are used.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or a value is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}

	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && configPath == DefaultConfigPath:
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	// Keys present in the file but left empty fall back to defaults too.
	applyMainConfigDefaults(config)

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadEnvFile loads a dotenv file without overriding variables that are
// already set. A missing file is ignored.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.SummaryLog == "" {
		config.SummaryLog = "./logs/summary.log"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.OutputFormat == "" {
		config.OutputFormat = "DIMOB_{timestamp}.txt"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.Input.Delimiter == "" {
		config.Input.Delimiter = ","
	}
	if config.Input.Encoding == "" {
		config.Input.Encoding = "UTF-8"
	}
}

// applyEnvOverrides copies DIMOB_* environment variables over the config.
func applyEnvOverrides(config *MainConfig) error {
	texts := map[string]*string{
		"INPUT_DIR":          &config.InputDir,
		"OUTPUT_DIR":         &config.OutputDir,
		"INPUT_ARCHIVE_DIR":  &config.InputArchiveDir,
		"OUTPUT_ARCHIVE_DIR": &config.OutputArchiveDir,
		"SUMMARY_LOG":        &config.SummaryLog,
		"LOG_LEVEL":          &config.LogLevel,
		"LOG_FORMAT":         &config.LogFormat,
		"OUTPUT_FORMAT":      &config.OutputFormat,
		"CSV_DELIMITER":      &config.Input.Delimiter,
		"CSV_ENCODING":       &config.Input.Encoding,
		"XLSX_SHEET":         &config.Input.Sheet,
	}
	for key, dst := range texts {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"CONTINUE_ON_ERROR":    &config.ContinueOnError,
		"STRICT_VALIDATION":    &config.StrictValidation,
		"KEEP_INPUT":           &config.KeepInput,
		"PREFER_DAY_FIRST":     &config.PreferDayFirst,
		"ARCHIVE_DATE_SUBDIRS": &config.ArchiveDateSubdirs,
	}
	for key, dst := range bools {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = b
	}

	if v, ok := os.LookupEnv(envPrefix + "MAX_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_CONCURRENCY: %w", envPrefix, err)
		}
		config.MaxConcurrency = n
	}

	return nil
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if _, ok := levels[strings.ToLower(config.LogLevel)]; !ok {
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}
	switch strings.ToLower(config.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (expected text or json)", config.LogFormat)
	}
	if strings.ContainsAny(config.OutputFormat, `/\`) {
		return fmt.Errorf("output_format must be a file name, got %q", config.OutputFormat)
	}
	if err := config.ExtractorLayout().Validate(); err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	return nil
}

// EnsureDirectories creates the working directories if they do not exist.
func (c *MainConfig) EnsureDirectories() error {
	dirs := []string{c.InputDir, c.OutputDir, c.InputArchiveDir}
	if c.OutputArchiveDir != "" {
		dirs = append(dirs, c.OutputArchiveDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

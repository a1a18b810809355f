// =============================================================================
// DIMOB Converter - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a conversion:
//   - Input discovery (CSV and spreadsheet files)
//   - Output naming and collision-free creation
//   - Archival of processed inputs and generated declarations
//   - The batch summary log
//   - Archive retention
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after a successful conversion
//   - Output files are copied to output_archive when one is configured
//   - Failed inputs stay where they are so they can be fixed and retried
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InputExtensions are the file extensions picked up by discovery.
var InputExtensions = []string{".csv", ".txt", ".xlsx", ".xls"}

// DefaultOutputExtension is appended to output names that have none.
const DefaultOutputExtension = ".txt"

// maxNameAttempts bounds the search for a free output or archive name.
const maxNameAttempts = 1000

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter. It holds paths
// only and is safe for concurrent use.
type FileManager struct {
	InputDir         string
	OutputDir        string
	InputArchiveDir  string
	OutputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: input_archive/2024/01/15/file.csv
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
// An empty outputArchiveDir disables output archiving.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
	}
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the files of the input directory whose extension
// is one of extensions (case-insensitive), sorted by name. Subdirectories
// and hidden files are skipped. With no extensions, InputExtensions is used.
func (fm *FileManager) DiscoverInputFiles(extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = InputExtensions
	}

	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if hasExtension(name, extensions) {
			files = append(files, filepath.Join(fm.InputDir, name))
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// =============================================================================
// OUTPUT FILES
// =============================================================================

// CreateOutputFile creates name in the output directory. If the name is
// taken, "_2", "_3", ... is inserted before the extension. The file is
// created exclusively, so concurrent conversions never share a file.
//
// RETURNS:
//   - The open file and its path.
func (fm *FileManager) CreateOutputFile(name string) (*os.File, string, error) {
	return createUnique(fm.OutputDir, name)
}

// createUnique creates dir/name, or the first free numbered variant of it.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		candidate := name
		if attempt > 1 {
			candidate = base + "_" + strconv.Itoa(attempt) + ext
		}
		path := filepath.Join(dir, candidate)

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("failed to create %s: %w", path, err)
		}
	}

	return nil, "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

// GenerateOutputFileName expands an output name format.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {timestamp} - YYYYMMDDHHMMSS
//     {date}      - YYYYMMDD
//     {time}      - HHMMSS
//     {uuid}      - A random UUID
//     {key}       - Any key of params, e.g. {original}
//   - now: The generation time.
//   - params: Additional placeholder values.
//
// RETURNS:
//   - The file name. DefaultOutputExtension is appended when the result has
//     no extension.
//
// EXAMPLE:
//
//	format: "DIMOB_{timestamp}.txt"
//	output: "DIMOB_20240115143022.txt"
func GenerateOutputFileName(format string, now time.Time, params map[string]string) string {
	replacements := map[string]string{
		"{timestamp}": now.Format("20060102150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	if strings.Contains(result, "{uuid}") {
		result = strings.ReplaceAll(result, "{uuid}", uuid.New().String())
	}
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if filepath.Ext(result) == "" {
		result += DefaultOutputExtension
	}

	return result
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the input archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails. The input is left in place in that case.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath, err := fm.reserveArchivePath(fm.InputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			os.Remove(archivePath)
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// ArchiveOutputFile copies an output file to the output archive directory.
// It returns "" without error when output archiving is disabled.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if fm.OutputArchiveDir == "" {
		return "", nil
	}

	archivePath, err := fm.reserveArchivePath(fm.OutputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// reserveArchivePath creates an empty placeholder at a free archive path
// for filePath and returns that path.
func (fm *FileManager) reserveArchivePath(archiveDir, filePath string) (string, error) {
	dir := archiveDir
	if fm.UseTimestampSubdirs {
		now := time.Now()
		dir = filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	file, path, err := createUnique(dir, filepath.Base(filePath))
	if err != nil {
		return "", err
	}
	file.Close()

	return path, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	StartTime          time.Time
	EndTime            time.Time
	TotalFiles         int
	SuccessfulFiles    int
	FailedFiles        int
	SkippedFiles       int
	TotalRecords       int
	ValidationErrors   int
	ValidationWarnings int
	ProcessedFiles     []ProcessedFileInfo
	FailedFilesList    []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	ArchivePath string
	Records     int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// FormatSummary renders a processing summary as text.
func FormatSummary(summary ProcessingSummary) string {
	var b strings.Builder

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(&b, "DIMOB Converter - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Files:         %d\n"+
		"  Successful:          %d\n"+
		"  Failed:              %d\n"+
		"  Skipped:             %d\n"+
		"  Contract Records:    %d\n"+
		"  Validation Errors:   %d\n"+
		"  Validation Warnings: %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.SkippedFiles,
		summary.TotalRecords,
		summary.ValidationErrors,
		summary.ValidationWarnings)

	if len(summary.ProcessedFiles) > 0 {
		b.WriteString("Successful Files:\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(&b, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(&b, "  Output:       %s\n", pf.OutputFile)
			if pf.ArchivePath != "" {
				fmt.Fprintf(&b, "  Archived To:  %s\n", pf.ArchivePath)
			}
			fmt.Fprintf(&b, "  Records:      %d\n", pf.Records)
			fmt.Fprintf(&b, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.FailedFilesList) > 0 {
		b.WriteString("Failed Files:\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(&b, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(&b, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	b.WriteString("================================================================================\n" +
		"End of Summary\n")

	return b.String()
}

// WriteSummaryLog appends a processing summary to the log file at path,
// creating the file and its directory when needed.
func WriteSummaryLog(summary ProcessingSummary, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open summary log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	writer.WriteString(FormatSummary(summary))
	writer.WriteString("\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write summary log: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst, replacing dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// CleanOldArchives removes archive files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func CleanOldArchives(archiveDir string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.WalkDir(archiveDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}

// =============================================================================
// DIMOB Converter - Input Handling
// =============================================================================
//
// FORMAT DETECTION:
//   The first bytes of the file decide the format; the extension is only
//   consulted for content without a known signature.
//     PK\x03\x04           -> XLSX (zip container)
//     D0 CF 11 E0 A1 B1 1A E1 -> XLS (compound document, BIFF8)
//     anything else        -> by extension (.csv, .txt, .xlsx, .xls)
//
// =============================================================================

package converter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/csvparser"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/types"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/xlsxparser"
)

// ErrUnsupportedFormat is returned for inputs that are not CSV, XLSX or XLS.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Format identifies an input file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

var (
	zipSignature = []byte("PK\x03\x04")
	oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat inspects a file and reports its format.
//
// RETURNS:
//   - The format.
//   - An error wrapping ErrUnsupportedFormat for unknown extensions, or
//     the I/O error.
func DetectFormat(path string) (Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	head := make([]byte, len(oleSignature))
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, zipSignature):
		return FormatXLSX, nil
	case bytes.HasPrefix(head, oleSignature):
		return FormatXLS, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		// Not a zip container; excelize will report why.
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// ReadGrid detects the format of path and decodes it into a grid.
func ReadGrid(path string, settings config.InputSettings) (types.Grid, Format, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, "", err
	}

	var grid types.Grid
	switch format {
	case FormatXLSX:
		grid, err = xlsxparser.ReadGrid(path, settings.Sheet)
	case FormatXLS:
		grid, err = xlsxparser.ReadXLSGrid(path, settings.Sheet)
	default:
		grid, err = csvparser.ReadGrid(path, settings)
	}
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	return grid, format, nil
}

// writeFile writes content to path, creating the parent directory.
func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

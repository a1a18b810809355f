// =============================================================================
// DIMOB Converter - CSV Parser Module
// =============================================================================
//
// This module turns a delimited text export into a grid of cell values. It
// does not interpret the cells: positions and meaning belong to the
// extractor.
//
// FEATURES:
//   - Configurable delimiter with aliases (tab, pipe, semicolon)
//   - Single-byte encodings (ISO-8859-1, Windows-1252)
//   - UTF-8 byte order mark removal
//   - Rows with varying field counts and sloppy quoting
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/types"
)

// utf8BOM is stripped from the start of UTF-8 input.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadGrid reads a CSV file into a grid.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and encoding from the main configuration.
//
// RETURNS:
//   - The grid, one slice per record, cells untrimmed.
//   - An error if the file cannot be opened, decoded or parsed.
func ReadGrid(filePath string, settings config.InputSettings) (types.Grid, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	grid, err := Parse(file, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	return grid, nil
}

// Parse reads CSV content from r into a grid.
//
// PARSING PROCESS:
//  1. Convert the source encoding to UTF-8
//  2. Drop a leading byte order mark
//  3. Read every record with a lenient csv.Reader
func Parse(r io.Reader, settings config.InputSettings) (types.Grid, error) {
	decoder, err := getDecoder(settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReader(r)
	if decoder == nil {
		if err := skipBOM(reader); err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
	}

	var source io.Reader = reader
	if decoder != nil {
		source = transform.NewReader(reader, decoder.NewDecoder())
	}

	csvReader := csv.NewReader(source)
	if err := configureReader(csvReader, settings); err != nil {
		return nil, err
	}

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return types.Grid(rows), nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.InputSettings) error {
	switch strings.ToLower(settings.Delimiter) {
	case "\\t", "\t", "tab":
		reader.Comma = '\t'
	case "|", "pipe":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	case "", ",", "comma":
		reader.Comma = ','
	default:
		r, size := utf8.DecodeRuneInString(settings.Delimiter)
		if size != len(settings.Delimiter) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
			return fmt.Errorf("unsupported delimiter %q", settings.Delimiter)
		}
		reader.Comma = r
	}

	// Rows may be ragged and quoting loose.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return nil
}

// getDecoder maps an encoding name to a decoder. UTF-8 returns nil.
func getDecoder(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(name, "_", "-")) {
	case "", "UTF-8", "UTF8":
		return nil, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// skipBOM discards a UTF-8 byte order mark at the start of the stream.
func skipBOM(reader *bufio.Reader) error {
	head, err := reader.Peek(len(utf8BOM))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, err = reader.Discard(len(utf8BOM))
		return err
	}
	return nil
}

// =============================================================================
// DIMOB Converter - Fixed-Width Writer
// =============================================================================
//
// This module turns a RecordSet into the DIMOB text document. The document is
// a sequence of CRLF-terminated fixed-width lines:
//
//   R01  company identification               100 characters
//   R02  calendar year                         100 characters
//   IR   one line per contract                 116 characters
//
// FIELD LAYOUTS:
//
//   | Line | Field                | Width | Padding                    |
//   |------|----------------------|-------|----------------------------|
//   | R01  | tag "R01"            | 3     |                            |
//   |      | CNPJ                 | 14    | zeros, left                |
//   |      | company name         | 60    | spaces, right              |
//   |      | filler               | 23    | spaces                     |
//   | R02  | tag "R02"            | 3     |                            |
//   |      | calendar year        | 4     | zeros, left                |
//   |      | filler               | 93    | spaces                     |
//   | IR   | tag "IR"             | 2     |                            |
//   |      | developer document   | 14    | zeros, left                |
//   |      | calendar year        | 4     | zeros, left                |
//   |      | buyer document       | 14    | zeros, left                |
//   |      | buyer name           | 40    | spaces, right              |
//   |      | contract number      | 20    | spaces, right              |
//   |      | sale date YYYYMMDD   | 8     | "00000000" when unknown    |
//   |      | sale value in cents  | 14    | zeros, left                |
//
// WIDTH CHECK:
//   The writer checks line widths in bytes. NormalizeText keeps ASCII
//   whitespace, so a company or buyer name holding a tab or line break
//   still yields a line of the right width. That line passes the check but
//   is not a valid record: a reader splitting on line breaks sees it torn
//   in two. The validator reports such names as control_whitespace.
//
// STATE:
//   Encode is a pure function. A Writer holds the state of exactly one
//   document and must not be shared between conversions; the header data it
//   needs travels in an immutable Context value.
//
// =============================================================================

package dimobwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/types"
)

// =============================================================================
// RECORD LAYOUT CONSTANTS
// =============================================================================

const (
	TagR01 = "R01"
	TagR02 = "R02"
	TagIR  = "IR"

	// LineTerminator ends every line, including the last one.
	LineTerminator = "\r\n"

	// R01Width, R02Width and IRWidth exclude the line terminator.
	R01Width = 100
	R02Width = 100
	IRWidth  = 116

	documentWidth       = 14
	yearWidth           = 4
	companyNameWidth    = 60
	buyerNameWidth      = 40
	contractNumberWidth = 20
	r01FillerWidth      = 23
	r02FillerWidth      = 93
)

// =============================================================================
// ERRORS
// =============================================================================

// FormatError reports structural misuse of the writer: a missing header, a
// header written twice, or a line that does not have its mandated width.
// Bad dates and amounts never produce a FormatError.
type FormatError struct {
	// Record is the record type being written ("R01", "R02", "IR").
	Record string

	// Row is the source row of an IR line, 0 otherwise.
	Row int

	Err error
}

func (e *FormatError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("format error in %s record (row %d): %v", e.Record, e.Row, e.Err)
	}
	return fmt.Sprintf("format error in %s record: %v", e.Record, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CONTEXT
// =============================================================================

// Context carries the header values every line needs. It is a value type;
// build one per document with NewContext.
type Context struct {
	CNPJ         string
	CompanyName  string
	CalendarYear string
	Dates        DateOptions
}

// NewContext builds the immutable context for one document.
func NewContext(header types.CompanyHeader, dates DateOptions) Context {
	return Context{
		CNPJ:         header.CNPJ,
		CompanyName:  header.CompanyName,
		CalendarYear: header.CalendarYear,
		Dates:        dates,
	}
}

// =============================================================================
// LINE BUILDERS
// =============================================================================

// BuildR01 renders the company identification line (without terminator).
func BuildR01(ctx Context) string {
	var b strings.Builder
	b.Grow(R01Width)
	b.WriteString(TagR01)
	b.WriteString(DigitField(ctx.CNPJ, documentWidth))
	b.WriteString(textField(ctx.CompanyName, companyNameWidth))
	b.WriteString(strings.Repeat(" ", r01FillerWidth))
	return b.String()
}

// BuildR02 renders the calendar year line (without terminator).
func BuildR02(ctx Context) string {
	var b strings.Builder
	b.Grow(R02Width)
	b.WriteString(TagR02)
	b.WriteString(DigitField(ctx.CalendarYear, yearWidth))
	b.WriteString(strings.Repeat(" ", r02FillerWidth))
	return b.String()
}

// BuildIR renders one contract line (without terminator). The calendar year
// always comes from the context so every IR line of a document agrees.
func BuildIR(ctx Context, record types.ContractRecord) string {
	var b strings.Builder
	b.Grow(IRWidth)
	b.WriteString(TagIR)
	b.WriteString(DigitField(record.DeveloperDocument, documentWidth))
	b.WriteString(DigitField(ctx.CalendarYear, yearWidth))
	b.WriteString(DigitField(record.BuyerDocument, documentWidth))
	b.WriteString(textField(record.BuyerName, buyerNameWidth))
	b.WriteString(textField(record.ContractNumber, contractNumberWidth))
	b.WriteString(EncodeDate(record.SaleDate, ctx.Dates))
	b.WriteString(EncodeCurrency(record.SaleValue, record.OperationType))
	return b.String()
}

// =============================================================================
// WRITER
// =============================================================================

// Writer streams one DIMOB document to an io.Writer.
//
// USAGE:
//
//	w := dimobwriter.NewWriter(out)
//	if err := w.WriteHeader(dimobwriter.NewContext(header, opts)); err != nil {
//	    return err
//	}
//	for _, rec := range records {
//	    if err := w.WriteRecord(rec); err != nil {
//	        return err
//	    }
//	}
type Writer struct {
	out       io.Writer
	ctx       Context
	hasHeader bool
}

// NewWriter creates a Writer for a single document.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteHeader writes the R01 and R02 lines. It may be called once.
func (w *Writer) WriteHeader(ctx Context) error {
	if w.hasHeader {
		return &FormatError{Record: TagR01, Err: fmt.Errorf("header already written")}
	}

	if err := w.writeLine(TagR01, 0, BuildR01(ctx), R01Width); err != nil {
		return err
	}
	if err := w.writeLine(TagR02, 0, BuildR02(ctx), R02Width); err != nil {
		return err
	}

	w.ctx = ctx
	w.hasHeader = true
	return nil
}

// WriteRecord writes one IR line. The header must have been written first.
func (w *Writer) WriteRecord(record types.ContractRecord) error {
	if !w.hasHeader {
		return &FormatError{Record: TagIR, Row: record.SourceRow, Err: fmt.Errorf("no header written before contract records")}
	}
	return w.writeLine(TagIR, record.SourceRow, BuildIR(w.ctx, record), IRWidth)
}

// writeLine checks the width invariant and writes the line with its terminator.
func (w *Writer) writeLine(tag string, row int, line string, width int) error {
	if len(line) != width {
		return &FormatError{
			Record: tag,
			Row:    row,
			Err:    fmt.Errorf("line is %d bytes, expected %d", len(line), width),
		}
	}

	if _, err := io.WriteString(w.out, line+LineTerminator); err != nil {
		return fmt.Errorf("failed to write %s record: %w", tag, err)
	}

	return nil
}

// =============================================================================
// DOCUMENT ENCODING
// =============================================================================

// Encode renders a complete document with default date options.
//
// PARAMETERS:
//   - header: The company header. A nil header is a FormatError.
//   - records: The contracts, written in order.
//
// RETURNS:
//   - The document text.
//   - A *FormatError for structural problems.
func Encode(header *types.CompanyHeader, records []types.ContractRecord) (string, error) {
	return EncodeWithOptions(header, records, DateOptions{})
}

// EncodeWithOptions is Encode with explicit date parsing options.
func EncodeWithOptions(header *types.CompanyHeader, records []types.ContractRecord, dates DateOptions) (string, error) {
	if header == nil {
		return "", &FormatError{Record: TagR01, Err: fmt.Errorf("no company header present")}
	}

	var buf strings.Builder
	buf.Grow((R01Width + R02Width + len(LineTerminator)*2) + len(records)*(IRWidth+len(LineTerminator)))

	w := NewWriter(&buf)
	if err := w.WriteHeader(NewContext(*header, dates)); err != nil {
		return "", err
	}
	for _, record := range records {
		if err := w.WriteRecord(record); err != nil {
			return "", err
		}
	}

	return buf.String(), nil
}

// EncodeRecordSet encodes an extracted RecordSet.
func EncodeRecordSet(set *types.RecordSet, dates DateOptions) (string, error) {
	if set == nil {
		return EncodeWithOptions(nil, nil, dates)
	}
	return EncodeWithOptions(&set.Header, set.Records, dates)
}

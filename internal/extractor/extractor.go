// =============================================================================
// DIMOB Converter - Record Extractor
// =============================================================================
//
// This module reads the canonical records out of a decoded grid. The source
// spreadsheets have no usable column headers, so every value is read from a
// fixed position.
//
// GRID LAYOUT (after blank rows are removed):
//
//   | Row | Content                                                      |
//   |-----|--------------------------------------------------------------|
//   | 0   | title / boilerplate (ignored)                                |
//   | 1   | company: CNPJ, calendar year, company name, trade name       |
//   | 2   | column captions (ignored)                                    |
//   | 3+  | one contract per row                                         |
//
// CONTRACT COLUMNS (0-based):
//   0  operation type       3  buyer CPF/CNPJ      12  sale value
//   1  developer CNPJ       4  buyer name          13  sale date
//   6, 7, 8  address number / complement / postal code (contract number parts)
//
// =============================================================================

package extractor

import (
	"fmt"
	"strings"
	"time"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/types"
)

// =============================================================================
// ERRORS
// =============================================================================

// ExtractionError reports a grid that cannot hold a DIMOB declaration.
type ExtractionError struct {
	// Row is the 0-based row in the blank-filtered grid, -1 when the error
	// concerns the grid as a whole.
	Row int

	Err error
}

func (e *ExtractionError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("extraction error: %v", e.Err)
	}
	return fmt.Sprintf("extraction error at row %d: %v", e.Row, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// =============================================================================
// LAYOUT CONFIGURATION
// =============================================================================

// Layout defines which rows and columns of the filtered grid hold which data.
// Indices are 0-based.
type Layout struct {
	// HeaderRow is the row holding the company header.
	HeaderRow int

	// DataStartRow is the first contract row. Rows between the header and
	// this one are boilerplate.
	DataStartRow int

	CNPJColumn         int
	CalendarYearColumn int
	CompanyNameColumn  int
	TradeNameColumn    int

	OperationTypeColumn     int
	DeveloperDocumentColumn int
	BuyerDocumentColumn     int
	BuyerNameColumn         int
	SaleValueColumn         int
	SaleDateColumn          int

	// ContractNumberColumns are concatenated, in order, into the contract number.
	ContractNumberColumns []int
}

// DefaultLayout returns the layout of the standard DIMOB spreadsheet.
func DefaultLayout() Layout {
	return Layout{
		HeaderRow:    1,
		DataStartRow: 3,

		CNPJColumn:         0,
		CalendarYearColumn: 1,
		CompanyNameColumn:  2,
		TradeNameColumn:    3,

		OperationTypeColumn:     0,
		DeveloperDocumentColumn: 1,
		BuyerDocumentColumn:     3,
		BuyerNameColumn:         4,
		SaleValueColumn:         12,
		SaleDateColumn:          13,

		ContractNumberColumns: []int{0, 6, 7, 8},
	}
}

// Validate checks that the layout describes a readable grid.
func (l Layout) Validate() error {
	if l.HeaderRow < 0 {
		return fmt.Errorf("header row must not be negative, got %d", l.HeaderRow)
	}
	if l.DataStartRow <= l.HeaderRow {
		return fmt.Errorf("data start row %d must come after header row %d", l.DataStartRow, l.HeaderRow)
	}

	columns := map[string]int{
		"cnpj":               l.CNPJColumn,
		"calendar year":      l.CalendarYearColumn,
		"company name":       l.CompanyNameColumn,
		"trade name":         l.TradeNameColumn,
		"operation type":     l.OperationTypeColumn,
		"developer document": l.DeveloperDocumentColumn,
		"buyer document":     l.BuyerDocumentColumn,
		"buyer name":         l.BuyerNameColumn,
		"sale value":         l.SaleValueColumn,
		"sale date":          l.SaleDateColumn,
	}
	for name, col := range columns {
		if col < 0 {
			return fmt.Errorf("%s column must not be negative, got %d", name, col)
		}
	}
	for _, col := range l.ContractNumberColumns {
		if col < 0 {
			return fmt.Errorf("contract number column must not be negative, got %d", col)
		}
	}
	return nil
}

// requiredHeaderColumns returns the header columns that must exist in the row.
func (l Layout) requiredHeaderColumns() int {
	n := l.CNPJColumn
	for _, c := range []int{l.CalendarYearColumn, l.CompanyNameColumn} {
		if c > n {
			n = c
		}
	}
	return n + 1
}

// =============================================================================
// EXTRACTOR
// =============================================================================

// contractNumberWidth is the maximum length of a synthesized contract number.
const contractNumberWidth = 20

// Extractor reads RecordSets from grids. It holds configuration only and
// can be shared between goroutines.
type Extractor struct {
	layout Layout
	now    func() time.Time
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithLayout overrides the default positional layout.
func WithLayout(layout Layout) Option {
	return func(e *Extractor) {
		e.layout = layout
	}
}

// WithClock sets the clock used to default a blank calendar year.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// New creates an Extractor with the default layout and the system clock.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		layout: DefaultLayout(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads a grid with the default layout.
func Extract(grid types.Grid) (*types.RecordSet, error) {
	return New().Extract(grid)
}

// Extract reads the company header and the contract records from a grid.
//
// PARAMETERS:
//   - grid: The decoded source file.
//
// RETURNS:
//   - The RecordSet, records in source order.
//   - An *ExtractionError if the grid is too small or the header row lacks
//     the required columns.
func (e *Extractor) Extract(grid types.Grid) (*types.RecordSet, error) {
	rows := dropBlankRows(grid)

	minRows := e.layout.DataStartRow + 1
	if e.layout.HeaderRow+1 > minRows {
		minRows = e.layout.HeaderRow + 1
	}
	if len(rows) < minRows {
		return nil, &ExtractionError{
			Row: -1,
			Err: fmt.Errorf("grid has %d non-blank rows, at least %d are required", len(rows), minRows),
		}
	}

	header, err := e.extractHeader(rows[e.layout.HeaderRow])
	if err != nil {
		return nil, &ExtractionError{Row: e.layout.HeaderRow, Err: err}
	}

	records := make([]types.ContractRecord, 0, len(rows)-e.layout.DataStartRow)
	for i := e.layout.DataStartRow; i < len(rows); i++ {
		records = append(records, e.extractContract(rows[i], header.CalendarYear, i))
	}

	return &types.RecordSet{
		Header:  header,
		Records: records,
	}, nil
}

// extractHeader reads the company header row.
func (e *Extractor) extractHeader(row []string) (types.CompanyHeader, error) {
	if required := e.layout.requiredHeaderColumns(); len(row) < required {
		return types.CompanyHeader{}, fmt.Errorf("header row has %d columns, expected at least %d (CNPJ, calendar year, company name)", len(row), required)
	}

	year := cell(row, e.layout.CalendarYearColumn)
	if year == "" {
		year = fmt.Sprintf("%04d", e.now().Year())
	}

	return types.CompanyHeader{
		CNPJ:         cell(row, e.layout.CNPJColumn),
		CalendarYear: year,
		CompanyName:  cell(row, e.layout.CompanyNameColumn),
		TradeName:    cell(row, e.layout.TradeNameColumn),
	}, nil
}

// extractContract reads one contract row. Missing cells become empty strings,
// except the sale value which defaults to "0".
func (e *Extractor) extractContract(row []string, calendarYear string, index int) types.ContractRecord {
	saleValue := "0"
	if e.layout.SaleValueColumn < len(row) {
		saleValue = cell(row, e.layout.SaleValueColumn)
	}

	return types.ContractRecord{
		DeveloperDocument: cell(row, e.layout.DeveloperDocumentColumn),
		CalendarYear:      calendarYear,
		BuyerDocument:     cell(row, e.layout.BuyerDocumentColumn),
		BuyerName:         cell(row, e.layout.BuyerNameColumn),
		ContractNumber:    e.contractNumber(row),
		SaleDate:          cell(row, e.layout.SaleDateColumn),
		SaleValue:         saleValue,
		OperationType:     cell(row, e.layout.OperationTypeColumn),
		SourceRow:         index + 1,
	}
}

// contractNumber builds a stable identifier when the source has no contract
// number column: the configured parts, each reduced to [A-Za-z0-9],
// concatenated and cut to 20 characters.
func (e *Extractor) contractNumber(row []string) string {
	var b strings.Builder
	for _, col := range e.layout.ContractNumberColumns {
		b.WriteString(alphanumeric(cell(row, col)))
	}

	number := b.String()
	if len(number) > contractNumberWidth {
		number = number[:contractNumberWidth]
	}
	return number
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// dropBlankRows removes rows whose cells are all empty after trimming.
func dropBlankRows(grid types.Grid) [][]string {
	rows := make([][]string, 0, len(grid))
	for _, row := range grid {
		if !isRowEmpty(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// alphanumeric keeps only [A-Za-z0-9].
func alphanumeric(value string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, value)
}

// cell safely returns a trimmed cell value.
func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

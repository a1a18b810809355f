// =============================================================================
// DIMOB Converter - Shared Types
// =============================================================================
//
// This package contains the canonical record types shared by the extractor,
// the validator and the DIMOB writer. Keeping them here avoids import cycles:
//   - extractor   produces a RecordSet
//   - validation  inspects a RecordSet
//   - dimobwriter encodes a RecordSet
//
// All values are the raw (trimmed) text read from the source grid. Digit and
// text normalization happens when the records are encoded.
//
// =============================================================================

package types

// =============================================================================
// SOURCE GRID
// =============================================================================

// Grid is a decoded spreadsheet or CSV file, row-major. A row shorter than
// its neighbours simply has no cells in the trailing columns.
type Grid [][]string

// =============================================================================
// CANONICAL RECORDS
// =============================================================================

// CompanyHeader identifies the declaring company. Exactly one header exists
// per document and it is written before any contract.
type CompanyHeader struct {
	// CNPJ is the company's national registry number as found in the source.
	CNPJ string

	// CalendarYear is the year the declaration refers to.
	CalendarYear string

	// CompanyName is the legal name (razao social).
	CompanyName string

	// TradeName is captured for completeness; no record layout uses it.
	TradeName string
}

// ContractRecord is one sale or cancellation reported on an IR line.
type ContractRecord struct {
	// DeveloperDocument is the CNPJ of the developer (loteadora).
	DeveloperDocument string

	// CalendarYear is copied from the CompanyHeader.
	CalendarYear string

	// BuyerDocument is the buyer's CPF or CNPJ.
	BuyerDocument string

	// BuyerName is the buyer's name.
	BuyerName string

	// ContractNumber is synthesized from several source columns and only
	// contains [A-Za-z0-9].
	ContractNumber string

	// SaleDate is the raw date text; it may be empty.
	SaleDate string

	// SaleValue is the raw amount text, e.g. "1.234,56".
	SaleValue string

	// OperationType decides the sign of SaleValue (DISTRATO is negative).
	OperationType string

	// SourceRow is the 1-based row in the blank-filtered grid.
	// Used for error reporting only.
	SourceRow int
}

// RecordSet is the output of extraction and the sole input of encoding.
type RecordSet struct {
	Header  CompanyHeader
	Records []ContractRecord
}

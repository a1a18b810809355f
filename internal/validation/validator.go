// =============================================================================
// DIMOB Converter - Validation Engine
// =============================================================================
//
// This module inspects an extracted RecordSet before it is encoded and
// reports what the fixed-width writer would silently fix, pad or zero out.
//
// The writer never fails on business data: an invalid CPF is still padded,
// an unreadable date still becomes 00000000. The validator is where those
// cases become visible.
//
// SEVERITIES:
//   - "error":   the declaration is very likely to be rejected
//                (invalid CNPJ/CPF, empty buyer name, amount too large)
//   - "warning": the output is well formed but lost information
//                (date or amount fallback, truncated text)
//
// Validation is advisory. The converter only fails a file on errors when
// strict validation is enabled.
//
// =============================================================================

package validation

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/dimobwriter"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Field lengths of the DIMOB layout that text values are cut to.
const (
	companyNameWidth    = 60
	buyerNameWidth      = 40
	contractNumberWidth = 20
	cnpjDigits          = 14
	cpfDigits           = 11
	yearDigits          = 4
)

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the canonical field name, e.g. "buyer_document".
	Field string

	// Value is the raw value that was inspected.
	Value string

	// Rule is the check that produced the finding.
	Rule string

	// Message is a human-readable description.
	Message string

	// RowNumber is the record's SourceRow, 0 for the company header.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	location := "Header"
	if e.RowNumber > 0 {
		location = fmt.Sprintf("Row %d", e.RowNumber)
	}
	return fmt.Sprintf("[%s] %s, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		location,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors (or warnings, when they are
	// treated as errors).
	IsValid bool

	// Errors contains all findings, header first, then records in order.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// RecordsValidated is the number of contract records inspected.
	RecordsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors makes any warning invalidate the result.
	TreatWarningsAsErrors bool

	// Dates must match the options the writer will use.
	Dates dimobwriter.DateOptions
}

// Validator checks RecordSets. It holds no per-run state.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a Validator with default options.
func NewValidator() *Validator {
	return &Validator{}
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateAll checks the header and every record.
func (v *Validator) ValidateAll(set *types.RecordSet) *ValidationResult {
	result := &ValidationResult{
		IsValid: true,
		Errors:  make([]*ValidationError, 0),
	}
	if set == nil {
		return result
	}

	result.RecordsValidated = len(set.Records)

	findings := v.ValidateHeader(set.Header)
	for _, record := range set.Records {
		findings = append(findings, v.ValidateRecord(record)...)
	}

	for _, finding := range findings {
		result.Errors = append(result.Errors, finding)
		if finding.Severity == SeverityError {
			result.ErrorCount++
			result.IsValid = false
			continue
		}
		result.WarningCount++
		if v.options.TreatWarningsAsErrors {
			result.IsValid = false
		}
	}

	return result
}

// ValidateHeader checks the company header.
func (v *Validator) ValidateHeader(header types.CompanyHeader) []*ValidationError {
	var errors []*ValidationError

	if msg := checkCNPJ(header.CNPJ); msg != "" {
		errors = append(errors, newError("company_cnpj", header.CNPJ, "cnpj", msg, 0))
	}

	if digits := dimobwriter.CleanDigits(header.CalendarYear); len(digits) != yearDigits {
		errors = append(errors, newError("calendar_year", header.CalendarYear, "calendar_year",
			fmt.Sprintf("Calendar year must have 4 digits, found %d", len(digits)), 0))
	}

	errors = append(errors, checkText("company_name", header.CompanyName, companyNameWidth, true, 0)...)

	return errors
}

// ValidateRecord checks one contract record.
func (v *Validator) ValidateRecord(record types.ContractRecord) []*ValidationError {
	var errors []*ValidationError
	row := record.SourceRow

	if msg := checkCNPJ(record.DeveloperDocument); msg != "" {
		errors = append(errors, newError("developer_document", record.DeveloperDocument, "cnpj", msg, row))
	}

	if msg := checkBuyerDocument(record.BuyerDocument); msg != "" {
		errors = append(errors, newError("buyer_document", record.BuyerDocument, "cpf_cnpj", msg, row))
	}

	errors = append(errors, checkText("buyer_name", record.BuyerName, buyerNameWidth, true, row)...)

	if dimobwriter.NormalizeText(record.ContractNumber) == "" {
		errors = append(errors, newWarning("contract_number", record.ContractNumber, "required",
			"Contract number is empty", row))
	} else if len(record.ContractNumber) > contractNumberWidth {
		errors = append(errors, newWarning("contract_number", record.ContractNumber, "max_length",
			fmt.Sprintf("Contract number will be cut to %d characters", contractNumberWidth), row))
	}

	if strings.TrimSpace(record.OperationType) == "" {
		errors = append(errors, newWarning("operation_type", record.OperationType, "required",
			"Operation type is empty; the amount is reported as a sale", row))
	}

	if strings.TrimSpace(record.SaleDate) == "" {
		errors = append(errors, newWarning("sale_date", record.SaleDate, "date_fallback",
			"Sale date is empty; written as 00000000", row))
	} else if _, ok := dimobwriter.ParseSaleDate(record.SaleDate, v.options.Dates); !ok {
		errors = append(errors, newWarning("sale_date", record.SaleDate, "date_fallback",
			"Sale date is not a recognizable date; written as 00000000", row))
	}

	errors = append(errors, checkAmount(record, row)...)

	return errors
}

// =============================================================================
// FIELD CHECKS
// =============================================================================

// checkCNPJ returns a message when value is not a valid CNPJ.
func checkCNPJ(value string) string {
	digits := dimobwriter.CleanDigits(value)
	switch {
	case digits == "":
		return "CNPJ is empty"
	case len(digits) != cnpjDigits:
		return fmt.Sprintf("CNPJ must have 14 digits, found %d", len(digits))
	case !ValidCNPJ(digits):
		return "CNPJ check digits do not match"
	}
	return ""
}

// checkBuyerDocument accepts a CPF (11 digits) or a CNPJ (14 digits).
func checkBuyerDocument(value string) string {
	digits := dimobwriter.CleanDigits(value)
	switch len(digits) {
	case 0:
		return "Buyer CPF/CNPJ is empty"
	case cpfDigits:
		if !ValidCPF(digits) {
			return "CPF check digits do not match"
		}
	case cnpjDigits:
		if !ValidCNPJ(digits) {
			return "CNPJ check digits do not match"
		}
	default:
		return fmt.Sprintf("Buyer document must have 11 (CPF) or 14 (CNPJ) digits, found %d", len(digits))
	}
	return ""
}

// checkText reports empty, truncated and control-whitespace text values.
func checkText(field, value string, width int, required bool, row int) []*ValidationError {
	var errors []*ValidationError

	normalized := dimobwriter.NormalizeText(value)
	if normalized == "" {
		if required {
			errors = append(errors, newError(field, value, "required",
				"Value is empty after removing unsupported characters", row))
		}
		return errors
	}

	if len(normalized) > width {
		errors = append(errors, newWarning(field, value, "max_length",
			fmt.Sprintf("Value will be cut to %d characters", width), row))
	}

	if strings.ContainsAny(normalized, "\t\n\v\f\r") {
		errors = append(errors, newWarning(field, value, "control_whitespace",
			"Value contains tabs or line breaks that are kept in the output", row))
	}

	return errors
}

// checkAmount reports amount fallbacks and amounts that overflow the field.
// Both are written as zeros; only the overflow is an error.
func checkAmount(record types.ContractRecord, row int) []*ValidationError {
	_, err := dimobwriter.ParseCents(record.SaleValue, record.OperationType)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dimobwriter.ErrAmountOverflow):
		return []*ValidationError{newError("sale_value", record.SaleValue, "amount_overflow",
			"Sale value does not fit the 14-character amount field; written as zero", row)}
	default:
		return []*ValidationError{newWarning("sale_value", record.SaleValue, "amount_fallback",
			"Sale value is not a recognizable amount; written as zero", row)}
	}
}

func newError(field, value, rule, message string, row int) *ValidationError {
	return &ValidationError{Severity: SeverityError, Field: field, Value: value, Rule: rule, Message: message, RowNumber: row}
}

func newWarning(field, value, rule, message string, row int) *ValidationError {
	return &ValidationError{Severity: SeverityWarning, Field: field, Value: value, Rule: rule, Message: message, RowNumber: row}
}

// =============================================================================
// DOCUMENT NUMBER CHECK DIGITS
// =============================================================================

// ValidCNPJ reports whether a 14-digit string has valid check digits.
// Sequences of a single repeated digit are rejected.
func ValidCNPJ(digits string) bool {
	if len(digits) != cnpjDigits || allSame(digits) {
		return false
	}

	first := checkDigit(digits[:12], []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2})
	second := checkDigit(digits[:13], []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2})

	return int(digits[12]-'0') == first && int(digits[13]-'0') == second
}

// ValidCPF reports whether an 11-digit string has valid check digits.
func ValidCPF(digits string) bool {
	if len(digits) != cpfDigits || allSame(digits) {
		return false
	}

	first := checkDigit(digits[:9], []int{10, 9, 8, 7, 6, 5, 4, 3, 2})
	second := checkDigit(digits[:10], []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2})

	return int(digits[9]-'0') == first && int(digits[10]-'0') == second
}

// checkDigit computes a modulo 11 check digit.
func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	if rest := sum % 11; rest >= 2 {
		return 11 - rest
	}
	return 0
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

// =============================================================================
// REPORTING
// =============================================================================

// FormatErrors formats validation findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes validation findings to a file.
//
// PARAMETERS:
//   - errors: The findings to write.
//   - source: The input file the findings refer to.
//   - filePath: The path to the log file. It is created or truncated.
func WriteErrorLog(errors []*ValidationError, source, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create validation log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Validation report for %s\n", source)
	fmt.Fprintf(writer, "Generated at %s\n\n", time.Now().Format(time.RFC3339))
	writer.WriteString(FormatErrors(errors))

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write validation log: %w", err)
	}
	return nil
}

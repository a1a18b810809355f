// =============================================================================
// DIMOB Converter - Date and Currency Encoding
// =============================================================================
//
// Sale dates and sale values are value-level fields: when they cannot be
// understood they degrade to an all-zero field instead of failing the
// document. The Parse* functions report whether the value was understood so
// the validator can warn about the fallback; the Encode* functions never fail.
//
// =============================================================================

package dimobwriter

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	// DateWidth is the width of an IR sale date (YYYYMMDD).
	DateWidth = 8

	// AmountWidth is the width of an IR sale value in cents.
	AmountWidth = 14

	// MaxPositiveCents and MaxNegativeCents are the largest magnitudes that
	// fit the amount field. A negative amount spends one character on "-".
	MaxPositiveCents = 99999999999999
	MaxNegativeCents = 9999999999999
)

var (
	// ErrAmountInvalid reports a sale value that is empty or not a number.
	ErrAmountInvalid = errors.New("not a recognizable amount")

	// ErrAmountOverflow reports a sale value too large for the amount field.
	ErrAmountOverflow = errors.New("amount does not fit the 14-character field")
)

// cancellationTypes are operation types that always reduce reported totals.
var cancellationTypes = map[string]bool{
	"DISTRATO":        true,
	"CESSAO_DISTRATO": true,
}

var (
	maxPositive = decimal.NewFromInt(MaxPositiveCents)
	maxNegative = decimal.NewFromInt(MaxNegativeCents)
)

// amountChars strips everything that cannot be part of an amount.
var amountChars = regexp.MustCompile(`[^0-9,.\-]`)

// separatedDate matches day-month-year dates written with dashes or dots,
// which are always read day first.
var separatedDate = regexp.MustCompile(`^(\d{1,2})[-.](\d{1,2})[-.](\d{4})$`)

// excelSerial matches a bare day number as stored by spreadsheets.
var excelSerial = regexp.MustCompile(`^\d{5}(\.\d+)?$`)

// =============================================================================
// DATES
// =============================================================================

// DateOptions tune permissive date parsing.
type DateOptions struct {
	// PreferDayFirst reads ambiguous dates such as 03/04/2024 as 3 April
	// instead of March 4.
	PreferDayFirst bool
}

// ParseSaleDate interprets a raw sale date.
//
// ACCEPTED INPUTS:
//   - Spreadsheet day serials (e.g. "45366" for 2024-03-15)
//   - Day-first dates with dashes or dots ("15-03-2024", "03.04.2024"),
//     whatever PreferDayFirst says
//   - Anything github.com/araddon/dateparse understands
//     ("2024-03-15", "15/03/2024", "March 15, 2024", ...)
//
// RETURNS:
//   - The parsed time and true, or the zero time and false.
func ParseSaleDate(raw string, opts DateOptions) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if excelSerial.MatchString(raw) {
		serial, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err == nil {
				return t, validYear(t)
			}
		}
	}

	preferMonthFirst := !opts.PreferDayFirst
	if m := separatedDate.FindStringSubmatch(raw); m != nil {
		raw = m[1] + "/" + m[2] + "/" + m[3]
		preferMonthFirst = false
	}

	t, err := dateparse.ParseAny(raw,
		dateparse.PreferMonthFirst(preferMonthFirst),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil {
		return time.Time{}, false
	}
	return t, validYear(t)
}

// EncodeDate renders a sale date as YYYYMMDD or eight zeros.
func EncodeDate(raw string, opts DateOptions) string {
	t, ok := ParseSaleDate(raw, opts)
	if !ok {
		return strings.Repeat("0", DateWidth)
	}
	return t.Format("20060102")
}

func validYear(t time.Time) bool {
	return t.Year() >= 1 && t.Year() <= 9999
}

// =============================================================================
// AMOUNTS
// =============================================================================

// IsCancellation reports whether an operation type must be reported as a
// negative amount. The comparison is case-insensitive.
func IsCancellation(operationType string) bool {
	return cancellationTypes[strings.ToUpper(strings.TrimSpace(operationType))]
}

// ParseCents converts a raw sale value into a signed number of cents.
//
// PARSING RULES:
//  1. Keep only digits, ",", "." and "-"
//  2. When a comma is present it is the decimal mark and dots are
//     thousands separators ("1.234,56" -> 1234.56)
//  3. Without a comma, a single dot is the decimal mark and repeated dots
//     are thousands separators ("1.234.567" -> 1234567)
//  4. Multiply by 100 and round half away from zero
//  5. Cancellation operation types are forced negative
//
// RETURNS:
//   - The cent count.
//   - ErrAmountInvalid when the value is empty or not a number, or
//     ErrAmountOverflow when it is beyond MaxPositiveCents (MaxNegativeCents
//     for negative amounts).
func ParseCents(raw, operationType string) (int64, error) {
	cleaned := amountChars.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, ErrAmountInvalid
	}

	switch {
	case strings.Contains(cleaned, ","):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case strings.Count(cleaned, ".") > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, ErrAmountInvalid
	}

	scaled := amount.Shift(2).Round(0)
	if IsCancellation(operationType) && scaled.IsPositive() {
		scaled = scaled.Neg()
	}

	if scaled.IsNegative() && scaled.Abs().GreaterThan(maxNegative) {
		return 0, ErrAmountOverflow
	}
	if !scaled.IsNegative() && scaled.GreaterThan(maxPositive) {
		return 0, ErrAmountOverflow
	}

	return scaled.IntPart(), nil
}

// EncodeCurrency renders a sale value as a 14-character cent field.
//
// Positive amounts are zero-padded on the left. Negative amounts put the
// sign first and zero-pad the magnitude: -123456 -> "-0000000123456".
// Amounts that are unparseable or too large for the field become fourteen
// zeros; the validator reports the overflow as an error.
func EncodeCurrency(raw, operationType string) string {
	cents, err := ParseCents(raw, operationType)
	if err != nil {
		return strings.Repeat("0", AmountWidth)
	}

	if cents < 0 {
		magnitude := strconv.FormatInt(-cents, 10)
		return "-" + PadLeft(magnitude, AmountWidth-1, '0')
	}

	return PadLeft(strconv.FormatInt(cents, 10), AmountWidth, '0')
}

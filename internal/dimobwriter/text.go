// =============================================================================
// DIMOB Converter - Text and Digit Normalization
// =============================================================================
//
// The consuming fiscal system only accepts plain ASCII letters, digits and
// spaces. Every free-text field goes through NormalizeText and every
// document/year field goes through CleanDigits before it is padded.
//
// TRANSLITERATION TABLE:
//   The accent table below is the one the declaration files have always been
//   produced with. It must stay byte-for-byte identical, including the
//   entries that look odd (the sharp s maps to a lowercase "s" and several
//   Latin-1 letters such as AE ligatures are not mapped at all and are
//   therefore dropped).
//
// =============================================================================

package dimobwriter

import (
	"strings"
)

// =============================================================================
// TRANSLITERATION TABLE
// =============================================================================

// accentTable maps accented Latin-1 Supplement letters to ASCII.
var accentTable = map[rune]string{
	'À': "A", 'Á': "A", 'Â': "A", 'Ã': "A", 'Ä': "A", 'Å': "A",
	'Ç': "C",
	'È': "E", 'É': "E", 'Ê': "E", 'Ë': "E",
	'Ì': "I", 'Í': "I", 'Î': "I", 'Ï': "I",
	'Ñ': "N",
	'Ò': "O", 'Ó': "O", 'Ô': "O", 'Õ': "O", 'Ö': "O",
	'Ù': "U", 'Ú': "U", 'Û': "U", 'Ü': "U",
	'Ý': "Y",
	'ß': "s",
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a",
	'ç': "c",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'ñ': "n",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ý': "y", 'ÿ': "y",
}

// trimSet is the whitespace removed from both ends of a normalized value.
const trimSet = " \t\n\r\x0B"

// =============================================================================
// NORMALIZATION FUNCTIONS
// =============================================================================

// NormalizeText prepares a free-text value for a DIMOB field.
//
// STEPS:
//  1. Transliterate accented letters through accentTable
//  2. Drop everything outside [A-Za-z0-9] and ASCII whitespace
//  3. Trim surrounding whitespace
//  4. Uppercase
//
// EXAMPLE:
//
//	NormalizeText("São Paulo") == "SAO PAULO"
func NormalizeText(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))

	for _, r := range value {
		if replacement, ok := accentTable[r]; ok {
			builder.WriteString(replacement)
			continue
		}
		if isASCIIAlnum(r) || isASCIISpace(r) {
			builder.WriteRune(r)
		}
	}

	return strings.ToUpper(strings.Trim(builder.String(), trimSet))
}

// CleanDigits keeps only the characters 0-9.
//
// EXAMPLE:
//
//	CleanDigits("12.345.678/0001-99") == "12345678000199"
func CleanDigits(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// isASCIISpace matches ASCII whitespace: space, \t, \n, \v, \f and \r.
// Non-ASCII spaces such as NBSP are dropped.
func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// =============================================================================
// FIXED-WIDTH HELPERS
// =============================================================================

// PadLeft pads a string with a character on the left to reach the target length.
func PadLeft(s string, length int, padChar byte) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-len(s)) + s
}

// PadRight pads a string with a character on the right to reach the target length.
func PadRight(s string, length int, padChar byte) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(string(padChar), length-len(s))
}

// textField normalizes, truncates and space-pads a free-text value.
func textField(value string, width int) string {
	normalized := NormalizeText(value)
	if len(normalized) > width {
		normalized = normalized[:width]
	}
	return PadRight(normalized, width, ' ')
}

// DigitField cleans a value to digits and fits it to width: shorter values
// are zero-padded on the left, longer values keep their rightmost digits.
func DigitField(value string, width int) string {
	digits := CleanDigits(value)
	if len(digits) > width {
		digits = digits[len(digits)-width:]
	}
	return PadLeft(digits, width, '0')
}

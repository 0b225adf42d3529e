package domain

import (
	"math"
	"strconv"
	"strings"
)

var scale = math.Pow(10, Precision)

// Round rounds x to Precision decimal places, half-way cases rounding up
// (towards positive infinity) to absorb binary floating-point noise.
//
// The half is compared against the exact fraction rather than added to x*scale: near 2^52
// the sum itself would round to the next even integer.
func Round(x float64) float64 {
	y := x * scale
	r := math.Floor(y)
	if y-r >= 0.5 {
		r++
	}
	return r / scale
}

// NumberString renders v with the shortest digits that round-trip, using positional
// notation for 1e-6 <= |v| < 1e21 and exponent notation ("1e-7", "1.5e+21") otherwise.
// Negative zero renders as "0".
func NumberString(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}

	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		return trimExponent(strconv.FormatFloat(v, 'e', -1, 64))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseNumber parses a decimal literal produced by the entry methods.
// A trailing point ("5.") is accepted. Unparseable text yields NaN.
func ParseNumber(text string) float64 {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FormatNumber renders v for the display.
func FormatNumber(v float64) string {
	return FormatText(NumberString(v))
}

// FormatText renders an entry literal for the display. Literals longer than
// MaxDisplayLength characters switch to exponent form with ExponentDigits fraction digits.
func FormatText(text string) string {
	if len(text) <= MaxDisplayLength {
		return text
	}
	v := ParseNumber(text)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NumberString(v)
	}
	return trimExponent(strconv.FormatFloat(v, 'e', ExponentDigits, 64))
}

// IsPlainLiteral reports whether text is an editable decimal literal:
// optional sign, digits, at most one point.
func IsPlainLiteral(text string) bool {
	if text == "" {
		return false
	}
	body := strings.TrimPrefix(text, "-")
	if body == "" {
		return false
	}
	dots := 0
	for _, r := range body {
		switch {
		case r == '.':
			dots++
		case r < '0' || r > '9':
			return false
		}
	}
	return dots <= 1
}

// trimExponent drops leading zeros from the exponent ("1e-07" -> "1e-7").
func trimExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 > len(s) {
		return s
	}
	exp := strings.TrimLeft(s[i+2:], "0")
	if exp == "" {
		exp = "0"
	}
	return s[:i+2] + exp
}

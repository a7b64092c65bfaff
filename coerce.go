package tabular

import (
	"strconv"
	"strings"

	"tabular/records"
)

// coerceValue applies the configured type coercion to a tokenized field, in
// priority order: numeric lexical grammar, then case-insensitive booleans,
// otherwise the string itself. Empty fields become nil.
func coerceValue(s string, opt ParseOptions) records.Value {
	if s == "" {
		return nil
	}
	if opt.ParseNumbers && looksNumeric(s) {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	if opt.ParseBooleans {
		switch strings.ToLower(s) {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return s
}

// looksNumeric is a cheap pre-check so ParseFloat is only attempted on
// plausible numbers. It admits an optional sign, digits, one dot, and an
// exponent; it rejects ParseFloat extras like "Inf", "NaN", hex, and
// underscores, which should stay strings in tabular data.
func looksNumeric(s string) bool {
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	digits, dot := 0, false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		case (c == 'e' || c == 'E') && digits > 0 && i+1 < len(s):
			return expDigits(s[i+1:])
		default:
			return false
		}
	}
	return digits > 0
}

func expDigits(s string) bool {
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	if i >= len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

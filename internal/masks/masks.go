// Package masks converts the masked display values typed into the wizard
// (Brazilian locale: "." thousands separator, "," decimal separator, optional
// "R$" prefix) into canonical numbers and back.
package masks

import (
	"strconv"
	"strings"
)

// Digits strips every non-digit rune.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PostalCode normalizes a CEP and reports whether it has exactly 8 digits.
func PostalCode(s string) (string, bool) {
	d := Digits(s)
	return d, len(d) == 8
}

// Present reports whether a masked field holds anything besides whitespace.
func Present(s string) bool {
	return strings.TrimSpace(s) != ""
}

// ParseDecimal parses a locale-formatted number such as "120,00",
// "1.234,5" or "R$ 500.000,00". ok is false for blank or malformed input.
func ParseDecimal(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		case r == '.':
			// thousands separator
		}
	}
	clean := b.String()
	if clean == "" || clean == "-" {
		return 0, false
	}
	if strings.Count(clean, ".") > 1 {
		return 0, false
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Positive returns the parsed value when the field is present and > 0.
func Positive(s string) (float64, bool) {
	v, ok := ParseDecimal(s)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// Optional returns nil for a blank or unparsable field.
func Optional(s string) *float64 {
	v, ok := ParseDecimal(s)
	if !ok {
		return nil
	}
	return &v
}

// FormatDecimal renders v with two decimals in the masked display form,
// e.g. 500000 -> "500.000,00".
func FormatDecimal(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	raw := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, frac, _ := strings.Cut(raw, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// FormatCurrency renders v as "R$ 500.000,00".
func FormatCurrency(v float64) string {
	return "R$ " + FormatDecimal(v)
}

// FormatOptional renders nil as an empty field.
func FormatOptional(v *float64, currency bool) string {
	if v == nil {
		return ""
	}
	if currency {
		return FormatCurrency(*v)
	}
	return FormatDecimal(*v)
}

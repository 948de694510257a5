// Package nationalid normalises and checks the identifiers typed into the
// doctor and patient forms: CPF national IDs and CRM license numbers.
package nationalid

import (
	"regexp"
	"strings"
)

// Length is the number of digits in a canonical national ID.
const Length = 11

var (
	displayPattern = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	barePattern    = regexp.MustCompile(`^\d{11}$`)
	licensePattern = regexp.MustCompile(`^\d{5}-[A-Z]{2}$`)
)

// Digits strips every non-digit rune.
func Digits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format renders an 11-digit ID as XXX.XXX.XXX-XX. Values that do not carry
// exactly 11 digits are returned unchanged.
func Format(value string) string {
	d := Digits(value)
	if len(d) != Length {
		return value
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// Valid reports whether value is an 11-digit ID, bare or in display form.
func Valid(value string) bool {
	value = strings.TrimSpace(value)
	return barePattern.MatchString(value) || displayPattern.MatchString(value)
}

// NormalizeLicense trims and upper-cases a license code.
func NormalizeLicense(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// ValidLicense reports whether value is 5 digits, a dash and a 2-letter state
// suffix. The suffix check is case-insensitive.
func ValidLicense(value string) bool {
	return licensePattern.MatchString(NormalizeLicense(value))
}

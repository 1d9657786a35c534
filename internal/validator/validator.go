// Package validator holds the pure input predicates shared by the
// registration, login and note forms.
package validator

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailRe = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,6}$`)
	// syntactic only: 30/02/2024 passes
	dateRe = regexp.MustCompile(`^(0[1-9]|[12][0-9]|3[01])/(0[1-9]|1[0-2])/\d{4}$`)
)

// CPFLength is the number of digits of a CPF.
const CPFLength = 11

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// NormalizeEmail trims and lower-cases an e-mail address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DigitsOnly drops every non-digit rune from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidCPF checks the digit count only. Check digits are not verified.
func IsValidCPF(cpf string) bool {
	return len(DigitsOnly(cpf)) == CPFLength
}

// IsValidDate accepts dd/mm/yyyy.
func IsValidDate(date string) bool {
	return dateRe.MatchString(date)
}

// IsBlank reports whether s is empty or whitespace only.
func IsBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}

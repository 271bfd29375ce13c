// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "NL"

// Parser parses user input as phone numbers for a fixed default region.
type Parser struct {
	region string
}

// NewParser creates a parser. An empty region falls back to DefaultRegion.
func NewParser(region string) *Parser {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	return &Parser{region: region}
}

// Digits strips every non-digit character.
func Digits(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func (p *Parser) NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, p.region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// QueryDigitVariants returns the digit strings a phone-like query should be
// matched with: the plain digits of the input and, when the input parses as a
// valid number, its national significant number. Inputs containing letters
// are not phone queries and only yield their digits.
func (p *Parser) QueryDigitVariants(input string) []string {
	digits := Digits(input)
	if digits == "" {
		return nil
	}

	variants := []string{digits}
	if hasLetter(input) {
		return variants
	}

	number, err := phonenumbers.Parse(strings.TrimSpace(input), p.region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return variants
	}

	national := strconv.FormatUint(number.GetNationalNumber(), 10)
	if national != "" && national != digits {
		variants = append(variants, national)
	}
	return variants
}

func hasLetter(input string) bool {
	for _, r := range input {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

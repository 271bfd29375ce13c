// Package facets turns distinct attribute values into the canonical option
// lists of filter dropdowns.
package facets

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode is a casing rule applied to facet values.
type Mode string

const (
	ModeLower Mode = "lower"
	ModeUpper Mode = "upper"
	ModeTitle Mode = "title"
	ModeTrim  Mode = "trim"
	// ModeRaw leaves values untouched, surrounding whitespace included. No
	// field maps to it; callers opt in through NormalizeFacetListMode.
	ModeRaw Mode = "raw"
)

var fieldModes = map[string]Mode{
	"language":    ModeLower,
	"email":       ModeLower,
	"status":      ModeLower,
	"countryCode": ModeUpper,
	"currency":    ModeUpper,
	"country":     ModeTitle,
	"city":        ModeTitle,
	"id":          ModeTrim,
	"accountId":   ModeTrim,
	"phoneNumber": ModeTrim,
	"source":      ModeTrim,
	"desk":        ModeTrim,
	"agent":       ModeTrim,
}

// NormalizationModeFor returns the mode of a field key; unmapped keys trim.
func NormalizationModeFor(fieldKey string) Mode {
	if mode, ok := fieldModes[fieldKey]; ok {
		return mode
	}
	return ModeTrim
}

// NormalizeValue stringifies v and applies mode. nil becomes "".
func NormalizeValue(v any, mode Mode) string {
	s := stringify(v)
	if mode == ModeRaw {
		return s
	}

	s = strings.TrimSpace(s)
	switch mode {
	case ModeLower:
		return cases.Lower(language.Und).String(s)
	case ModeUpper:
		return cases.Upper(language.Und).String(s)
	case ModeTitle:
		return titleTokens(s)
	default:
		return s
	}
}

// NormalizeFacetList normalizes raw values with the field's mode, drops
// empties, dedupes and sorts. Applying it to its own output is a no-op.
func NormalizeFacetList(fieldKey string, raw []any) []string {
	return NormalizeFacetListMode(NormalizationModeFor(fieldKey), raw)
}

// NormalizeFacetListMode is NormalizeFacetList with an explicit mode.
func NormalizeFacetListMode(mode Mode, raw []any) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v == nil {
			continue
		}
		s := NormalizeValue(v, mode)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Strings lifts a string slice into raw values.
func Strings(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// titleTokens upper-cases the first letter of every whitespace separated
// token and lower-cases the rest, keeping the whitespace as is.
func titleTokens(s string) string {
	lower := cases.Lower(language.Und)
	var b strings.Builder
	b.Grow(len(s))

	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		token := s[start:end]
		first, size := utf8.DecodeRuneInString(token)
		b.WriteRune(unicode.ToTitle(first))
		b.WriteString(lower.String(token[size:]))
		start = -1
	}
	for i, r := range s {
		if unicode.IsSpace(r) {
			flush(i)
			b.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(s))
	return b.String()
}

// Package sanitize cleans free text typed by users before it reaches matching
// code or logs. This is part of the platform layer and contains no business logic.
package sanitize

import (
	"strings"
	"unicode"
)

// Query drops invalid UTF-8 and control characters from search input. Tabs
// and line breaks become spaces; everything else, including surrounding
// whitespace, is kept as typed.
func Query(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			return -1
		default:
			return r
		}
	}, s)
}

// Package textmatch holds the string primitives of the global search:
// normalization, digit extraction, substring scoring and highlight spans.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"crm_search_backend/platform/phone"
)

// Score tiers returned by ScoreSubstring.
const (
	NoMatch         = -1
	ExactScore      = 100
	prefixBase      = 60
	wordStartBase   = 50
	substringBase   = 40
	maxScorePenalty = 40
)

// NormalizeForCompare lower-cases and trims s. Every textual comparison in
// the search goes through it, on both sides.
func NormalizeForCompare(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ExtractDigits strips every non-digit character.
func ExtractDigits(s string) string {
	return phone.Digits(s)
}

// ScoreSubstring ranks how well needle occurs in haystack. Both are compared
// as given; callers normalize first.
//
//	-1                        needle empty or absent
//	100                       haystack == needle
//	60 - min(len(needle), 40) match at index 0
//	50 - min(index, 40)       match right after whitespace
//	40 - min(index, 40)       any other match
//
// Lengths and indexes count runes.
func ScoreSubstring(haystack, needle string) int {
	if needle == "" {
		return NoMatch
	}
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return NoMatch
	}
	if haystack == needle {
		return ExactScore
	}
	if idx == 0 {
		return prefixBase - min(utf8.RuneCountInString(needle), maxScorePenalty)
	}

	runeIdx := utf8.RuneCountInString(haystack[:idx])
	prev, _ := utf8.DecodeLastRuneInString(haystack[:idx])
	if unicode.IsSpace(prev) {
		return wordStartBase - min(runeIdx, maxScorePenalty)
	}
	return substringBase - min(runeIdx, maxScorePenalty)
}

// Span is one segment of highlighted text.
type Span struct {
	Text        string `json:"text"`
	Highlighted bool   `json:"highlighted"`
}

// HighlightSpans splits text around the first case-insensitive occurrence of
// needle: up to three segments (before, match, after), empty ones omitted.
// Without a match the whole text comes back as one plain segment.
func HighlightSpans(text, needle string) []Span {
	if text == "" {
		return nil
	}
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return []Span{{Text: text}}
	}

	for i := range text {
		end, ok := matchFoldAt(text, i, needle)
		if !ok {
			continue
		}
		spans := make([]Span, 0, 3)
		if i > 0 {
			spans = append(spans, Span{Text: text[:i]})
		}
		spans = append(spans, Span{Text: text[i:end], Highlighted: true})
		if end < len(text) {
			spans = append(spans, Span{Text: text[end:]})
		}
		return spans
	}
	return []Span{{Text: text}}
}

// matchFoldAt reports whether needle matches text at byte offset start under
// simple case folding and returns the byte offset where the match ends.
func matchFoldAt(text string, start int, needle string) (int, bool) {
	pos := start
	for _, nr := range needle {
		if pos >= len(text) {
			return 0, false
		}
		tr, size := utf8.DecodeRuneInString(text[pos:])
		if !equalFold(tr, nr) {
			return 0, false
		}
		pos += size
	}
	return pos, true
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

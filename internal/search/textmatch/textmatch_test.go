package textmatch

import (
	"reflect"
	"testing"
)

func TestScoreSubstringOrdering(t *testing.T) {
	exact := ScoreSubstring("john", "john")
	prefix := ScoreSubstring("johnny", "john")
	word := ScoreSubstring("big john", "john")
	inner := ScoreSubstring("xjohnx", "john")
	missing := ScoreSubstring("jane", "john")

	if exact != 100 {
		t.Fatalf("exact match = %d, want 100", exact)
	}
	if !(exact > prefix && prefix > word && word > inner && inner >= 0) {
		t.Fatalf("expected 100 > %d > %d > %d >= 0", prefix, word, inner)
	}
	if missing != NoMatch {
		t.Fatalf("missing needle = %d, want -1", missing)
	}
	if prefix <= missing || inner <= missing {
		t.Fatal("every match must beat a non-match")
	}
}

func TestScoreSubstringTiers(t *testing.T) {
	cases := []struct {
		haystack, needle string
		want             int
	}{
		{"anything", "", -1},
		{"", "a", -1},
		{"jane doe", "jane doe", 100},
		{"johnny", "john", 56},
		{"johnny", "j", 59},
		{"big john", "john", 46},
		{"xjohnx", "john", 39},
		{"jane@x.com", "x.com", 35},
		{"jane.doe@x.com", "doe", 35},
		{"ana\tlópez", "lópez", 46},
		{"jane@x.com", ".com", 34},
		{"ébc", "bc", 39},
	}
	for _, tc := range cases {
		if got := ScoreSubstring(tc.haystack, tc.needle); got != tc.want {
			t.Errorf("ScoreSubstring(%q, %q) = %d, want %d", tc.haystack, tc.needle, got, tc.want)
		}
	}
}

func TestScoreSubstringCapsPenalty(t *testing.T) {
	haystack := "0123456789012345678901234567890123456789012345 smith"
	if got := ScoreSubstring(haystack, "smith"); got != 10 {
		t.Fatalf("late word match = %d, want 10", got)
	}
	long := "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"
	if got := ScoreSubstring(long+"!", long); got != 20 {
		t.Fatalf("long prefix = %d, want 20", got)
	}
}

func TestNormalizeAndDigits(t *testing.T) {
	if got := NormalizeForCompare("  JaNe Doe \t"); got != "jane doe" {
		t.Fatalf("NormalizeForCompare = %q", got)
	}
	if got := NormalizeForCompare(""); got != "" {
		t.Fatalf("empty input = %q", got)
	}
	if got := ExtractDigits("+1 (555) 123-4567"); got != "15551234567" {
		t.Fatalf("ExtractDigits = %q", got)
	}
}

func TestHighlightSpans(t *testing.T) {
	cases := []struct {
		text, needle string
		want         []Span
	}{
		{"Jane Doe", "doe", []Span{{Text: "Jane "}, {Text: "Doe", Highlighted: true}}},
		{"Jane Doe", "JANE", []Span{{Text: "Jane", Highlighted: true}, {Text: " Doe"}}},
		{"Anna Banana", "an", []Span{{Text: "An", Highlighted: true}, {Text: "na Banana"}}},
		{"Big John Smith", "john", []Span{{Text: "Big "}, {Text: "John", Highlighted: true}, {Text: " Smith"}}},
		{"Jane", "zed", []Span{{Text: "Jane"}}},
		{"Jane", "", []Span{{Text: "Jane"}}},
		{"", "a", nil},
	}
	for _, tc := range cases {
		got := HighlightSpans(tc.text, tc.needle)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("HighlightSpans(%q, %q) = %+v, want %+v", tc.text, tc.needle, got, tc.want)
		}
	}
}

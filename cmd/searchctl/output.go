package main

import (
	"fmt"
	"io"
	"strings"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/search/engine"
	"crm_search_backend/internal/search/textmatch"

	"github.com/fatih/color"
)

var (
	matchColor  = color.New(color.FgYellow, color.Bold)
	leadColor   = color.New(color.FgCyan)
	clientColor = color.New(color.FgGreen)
	dimColor    = color.New(color.Faint)
	errorColor  = color.New(color.FgRed)
	headerColor = color.New(color.Bold)
)

func printError(w io.Writer, format string, args ...any) {
	errorColor.Fprintln(w, "✗ "+fmt.Sprintf(format, args...))
}

func highlight(text, query string) string {
	var b strings.Builder
	for _, span := range textmatch.HighlightSpans(text, query) {
		if span.Highlighted {
			b.WriteString(matchColor.Sprint(span.Text))
			continue
		}
		b.WriteString(span.Text)
	}
	return b.String()
}

func printResult(w io.Writer, rank int, r engine.Result, query string) {
	badge := leadColor
	if r.Type == entities.KindClient {
		badge = clientColor
	}
	fmt.Fprintf(w, "%2d. %s %s", rank, badge.Sprintf("[%s]", r.Badge), highlight(r.Title, query))
	if r.Subtitle != "" {
		fmt.Fprintf(w, " %s", dimColor.Sprint(r.Subtitle))
	}
	fmt.Fprintf(w, " %s\n", dimColor.Sprintf("(%d)", r.Score))
}

package providers

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// CleanText strips markup tags, normalizes to NFC, collapses whitespace runs to a single
// space and trims both ends. Entities are decoded.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = stripMarkup(s)
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, strings.Reader fails in no other way
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

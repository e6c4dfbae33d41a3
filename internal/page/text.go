package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanText collapses every whitespace run (including nbsp) to one space.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// Text is the cleaned text content of the first node in sel.
func Text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return CleanText(sel.First().Text())
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Ellipsize cuts s to n characters and marks the cut with "…".
func Ellipsize(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return Truncate(s, n) + "…"
}

// ContainsFold reports whether s contains sub, ignoring case.
func ContainsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ContainsAny reports whether lower-cased s contains any of the keywords.
func ContainsAny(s string, keywords ...string) bool {
	ls := strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(ls, k) {
			return true
		}
	}
	return false
}

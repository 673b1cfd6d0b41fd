package library

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fold normalises s for case-insensitive matching. NFC first so composed and
// decomposed accents compare equal.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// matchesBook reports whether the folded query occurs in the book's title,
// author or ISBN.
func matchesBook(b Book, foldedQuery string) bool {
	for _, field := range []string{b.Title, b.Author, b.ISBN} {
		if strings.Contains(fold(field), foldedQuery) {
			return true
		}
	}
	return false
}

// Truncate shortens s to at most maxLen runes for fixed-width tables, marking
// the cut with "...". Accents are composed first so a cut never separates a
// letter from its combining mark.
func Truncate(s string, maxLen int) string {
	r := []rune(norm.NFC.String(s))
	if len(r) <= maxLen {
		return string(r)
	}
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}

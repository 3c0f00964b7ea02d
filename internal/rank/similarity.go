package rank

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity is 1 - editDistance/len(longer), compared case-insensitively.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	longer, shorter := a, b
	if utf8.RuneCountInString(b) > utf8.RuneCountInString(a) {
		longer, shorter = b, a
	}
	n := utf8.RuneCountInString(longer)
	if n == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein.ComputeDistance(longer, shorter))/float64(n)
}

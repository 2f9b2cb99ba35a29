package words

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/robalobadob/crossword/internal/grid"
)

// Normalize maps dictionary words and player input onto the board alphabet:
// uppercase A–Z plus the filler marker. Accents are folded (Ç → C, Ã → A),
// spaces and underscores become the filler, anything else is dropped.
func Normalize(s string) string {
	// transform.Chain is stateful, so build one per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToUpper(strings.TrimSpace(folded))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteString(grid.Filler)
		}
	}
	return b.String()
}

// NormalizeLetter normalizes a single submitted letter.
// It returns "" unless the input folds to exactly one A–Z letter.
func NormalizeLetter(s string) string {
	n := Normalize(s)
	if len(n) != 1 || n == grid.Filler {
		return ""
	}
	return n
}

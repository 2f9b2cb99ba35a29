package words

import (
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"
)

// LabelSeparator joins theme names into a session's theme label.
const LabelSeparator = " + "

// Pick selects n themes for a new session.
//
//   - n is clamped to [1, available themes].
//   - If the general theme exists and n > 1, it is always included (first) and
//     the other n-1 are drawn uniformly without replacement from the rest.
//   - Otherwise n themes are drawn uniformly without replacement from all themes.
func (l *Library) Pick(n int, rng *rand.Rand) []string {
	n = max(1, min(n, len(l.themes)))

	if n > 1 && lo.Contains(l.themes, l.general) {
		others := lo.Without(l.themes, l.general)
		shuffle(others, rng)
		return append([]string{l.general}, others[:n-1]...)
	}

	all := l.Themes()
	shuffle(all, rng)
	return all[:n]
}

func shuffle(list []string, rng *rand.Rand) {
	rng.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
}

// Label renders the client-visible theme label.
func Label(themes []string) string {
	return strings.Join(themes, LabelSeparator)
}

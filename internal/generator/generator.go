// internal/generator/generator.go
//
// Constructive crossword placement.
//
// Algorithm:
//   1. Shuffle the candidates, keep the first WordsToPlace, order them
//      longest first (stable, so shuffle order breaks ties).
//   2. Lay the first word across, centred on an oversized working grid.
//   3. For every remaining word, try each (occupied cell, matching letter)
//      anchor in both directions and keep the legal placement with the
//      strictly highest intersection count (first found wins ties).
//      Words with no legal placement are dropped.
//   4. Crop the grid to the bounding box of placed cells and shift words.
//
// The generator keeps no state between calls beyond its random source.

package generator

import (
	"errors"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/robalobadob/crossword/internal/grid"
	"github.com/robalobadob/crossword/internal/words"
)

const (
	DefaultGridSize     = 20
	DefaultWordsToPlace = 15
)

// ErrNoWordsAvailable is returned when the candidate pool is empty.
var ErrNoWordsAvailable = errors.New("no words available for the selected themes")

// Generator builds boards from dictionary entries. It is safe for concurrent use.
type Generator struct {
	size  int
	count int

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithGridSize sets the side of the square working grid.
func WithGridSize(n int) Option { return func(g *Generator) { g.size = n } }

// WithWordCount sets how many candidates are kept after shuffling.
func WithWordCount(n int) Option { return func(g *Generator) { g.count = n } }

// WithRand sets the random source (tests use a seeded one).
func WithRand(r *rand.Rand) Option { return func(g *Generator) { g.rng = r } }

// New constructs a Generator with the default 20×20 grid and 15 words.
func New(opts ...Option) *Generator {
	g := &Generator{
		size:  DefaultGridSize,
		count: DefaultWordsToPlace,
	}
	for _, o := range opts {
		o(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// Generate lays candidates onto a board and returns the cropped board and its
// words sorted by id. An empty candidate list fails with ErrNoWordsAvailable;
// a list with no usable word yields an empty board.
func (g *Generator) Generate(candidates []words.Entry) (grid.Board, []grid.Word, error) {
	if len(candidates) == 0 {
		return nil, nil, ErrNoWordsAvailable
	}
	list := g.selectWords(candidates)
	if len(list) == 0 {
		return grid.Board{}, []grid.Word{}, nil
	}

	p := newPlacer(g.size)

	first := list[0]
	p.place(first, grid.Across, g.size/2, (g.size-len(first.text))/2)

	for _, w := range list[1:] {
		if best, ok := p.bestPlacement(w.text); ok {
			p.place(w, best.dir, best.row, best.col)
		}
	}

	board, placed := p.crop()
	return board, placed, nil
}

// candidate is a normalized dictionary entry.
type candidate struct {
	text string
	clue string
}

// selectWords normalizes, shuffles, truncates and orders the candidates.
func (g *Generator) selectWords(entries []words.Entry) []candidate {
	list := make([]candidate, 0, len(entries))
	for _, e := range entries {
		text := words.Normalize(e.Word)
		if text == "" || len(text) > g.size {
			continue
		}
		list = append(list, candidate{text: text, clue: e.Clue})
	}

	g.mu.Lock()
	g.rng.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
	g.mu.Unlock()

	if len(list) > g.count {
		list = list[:g.count]
	}
	sort.SliceStable(list, func(i, j int) bool { return len(list[i].text) > len(list[j].text) })
	return list
}

package generator

import (
	"github.com/robalobadob/crossword/internal/grid"
)

// placer holds the oversized working grid during one Generate call.
type placer struct {
	size   int
	board  grid.Board
	words  []grid.Word
	nextID int
}

type placement struct {
	dir      grid.Direction
	row, col int
}

func newPlacer(size int) *placer {
	return &placer{size: size, board: grid.NewBoard(size, size), nextID: 1}
}

func step(dir grid.Direction, row, col, i int) (int, int) {
	if dir == grid.Across {
		return row, col + i
	}
	return row + i, col
}

// occupied reports whether (row, col) holds a cell; out of bounds counts as empty.
func (p *placer) occupied(row, col int) bool {
	return p.board.At(row, col) != nil
}

// place writes the word's cells and records it with the next id.
// Cells already present at intersections are replaced by fresh ones.
func (p *placer) place(c candidate, dir grid.Direction, row, col int) {
	for i := range len(c.text) {
		r, cc := step(dir, row, col, i)
		if r < 0 || r >= p.size || cc < 0 || cc >= p.size {
			continue
		}
		p.board[r][cc] = grid.NewLetterCell(string(c.text[i]))
	}
	p.words = append(p.words, grid.Word{
		ID:        p.nextID,
		Clue:      c.clue,
		Direction: dir,
		Start:     grid.Position{Row: row, Col: col},
		Length:    len(c.text),
	})
	p.nextID++
}

// bestPlacement scans every occupied cell for anchors of text and returns the
// legal placement with the strictly highest intersection count.
func (p *placer) bestPlacement(text string) (placement, bool) {
	var best placement
	found := false
	maxHits := -1

	for r := range p.size {
		for c := range p.size {
			cell := p.board[r][c]
			if cell == nil {
				continue
			}
			for i := range len(text) {
				if string(text[i]) != cell.CorrectLetter {
					continue
				}
				for _, cand := range []placement{
					{dir: grid.Across, row: r, col: c - i},
					{dir: grid.Down, row: r - i, col: c},
				} {
					hits := p.intersections(text, cand)
					if hits > maxHits && p.canPlace(text, cand) {
						maxHits = hits
						best = cand
						found = true
					}
				}
			}
		}
	}
	return best, found
}

// intersections counts the cells where text agrees with an existing letter.
func (p *placer) intersections(text string, at placement) int {
	n := 0
	for i := range len(text) {
		r, c := step(at.dir, at.row, at.col, i)
		if cell := p.board.At(r, c); cell != nil && cell.CorrectLetter == string(text[i]) {
			n++
		}
	}
	return n
}

// canPlace checks bounds, letter conflicts, perpendicular adjacency of new
// letter cells, and that the cells just before and after the word are empty.
func (p *placer) canPlace(text string, at placement) bool {
	n := len(text)
	if at.row < 0 || at.col < 0 {
		return false
	}
	if at.dir == grid.Across && at.col+n > p.size {
		return false
	}
	if at.dir == grid.Down && at.row+n > p.size {
		return false
	}

	for i := range n {
		r, c := step(at.dir, at.row, at.col, i)
		letter := string(text[i])
		existing := p.board[r][c]
		crossing := existing != nil && existing.CorrectLetter == letter
		if existing != nil && !crossing {
			return false
		}
		// filler cells may touch their neighbours
		if crossing || letter == grid.Filler {
			continue
		}
		if at.dir == grid.Across {
			if p.occupied(r-1, c) || p.occupied(r+1, c) {
				return false
			}
		} else if p.occupied(r, c-1) || p.occupied(r, c+1) {
			return false
		}
	}

	if at.dir == grid.Across {
		return !p.occupied(at.row, at.col-1) && !p.occupied(at.row, at.col+n)
	}
	return !p.occupied(at.row-1, at.col) && !p.occupied(at.row+n, at.col)
}

// crop trims the board to the bounding box of placed cells and shifts every
// word start accordingly. Words come back in id order.
func (p *placer) crop() (grid.Board, []grid.Word) {
	minRow, maxRow, minCol, maxCol := p.size, -1, p.size, -1
	for r := range p.size {
		for c := range p.size {
			if p.board[r][c] == nil {
				continue
			}
			minRow, maxRow = min(minRow, r), max(maxRow, r)
			minCol, maxCol = min(minCol, c), max(maxCol, c)
		}
	}
	if maxRow == -1 {
		return grid.Board{}, []grid.Word{}
	}

	out := make(grid.Board, 0, maxRow-minRow+1)
	for r := minRow; r <= maxRow; r++ {
		out = append(out, p.board[r][minCol:maxCol+1:maxCol+1])
	}
	placed := make([]grid.Word, len(p.words))
	for i, w := range p.words {
		w.Start = grid.Position{Row: w.Start.Row - minRow, Col: w.Start.Col - minCol}
		placed[i] = w
	}
	// ids were assigned in placement order, so this is already id order
	return out, placed
}

// internal/grid/grid.go
//
// Grid model shared by the generator and the session engine.
// Defines:
//   - Cell: one letter position (required letter, filled letter, contributor).
//   - Word: a placed entry (id, clue, direction, start, length).
//   - Board: rectangular grid of optional cells (nil = unusable block).
//
// A cell's CurrentLetter is either empty or equal to CorrectLetter. The engine
// only ever writes it once.

package grid

// Filler marks a cosmetic cell that is part of the shape but needs no letter.
const Filler = "_"

// Contributor markers stored in Cell.PlacedBy for non-player fills.
const (
	PlacedBySystem = "SYSTEM" // filler cells, pre-filled at generation
	PlacedByAuto   = "AUTO"   // auto-reveal ticks
)

// Direction of a placed word.
type Direction string

const (
	Across Direction = "across"
	Down   Direction = "down"
)

// Position is a zero-based grid coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cell is one grid position.
type Cell struct {
	CorrectLetter string `json:"correctLetter"`
	CurrentLetter string `json:"currentLetter"`
	PlacedBy      string `json:"placedBy"`
}

// NewLetterCell returns an empty cell requiring letter.
// The filler letter produces a pre-filled system cell.
func NewLetterCell(letter string) *Cell {
	if letter == Filler {
		return &Cell{CorrectLetter: Filler, CurrentLetter: Filler, PlacedBy: PlacedBySystem}
	}
	return &Cell{CorrectLetter: letter}
}

// Empty reports whether the cell still waits for a letter.
func (c *Cell) Empty() bool { return c.CurrentLetter == "" }

// IsFiller reports whether the cell is a cosmetic block.
func (c *Cell) IsFiller() bool { return c.CorrectLetter == Filler }

// FilledByPlayer reports whether a real player (not system/auto) filled the cell.
func (c *Cell) FilledByPlayer() bool {
	return c.PlacedBy != "" && c.PlacedBy != PlacedBySystem && c.PlacedBy != PlacedByAuto
}

// Word is a placed entry on a board.
type Word struct {
	ID        int       `json:"id"`
	Clue      string    `json:"clue"`
	Direction Direction `json:"direction"`
	Start     Position  `json:"startPosition"`
	Length    int       `json:"length"`
}

// At returns the i-th coordinate covered by the word.
func (w Word) At(i int) Position {
	if w.Direction == Down {
		return Position{Row: w.Start.Row + i, Col: w.Start.Col}
	}
	return Position{Row: w.Start.Row, Col: w.Start.Col + i}
}

// Positions lists every coordinate covered by the word, in reading order.
func (w Word) Positions() []Position {
	out := make([]Position, w.Length)
	for i := range w.Length {
		out[i] = w.At(i)
	}
	return out
}

// Covers reports whether the word runs through (row, col).
func (w Word) Covers(row, col int) bool {
	if w.Direction == Across {
		return w.Start.Row == row && col >= w.Start.Col && col < w.Start.Col+w.Length
	}
	return w.Start.Col == col && row >= w.Start.Row && row < w.Start.Row+w.Length
}

// Board is a rectangular grid of optional cells, indexed [row][col].
type Board [][]*Cell

// NewBoard allocates an all-empty rows×cols board.
func NewBoard(rows, cols int) Board {
	b := make(Board, rows)
	for r := range b {
		b[r] = make([]*Cell, cols)
	}
	return b
}

// Rows returns the number of rows.
func (b Board) Rows() int { return len(b) }

// Cols returns the number of columns (0 for an empty board).
func (b Board) Cols() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// At returns the cell at (row, col) or nil when out of bounds or absent.
func (b Board) At(row, col int) *Cell {
	if row < 0 || row >= len(b) || col < 0 || col >= len(b[row]) {
		return nil
	}
	return b[row][col]
}

// Complete reports whether no cell is waiting for a letter.
func (b Board) Complete() bool {
	for _, row := range b {
		for _, c := range row {
			if c != nil && c.Empty() {
				return false
			}
		}
	}
	return true
}

// EmptyPositions lists the coordinates of every unfilled cell.
func (b Board) EmptyPositions() []Position {
	var out []Position
	for r, row := range b {
		for c, cell := range row {
			if cell != nil && cell.Empty() {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// WordCells returns the cells covered by w; absent cells come back as nil.
func (b Board) WordCells(w Word) []*Cell {
	out := make([]*Cell, w.Length)
	for i := range w.Length {
		p := w.At(i)
		out[i] = b.At(p.Row, p.Col)
	}
	return out
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for r, row := range b {
		out[r] = make([]*Cell, len(row))
		for c, cell := range row {
			if cell != nil {
				cp := *cell
				out[r][c] = &cp
			}
		}
	}
	return out
}

// CloneWords copies a word slice.
func CloneWords(words []Word) []Word {
	return append([]Word(nil), words...)
}

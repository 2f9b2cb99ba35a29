package game

import "github.com/robalobadob/crossword/internal/grid"

// completedWords returns the words through (row, col) that are now fully filled
// with at least one cell placed by a real player.
func completedWords(pz *puzzle, row, col int) []grid.Word {
	var done []grid.Word
	for _, w := range pz.words {
		if !w.Covers(row, col) {
			continue
		}
		full, byPlayer := true, false
		for _, c := range pz.board.WordCells(w) {
			if c == nil || c.Empty() {
				full = false
				break
			}
			if c.FilledByPlayer() {
				byPlayer = true
			}
		}
		if full && byPlayer {
			done = append(done, w)
		}
	}
	return done
}

// awardCells credits one point per cell of each completed word to whoever placed it.
// Auto-revealed and filler cells earn nothing.
func awardCells(s *Session, board grid.Board, done []grid.Word) {
	for _, w := range done {
		for _, c := range board.WordCells(w) {
			if c == nil || !c.FilledByPlayer() {
				continue
			}
			if p := s.player(c.PlacedBy); p != nil {
				p.Score++
			}
		}
	}
}

package game

import (
	"sync"
	"time"

	"github.com/robalobadob/crossword/internal/grid"
)

// puzzle is one board with its words.
type puzzle struct {
	board grid.Board
	words []grid.Word
}

// boards is the mode-specific board payload of a session: one shared puzzle
// (normal/zen/turbo) or one private puzzle per player (versus).
type boards interface {
	puzzleFor(playerID string) (*puzzle, bool)
	remove(playerID string)
}

type sharedBoard struct{ puzzle }

func (b *sharedBoard) puzzleFor(string) (*puzzle, bool) { return &b.puzzle, true }
func (b *sharedBoard) remove(string)                    {}

type versusBoards map[string]*puzzle

func (b versusBoards) puzzleFor(playerID string) (*puzzle, bool) {
	p, ok := b[playerID]
	return p, ok
}

func (b versusBoards) remove(playerID string) { delete(b, playerID) }

// Session is one active puzzle instance. Every field below mu is guarded by it.
type Session struct {
	mu sync.Mutex

	id        string
	mode      Mode
	themes    []string
	theme     string
	startedAt time.Time
	endTime   time.Time // deadline for timed modes, start marker otherwise
	duration  time.Duration
	players   []*Player
	boards    boards
	reveal    *timer
	over      bool
}

// ID returns the room id.
func (s *Session) ID() string { return s.id }

// Mode returns the session mode; it never changes after creation.
func (s *Session) Mode() Mode { return s.mode }

func (s *Session) player(id string) *Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) removePlayer(id string) {
	kept := s.players[:0]
	for _, p := range s.players {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.players = kept
	s.boards.remove(id)
}

// ensureHost promotes the first remaining player when nobody holds the host flag.
func (s *Session) ensureHost() {
	if len(s.players) == 0 {
		return
	}
	for _, p := range s.players {
		if p.IsHost {
			return
		}
	}
	s.players[0].IsHost = true
}

func (s *Session) playerList() []Player {
	out := make([]Player, len(s.players))
	for i, p := range s.players {
		out[i] = *p
	}
	return out
}

// PlayerState is a versus player's private board.
type PlayerState struct {
	Board grid.Board  `json:"board"`
	Words []grid.Word `json:"words"`
}

// Snapshot is the client-visible state of a session.
// Shared modes fill Board/Words; versus fills MyState with the recipient's board.
type Snapshot struct {
	RoomID          string       `json:"roomId"`
	Mode            Mode         `json:"gameMode"`
	Theme           string       `json:"theme"`
	EndTime         int64        `json:"endTime"` // unix ms
	DurationSeconds int          `json:"durationInSeconds"`
	Players         []Player     `json:"players"`
	Board           grid.Board   `json:"board,omitempty"`
	Words           []grid.Word  `json:"words,omitempty"`
	MyState         *PlayerState `json:"myState,omitempty"`
}

// snapshot renders the state as seen by playerID. Boards are deep-copied.
func (s *Session) snapshot(playerID string) Snapshot {
	snap := Snapshot{
		RoomID:          s.id,
		Mode:            s.mode,
		Theme:           s.theme,
		EndTime:         s.endTime.UnixMilli(),
		DurationSeconds: int(s.duration / time.Second),
		Players:         s.playerList(),
	}
	switch b := s.boards.(type) {
	case *sharedBoard:
		snap.Board = b.board.Clone()
		snap.Words = grid.CloneWords(b.words)
	case versusBoards:
		if p, ok := b[playerID]; ok {
			snap.MyState = &PlayerState{Board: p.board.Clone(), Words: grid.CloneWords(p.words)}
		}
	}
	return snap
}

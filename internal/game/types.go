// internal/game/types.go
//
// Core type definitions for the session engine.
// Defines:
//   - Mode and its rule table (shared board, deadline, auto-reveal, bonuses).
//   - Player / Participant.
//   - Sentinel errors.

package game

import (
	"errors"
	"time"

	"github.com/robalobadob/crossword/internal/generator"
)

// Mode selects the rule set of a session.
type Mode string

const (
	ModeNormal Mode = "normal" // shared board, elapsed timer, reveal every 30s
	ModeZen    Mode = "zen"    // shared board, no timers
	ModeTurbo  Mode = "turbo"  // shared board, 5 min extendable deadline, reveal every 15s
	ModeVersus Mode = "versus" // one board per player, 90s extendable deadline
)

// ParseMode maps client input to a Mode; unknown values fall back to normal.
func ParseMode(s string) Mode {
	switch m := Mode(s); m {
	case ModeNormal, ModeZen, ModeTurbo, ModeVersus:
		return m
	}
	return ModeNormal
}

type modeRules struct {
	shared      bool          // one board for everybody
	deadline    time.Duration // 0 = untimed
	revealEvery time.Duration // 0 = no auto-reveal
	bonusTime   time.Duration // deadline extension per completed word
	bonusPoints int           // flat points per completed word (versus)
}

var rulesByMode = map[Mode]modeRules{
	ModeNormal: {shared: true, revealEvery: 30 * time.Second},
	ModeZen:    {shared: true},
	ModeTurbo:  {shared: true, deadline: 5 * time.Minute, revealEvery: 15 * time.Second, bonusTime: 20 * time.Second},
	ModeVersus: {deadline: 90 * time.Second, bonusTime: 10 * time.Second, bonusPoints: 5},
}

func (m Mode) rules() modeRules { return rulesByMode[ParseMode(string(m))] }

// Timed reports whether sessions of this mode end at a deadline.
func (m Mode) Timed() bool { return m.rules().deadline > 0 }

// Player is a participant as seen by every client.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost"`
	UserID string `json:"-"` // account id when the connection is authenticated
}

// Participant identifies the connection issuing an action.
type Participant struct {
	ID     string // connection identity
	Name   string // display name
	UserID string // optional account id
}

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotFound   = errors.New("player not in room")
	ErrInvalidPlacement = errors.New("invalid placement")
	ErrNoWordsAvailable = generator.ErrNoWordsAvailable
)

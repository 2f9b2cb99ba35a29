package game

import (
	"context"
	"time"
)

// EventType names an outbound notification. Values match the client protocol.
type EventType string

const (
	EventCreated        EventType = "gameCreated"
	EventState          EventType = "gameState"
	EventError          EventType = "gameError"
	EventOver           EventType = "gameOver"
	EventCorrect        EventType = "playCorrectSound"
	EventWrong          EventType = "playWrongSound"
	EventReveal         EventType = "playAutoRevealSound"
	EventRematchStarted EventType = "rematchStarted"
	EventRematchOffered EventType = "rematchOffered"
)

// Event is one notification addressed to a single player.
// Only the fields relevant to Type are set.
type Event struct {
	Type     EventType
	RoomID   string
	Snapshot *Snapshot
	Message  string
	Result   *Result
}

// Notifier delivers events to connections. Notify is called with the session
// lock held: it must not block and must not call back into the engine.
type Notifier interface {
	Notify(playerID string, ev Event)
}

// EndReason tells why a session ended.
type EndReason string

const (
	ReasonCompleted EndReason = "completed"
	ReasonTimeUp    EndReason = "timeUp"
)

// Result is reported to every participant when a session ends.
type Result struct {
	RoomID     string    `json:"roomId"`
	Mode       Mode      `json:"gameMode"`
	Theme      string    `json:"theme"`
	Players    []Player  `json:"players"`
	FinalTime  int       `json:"finalTime"` // seconds
	Reason     EndReason `json:"reason"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Recorder archives finished games. It runs outside the session lock.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

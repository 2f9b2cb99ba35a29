package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RematchWindow is how long a finished room can be rematched.
const RematchWindow = 10 * time.Minute

type rematchInfo struct {
	mode         Mode
	themes       []string
	participants []string
	expires      time.Time
	next         string // room started by the first rematch request
}

// retainForRematch remembers a finished session. Caller holds s.mu.
func (e *Engine) retainForRematch(s *Session, now time.Time) {
	ids := make([]string, len(s.players))
	for i, p := range s.players {
		ids[i] = p.ID
	}
	e.rematchMu.Lock()
	e.rematches[s.id] = &rematchInfo{
		mode:         s.mode,
		themes:       s.themes,
		participants: ids,
		expires:      now.Add(RematchWindow),
	}
	e.rematchMu.Unlock()
}

func (e *Engine) pruneRematches(now time.Time) {
	e.rematchMu.Lock()
	defer e.rematchMu.Unlock()
	for id, info := range e.rematches {
		if now.After(info.expires) {
			delete(e.rematches, id)
		}
	}
}

// Rematch starts a new session with the mode and themes of a finished room.
// The first request creates the room and offers it to the other former
// participants; later requests join that room while it is still running.
func (e *Engine) Rematch(ctx context.Context, oldRoomID string, p Participant) (Snapshot, error) {
	e.leave(ctx, p.ID)

	e.rematchMu.Lock()
	info, ok := e.rematches[oldRoomID]
	if !ok || e.now().After(info.expires) {
		e.rematchMu.Unlock()
		e.fail(p.ID, ErrRoomNotFound)
		return Snapshot{}, ErrRoomNotFound
	}
	if info.next != "" {
		if _, err := e.sessions.Get(ctx, info.next); err == nil {
			next := info.next
			e.rematchMu.Unlock()
			return e.joinRematch(ctx, next, p)
		}
	}
	s, snap, err := e.create(ctx, p, info.mode, info.themes)
	if err != nil {
		e.rematchMu.Unlock()
		e.fail(p.ID, err)
		return Snapshot{}, err
	}
	info.next = s.id
	others := make([]string, 0, len(info.participants))
	for _, id := range info.participants {
		if id != p.ID {
			others = append(others, id)
		}
	}
	e.rematchMu.Unlock()

	e.notify.Notify(p.ID, Event{Type: EventRematchStarted, RoomID: s.id, Snapshot: &snap})
	for _, id := range others {
		if _, busy := e.sessions.RoomOf(id); !busy {
			e.notify.Notify(id, Event{Type: EventRematchOffered, RoomID: s.id})
		}
	}
	log.Info().Str("from", oldRoomID).Str("room", s.id).Msg("rematch started")
	return snap, nil
}

func (e *Engine) joinRematch(ctx context.Context, roomID string, p Participant) (Snapshot, error) {
	if err := e.JoinSession(ctx, roomID, p); err != nil {
		return Snapshot{}, err
	}
	snap, err := e.Snapshot(ctx, roomID, p.ID)
	if err != nil {
		return Snapshot{}, err
	}
	e.notify.Notify(p.ID, Event{Type: EventRematchStarted, RoomID: roomID, Snapshot: &snap})
	return snap, nil
}

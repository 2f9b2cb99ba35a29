// internal/game/timers.go
//
// Time-driven transitions: per-session auto-reveal and the global deadline sweep.
// Both take the session lock before touching state, exactly like player actions.

package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/grid"
)

// SweepInterval is how often Run checks deadlines.
const SweepInterval = time.Second

// Ticker is the subset of time.Ticker the engine uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func newRealTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// timer is a cancellable background loop. Stop is idempotent and nil-safe.
type timer struct {
	stop chan struct{}
	once sync.Once
}

func (t *timer) Stop() {
	if t == nil {
		return
	}
	t.once.Do(func() { close(t.stop) })
}

func (e *Engine) startReveal(s *Session, every time.Duration) *timer {
	t := &timer{stop: make(chan struct{})}
	tk := e.newTicker(every)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-tk.C():
				if !e.revealTick(context.Background(), s) {
					t.Stop()
					return
				}
			}
		}
	}()
	return t
}

// RevealTick runs one auto-reveal step on roomID. It reports whether the room
// still has cells left to reveal.
func (e *Engine) RevealTick(ctx context.Context, roomID string) bool {
	s, err := e.sessions.Get(ctx, roomID)
	if err != nil {
		return false
	}
	return e.revealTick(ctx, s)
}

func (e *Engine) revealTick(ctx context.Context, s *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.over {
		return false
	}
	shared, ok := s.boards.(*sharedBoard)
	if !ok {
		return false
	}
	empty := shared.board.EmptyPositions()
	if len(empty) == 0 {
		return false
	}

	e.rngMu.Lock()
	pos := empty[e.rng.IntN(len(empty))]
	e.rngMu.Unlock()

	cell := shared.board.At(pos.Row, pos.Col)
	cell.CurrentLetter = cell.CorrectLetter
	cell.PlacedBy = grid.PlacedByAuto
	for _, p := range s.players {
		e.notify.Notify(p.ID, Event{Type: EventReveal, RoomID: s.id})
	}

	if shared.board.Complete() {
		e.finish(ctx, s, ReasonCompleted)
		return false
	}
	e.broadcast(s, EventState)
	return true
}

// SweepDeadlines ends every timed session whose deadline has passed and drops
// expired rematch offers.
func (e *Engine) SweepDeadlines(ctx context.Context) {
	now := e.now()
	for _, s := range e.sessions.List(ctx) {
		s.mu.Lock()
		if !s.over && s.mode.Timed() && now.After(s.endTime) {
			e.finish(ctx, s, ReasonTimeUp)
		}
		s.mu.Unlock()
	}
	e.pruneRematches(now)
}

// Run sweeps deadlines until ctx is cancelled, then stops every reveal timer
// and waits for pending result writes.
func (e *Engine) Run(ctx context.Context) error {
	tk := e.newTicker(SweepInterval)
	defer tk.Stop()
	log.Info().Dur("interval", SweepInterval).Msg("deadline sweep started")
	for {
		select {
		case <-ctx.Done():
			for _, s := range e.sessions.List(context.Background()) {
				s.mu.Lock()
				s.reveal.Stop()
				s.mu.Unlock()
			}
			e.recording.Wait()
			log.Info().Msg("deadline sweep stopped")
			return nil
		case <-tk.C():
			e.SweepDeadlines(ctx)
		}
	}
}

// internal/game/engine.go
//
// Session engine: the authoritative state machine for every active room.
//
// Responsibilities:
//   - Create/join/leave sessions and keep exactly one host per non-empty room.
//   - Validate and apply letter placements, scoring, and deadline bonuses.
//   - End sessions on completion or deadline and hand the result to a Recorder.
//
// Every mutation of a Session happens under its own mutex. The engine never
// holds two session locks at once.

package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/grid"
	"github.com/robalobadob/crossword/internal/store"
	"github.com/robalobadob/crossword/internal/words"
)

const (
	defaultPlayerName = "Jogador"
	msgRoomNotFound   = "Sala não encontrada!"
	msgNoWords        = "Nenhuma palavra disponível para os temas escolhidos."
	recordTimeout     = 5 * time.Second
)

// Dictionary selects themes and returns their entries.
type Dictionary interface {
	Pick(n int, rng *rand.Rand) []string
	Entries(themes []string) []words.Entry
}

// BoardGenerator lays candidates out on a cropped board.
type BoardGenerator interface {
	Generate(candidates []words.Entry) (grid.Board, []grid.Word, error)
}

// Engine owns every active session.
type Engine struct {
	sessions  store.Store[*Session]
	dict      Dictionary
	gen       BoardGenerator
	notify    Notifier
	recorder  Recorder
	now       func() time.Time
	newTicker func(time.Duration) Ticker

	rngMu sync.Mutex
	rng   *rand.Rand

	rematchMu sync.Mutex
	rematches map[string]*rematchInfo // keyed by finished room id

	recording sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithRand seeds theme selection and auto-reveal.
func WithRand(r *rand.Rand) Option { return func(e *Engine) { e.rng = r } }

// WithTickerFactory replaces time.NewTicker for the reveal and sweep loops.
func WithTickerFactory(f func(time.Duration) Ticker) Option {
	return func(e *Engine) { e.newTicker = f }
}

// WithRecorder archives every finished game.
func WithRecorder(r Recorder) Option { return func(e *Engine) { e.recorder = r } }

// NewEngine wires an engine around a registry, word source, generator, and notifier.
func NewEngine(sessions store.Store[*Session], dict Dictionary, gen BoardGenerator, notify Notifier, opts ...Option) *Engine {
	e := &Engine{
		sessions:  sessions,
		dict:      dict,
		gen:       gen,
		notify:    notify,
		now:       time.Now,
		newTicker: newRealTicker,
		rematches: make(map[string]*rematchInfo),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e
}

// CreateSession starts a new room with p as host and replies gameCreated to p.
func (e *Engine) CreateSession(ctx context.Context, p Participant, mode Mode, themeCount int) (Snapshot, error) {
	e.leave(ctx, p.ID)

	e.rngMu.Lock()
	themes := e.dict.Pick(themeCount, e.rng)
	e.rngMu.Unlock()

	s, snap, err := e.create(ctx, p, ParseMode(string(mode)), themes)
	if err != nil {
		e.fail(p.ID, err)
		return Snapshot{}, err
	}
	e.notify.Notify(p.ID, Event{Type: EventCreated, RoomID: s.id, Snapshot: &snap})
	log.Info().Str("room", s.id).Str("mode", string(s.mode)).Str("theme", s.theme).Msg("session created")
	return snap, nil
}

// create builds, registers, and starts a session. It never locks an existing session.
func (e *Engine) create(ctx context.Context, p Participant, mode Mode, themes []string) (*Session, Snapshot, error) {
	rules := mode.rules()
	pz, err := e.generate(themes)
	if err != nil {
		return nil, Snapshot{}, err
	}

	now := e.now()
	s := &Session{
		id:        e.newRoomID(ctx),
		mode:      mode,
		themes:    themes,
		theme:     words.Label(themes),
		startedAt: now,
		endTime:   now,
		players:   []*Player{newPlayer(p, true)},
	}
	if rules.deadline > 0 {
		s.duration = rules.deadline
		s.endTime = now.Add(rules.deadline)
	}
	if rules.shared {
		s.boards = &sharedBoard{puzzle: *pz}
	} else {
		s.boards = versusBoards{p.ID: pz}
	}
	snap := s.snapshot(p.ID)
	if rules.revealEvery > 0 {
		s.reveal = e.startReveal(s, rules.revealEvery)
	}

	if err := e.sessions.Save(ctx, s.id, s); err != nil {
		s.reveal.Stop()
		return nil, Snapshot{}, err
	}
	e.sessions.Bind(p.ID, s.id)
	return s, snap, nil
}

func (e *Engine) generate(themes []string) (*puzzle, error) {
	board, placed, err := e.gen.Generate(e.dict.Entries(themes))
	if err != nil {
		return nil, err
	}
	return &puzzle{board: board, words: placed}, nil
}

func newPlayer(p Participant, host bool) *Player {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = defaultPlayerName
	}
	return &Player{ID: p.ID, Name: name, IsHost: host, UserID: p.UserID}
}

// JoinSession adds p to roomID and broadcasts the new state. Re-joining is a no-op
// apart from resending the current snapshot.
func (e *Engine) JoinSession(ctx context.Context, roomID string, p Participant) error {
	s, err := e.sessions.Get(ctx, roomID)
	if err != nil {
		e.fail(p.ID, ErrRoomNotFound)
		return ErrRoomNotFound
	}
	if current, ok := e.sessions.RoomOf(p.ID); ok && current != roomID {
		e.leave(ctx, p.ID)
	}

	// Versus joiners get a private board built from the room's themes. Mode and
	// themes are fixed at creation, so this runs outside the lock.
	var pz *puzzle
	if !s.mode.rules().shared {
		s.mu.Lock()
		_, present := s.boards.puzzleFor(p.ID)
		s.mu.Unlock()
		if !present {
			if pz, err = e.generate(s.themes); err != nil {
				e.fail(p.ID, err)
				return err
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.over {
		e.fail(p.ID, ErrRoomNotFound)
		return ErrRoomNotFound
	}
	if s.player(p.ID) != nil {
		snap := s.snapshot(p.ID)
		e.notify.Notify(p.ID, Event{Type: EventState, RoomID: s.id, Snapshot: &snap})
		return nil
	}
	s.players = append(s.players, newPlayer(p, false))
	if vb, ok := s.boards.(versusBoards); ok && pz != nil {
		vb[p.ID] = pz
	}
	s.ensureHost()
	e.sessions.Bind(p.ID, s.id)
	e.broadcast(s, EventState)
	log.Debug().Str("room", s.id).Str("player", p.ID).Int("players", len(s.players)).Msg("player joined")
	return nil
}

// PlaceLetter applies one guess. Rejected guesses return ErrInvalidPlacement and
// cue the submitter; unknown rooms or players are silent.
func (e *Engine) PlaceLetter(ctx context.Context, roomID, playerID string, row, col int, letter string) error {
	s, err := e.sessions.Get(ctx, roomID)
	if err != nil {
		return ErrRoomNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.over {
		return ErrRoomNotFound
	}
	player := s.player(playerID)
	if player == nil {
		return ErrPlayerNotFound
	}
	pz, ok := s.boards.puzzleFor(playerID)
	if !ok {
		return ErrPlayerNotFound
	}

	cell := pz.board.At(row, col)
	l := words.NormalizeLetter(letter)
	if cell == nil || cell.IsFiller() || !cell.Empty() || l == "" || l != cell.CorrectLetter {
		e.notify.Notify(playerID, Event{Type: EventWrong, RoomID: s.id})
		return ErrInvalidPlacement
	}
	cell.CurrentLetter = l
	cell.PlacedBy = playerID

	rules := s.mode.rules()
	if !rules.shared {
		player.Score++
	}

	if done := completedWords(pz, row, col); len(done) > 0 {
		n := len(done)
		if rules.shared {
			awardCells(s, pz.board, done)
			for _, p := range s.players {
				e.notify.Notify(p.ID, Event{Type: EventCorrect, RoomID: s.id})
			}
		} else {
			player.Score += rules.bonusPoints * n
			e.notify.Notify(playerID, Event{Type: EventCorrect, RoomID: s.id})
		}
		if rules.bonusTime > 0 {
			s.endTime = s.endTime.Add(rules.bonusTime * time.Duration(n))
		}
	}

	if pz.board.Complete() {
		e.finish(ctx, s, ReasonCompleted)
		return nil
	}
	e.broadcast(s, EventState)
	return nil
}

// Disconnect removes playerID from its room, tearing the room down when it empties.
func (e *Engine) Disconnect(ctx context.Context, playerID string) {
	e.leave(ctx, playerID)
}

func (e *Engine) leave(ctx context.Context, playerID string) {
	roomID, ok := e.sessions.RoomOf(playerID)
	if !ok {
		return
	}
	e.sessions.Unbind(playerID, roomID)
	s, err := e.sessions.Get(ctx, roomID)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.over || s.player(playerID) == nil {
		return
	}
	s.removePlayer(playerID)
	if len(s.players) == 0 {
		s.over = true
		s.reveal.Stop()
		_ = e.sessions.Delete(ctx, s.id)
		log.Info().Str("room", s.id).Msg("session abandoned")
		return
	}
	s.ensureHost()
	e.broadcast(s, EventState)
}

// Snapshot returns the state of roomID as seen by playerID.
func (e *Engine) Snapshot(ctx context.Context, roomID, playerID string) (Snapshot, error) {
	s, err := e.sessions.Get(ctx, roomID)
	if err != nil {
		return Snapshot{}, ErrRoomNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.over {
		return Snapshot{}, ErrRoomNotFound
	}
	return s.snapshot(playerID), nil
}

// Stats summarises the registry.
type Stats struct {
	Rooms   int          `json:"rooms"`
	Players int          `json:"players"`
	ByMode  map[Mode]int `json:"byMode"`
}

// Stats counts active rooms and players. Sessions are locked one at a time.
func (e *Engine) Stats(ctx context.Context) Stats {
	st := Stats{ByMode: make(map[Mode]int)}
	for _, s := range e.sessions.List(ctx) {
		s.mu.Lock()
		if !s.over {
			st.Rooms++
			st.Players += len(s.players)
			st.ByMode[s.mode]++
		}
		s.mu.Unlock()
	}
	return st
}

// finish ends s. Caller holds s.mu.
func (e *Engine) finish(ctx context.Context, s *Session, reason EndReason) {
	if s.over {
		return
	}
	s.over = true
	s.reveal.Stop()

	now := e.now()
	res := Result{
		RoomID:     s.id,
		Mode:       s.mode,
		Theme:      s.theme,
		Players:    s.playerList(),
		FinalTime:  elapsedSeconds(s, reason, now),
		Reason:     reason,
		FinishedAt: now,
	}
	for _, p := range s.players {
		e.notify.Notify(p.ID, Event{Type: EventOver, RoomID: s.id, Result: &res})
	}
	_ = e.sessions.Delete(ctx, s.id)
	e.retainForRematch(s, now)
	e.record(res)
	log.Info().Str("room", s.id).Str("reason", string(reason)).Int("final_time", res.FinalTime).Msg("session over")
}

// elapsedSeconds is the seconds since start for a fill, or the configured
// duration when the deadline passed.
func elapsedSeconds(s *Session, reason EndReason, now time.Time) int {
	if reason == ReasonTimeUp {
		return int(s.duration / time.Second)
	}
	return max(0, int(now.Sub(s.startedAt)/time.Second))
}

func (e *Engine) record(res Result) {
	if e.recorder == nil {
		return
	}
	e.recording.Add(1)
	go func() {
		defer e.recording.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := e.recorder.Record(ctx, res); err != nil {
			log.Error().Err(err).Str("room", res.RoomID).Msg("record result failed")
		}
	}()
}

// broadcast sends each participant its own snapshot. Caller holds s.mu.
func (e *Engine) broadcast(s *Session, typ EventType) {
	var shared *Snapshot
	for _, p := range s.players {
		snap := shared
		if snap == nil {
			v := s.snapshot(p.ID)
			snap = &v
			if s.mode.rules().shared {
				shared = snap
			}
		}
		e.notify.Notify(p.ID, Event{Type: typ, RoomID: s.id, Snapshot: snap})
	}
}

func (e *Engine) fail(playerID string, err error) {
	msg := msgRoomNotFound
	if errors.Is(err, ErrNoWordsAvailable) {
		msg = msgNoWords
	}
	e.notify.Notify(playerID, Event{Type: EventError, Message: msg})
}

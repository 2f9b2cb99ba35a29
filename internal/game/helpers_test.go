package game

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword/internal/grid"
	"github.com/robalobadob/crossword/internal/store"
	"github.com/robalobadob/crossword/internal/words"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fixedPuzzle is
//
//	C A S A .
//	. S . . .
//	. A . O I
//
// with CASA across, ASA down and OI across.
func fixedPuzzle() (grid.Board, []grid.Word) {
	b := grid.NewBoard(3, 5)
	for i, l := range []string{"C", "A", "S", "A"} {
		b[0][i] = grid.NewLetterCell(l)
	}
	b[1][1] = grid.NewLetterCell("S")
	b[2][1] = grid.NewLetterCell("A")
	b[2][3] = grid.NewLetterCell("O")
	b[2][4] = grid.NewLetterCell("I")
	return b, []grid.Word{
		{ID: 1, Clue: "Lar", Direction: grid.Across, Start: grid.Position{Row: 0, Col: 0}, Length: 4},
		{ID: 2, Clue: "Membro da ave", Direction: grid.Down, Start: grid.Position{Row: 0, Col: 1}, Length: 3},
		{ID: 3, Clue: "Saudação", Direction: grid.Across, Start: grid.Position{Row: 2, Col: 3}, Length: 2},
	}
}

type fixedGen struct {
	err   error
	calls atomic.Int32
}

func (g *fixedGen) Generate([]words.Entry) (grid.Board, []grid.Word, error) {
	g.calls.Add(1)
	if g.err != nil {
		return nil, nil, g.err
	}
	b, w := fixedPuzzle()
	return b, w, nil
}

type fixedDict struct{}

func (fixedDict) Pick(n int, _ *rand.Rand) []string {
	return []string{"gerais", "animais"}[:min(max(n, 1), 2)]
}

func (fixedDict) Entries([]string) []words.Entry {
	return []words.Entry{{Word: "casa", Clue: "Lar"}}
}

type sent struct {
	to string
	ev Event
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []sent
}

func (n *fakeNotifier) Notify(playerID string, ev Event) {
	n.mu.Lock()
	n.events = append(n.events, sent{playerID, ev})
	n.mu.Unlock()
}

func (n *fakeNotifier) of(playerID string, typ EventType) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Event
	for _, s := range n.events {
		if s.to == playerID && s.ev.Type == typ {
			out = append(out, s.ev)
		}
	}
	return out
}

func (n *fakeNotifier) last(t *testing.T, playerID string, typ EventType) Event {
	t.Helper()
	evs := n.of(playerID, typ)
	require.NotEmpty(t, evs, "no %s sent to %s", typ, playerID)
	return evs[len(evs)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type manualTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (m *manualTicker) C() <-chan time.Time { return m.c }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

type tickers struct {
	mu   sync.Mutex
	made map[time.Duration][]*manualTicker
}

func (t *tickers) factory(d time.Duration) Ticker {
	m := &manualTicker{c: make(chan time.Time)}
	t.mu.Lock()
	t.made[d] = append(t.made[d], m)
	t.mu.Unlock()
	return m
}

func (t *tickers) get(d time.Duration) *manualTicker {
	t.mu.Lock()
	defer t.mu.Unlock()
	if list := t.made[d]; len(list) > 0 {
		return list[len(list)-1]
	}
	return nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *fakeRecorder) Record(_ context.Context, res Result) error {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	return nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

type harness struct {
	ctx   context.Context
	eng   *Engine
	note  *fakeNotifier
	clock *fakeClock
	ticks *tickers
	rec   *fakeRecorder
}

func newHarness(t *testing.T, dict Dictionary, gen BoardGenerator) *harness {
	t.Helper()
	h := &harness{
		ctx:   context.Background(),
		note:  &fakeNotifier{},
		clock: &fakeClock{now: t0},
		ticks: &tickers{made: make(map[time.Duration][]*manualTicker)},
		rec:   &fakeRecorder{},
	}
	h.eng = NewEngine(store.NewMemoryStore[*Session](), dict, gen, h.note,
		WithClock(h.clock.Now),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithTickerFactory(h.ticks.factory),
		WithRecorder(h.rec),
	)
	return h
}

func newFixedHarness(t *testing.T) *harness {
	return newHarness(t, fixedDict{}, &fixedGen{})
}

func (h *harness) create(t *testing.T, id string, mode Mode) string {
	t.Helper()
	snap, err := h.eng.CreateSession(h.ctx, Participant{ID: id, Name: id}, mode, 1)
	require.NoError(t, err)
	return snap.RoomID
}

func (h *harness) join(t *testing.T, room, id string) {
	t.Helper()
	require.NoError(t, h.eng.JoinSession(h.ctx, room, Participant{ID: id, Name: id}))
}

func (h *harness) place(t *testing.T, room, id string, row, col int, letter string) {
	t.Helper()
	require.NoError(t, h.eng.PlaceLetter(h.ctx, room, id, row, col, letter))
}

func (h *harness) snapshot(t *testing.T, room, id string) Snapshot {
	t.Helper()
	snap, err := h.eng.Snapshot(h.ctx, room, id)
	require.NoError(t, err)
	return snap
}

func scores(players []Player) map[string]int {
	out := make(map[string]int, len(players))
	for _, p := range players {
		out[p.ID] = p.Score
	}
	return out
}

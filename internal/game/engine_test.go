package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword/internal/generator"
	"github.com/robalobadob/crossword/internal/grid"
	"github.com/robalobadob/crossword/internal/words"
)

func TestCreateSessionSnapshot(t *testing.T) {
	h := newFixedHarness(t)
	snap, err := h.eng.CreateSession(h.ctx, Participant{ID: "alice", Name: "  Alice "}, ModeTurbo, 2)
	require.NoError(t, err)

	assert.Equal(t, ModeTurbo, snap.Mode)
	assert.Equal(t, "gerais + animais", snap.Theme)
	assert.Equal(t, 300, snap.DurationSeconds)
	assert.Equal(t, t0.Add(5*time.Minute).UnixMilli(), snap.EndTime)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, Player{ID: "alice", Name: "Alice", IsHost: true}, snap.Players[0])
	assert.Len(t, snap.Words, 3)
	assert.Nil(t, snap.MyState)

	created := h.note.last(t, "alice", EventCreated)
	assert.Equal(t, snap.RoomID, created.RoomID)
	assert.Contains(t, snap.RoomID, "game_")
}

func TestCreateSessionUntimedModes(t *testing.T) {
	h := newFixedHarness(t)
	for _, mode := range []Mode{ModeNormal, ModeZen, "bogus"} {
		snap, err := h.eng.CreateSession(h.ctx, Participant{ID: string(mode)}, mode, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, snap.DurationSeconds)
		assert.Equal(t, t0.UnixMilli(), snap.EndTime)
		assert.Equal(t, defaultPlayerName, snap.Players[0].Name)
	}
	_, hasReveal := h.ticks.made[15*time.Second]
	assert.False(t, hasReveal)
	assert.Len(t, h.ticks.made[30*time.Second], 2, "normal and the fallback mode reveal every 30s")
}

func TestCreateSessionNoWordsAborts(t *testing.T) {
	h := newHarness(t, fixedDict{}, &fixedGen{err: ErrNoWordsAvailable})
	_, err := h.eng.CreateSession(h.ctx, Participant{ID: "alice"}, ModeNormal, 1)
	assert.ErrorIs(t, err, ErrNoWordsAvailable)
	assert.Equal(t, msgNoWords, h.note.last(t, "alice", EventError).Message)
	assert.Equal(t, 0, h.eng.Stats(h.ctx).Rooms)
}

func TestJoinUnknownRoom(t *testing.T) {
	h := newFixedHarness(t)
	err := h.eng.JoinSession(h.ctx, "game_none", Participant{ID: "bob"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, msgRoomNotFound, h.note.last(t, "bob", EventError).Message)
}

func TestJoinIsIdempotent(t *testing.T) {
	h := newFixedHarness(t)
	room := h.create(t, "alice", ModeZen)
	h.join(t, room, "bob")
	h.join(t, room, "bob")

	snap := h.snapshot(t, room, "bob")
	require.Len(t, snap.Players, 2)
	assert.True(t, snap.Players[0].IsHost)
	assert.False(t, snap.Players[1].IsHost)
	assert.NotEmpty(t, h.note.of("alice", EventState))
}

func TestJoinMovesPlayerOutOfPreviousRoom(t *testing.T) {
	h := newFixedHarness(t)
	first := h.create(t, "alice", ModeZen)
	h.join(t, first, "bob")
	second := h.create(t, "carol", ModeZen)
	h.join(t, second, "bob")

	assert.Len(t, h.snapshot(t, first, "alice").Players, 1)
	assert.Len(t, h.snapshot(t, second, "carol").Players, 2)
}

func TestPlaceLetterRejections(t *testing.T) {
	h := newFixedHarness(t)
	room := h.create(t, "alice", ModeZen)

	h.place(t, room, "alice", 0, 0, "c")
	assert.Len(t, h.note.of("alice", EventWrong), 0)

	cases := []struct {
		name     string
		row, col int
		letter   string
	}{
		{"same cell twice", 0, 0, "C"},
		{"wrong letter", 0, 1, "E"},
		{"absent cell", 1, 0, "S"},
		{"out of bounds", 9, 9, "A"},
		{"not a letter", 0, 1, "7"},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := h.eng.PlaceLetter(h.ctx, room, "alice", tc.row, tc.col, tc.letter)
			assert.ErrorIs(t, err, ErrInvalidPlacement)
			assert.Len(t, h.note.of("alice", EventWrong), i+1)
		})
	}

	cell := h.snapshot(t, room, "alice").Board.At(0, 0)
	assert.Equal(t, "C", cell.CurrentLetter)
	assert.Equal(t, "alice", cell.PlacedBy)

	assert.ErrorIs(t, h.eng.PlaceLetter(h.ctx, "game_none", "alice", 0, 1, "A"), ErrRoomNotFound)
	assert.ErrorIs(t, h.eng.PlaceLetter(h.ctx, room, "mallory", 0, 1, "A"), ErrPlayerNotFound)
	assert.Empty(t, h.note.of("mallory", EventWrong))
}

func TestSharedScoringSplitsCredit(t *testing.T) {
	h := newFixedHarness(t)
	room := h.create(t, "alice", ModeNormal)
	h.join(t, room, "bob")

	h.place(t, room, "alice", 0, 0, "C")
	h.place(t, room, "bob", 0, 2, "S")
	h.place(t, room, "alice", 0, 3, "A")
	assert.Equal(t, map[string]int{"alice": 0, "bob": 0}, scores(h.snapshot(t, room, "alice").Players))
	assert.Empty(t, h.note.of("alice", EventCorrect))

	// bob closes CASA
	h.place(t, room, "bob", 0, 1, "A")
	assert.Equal(t, map[string]int{"alice": 2, "bob": 2}, scores(h.snapshot(t, room, "alice").Players))
	assert.Len(t, h.note.of("alice", EventCorrect), 1)
	assert.Len(t, h.note.of("bob", EventCorrect), 1)

	// alice closes ASA; the crossing A belongs to bob
	h.place(t, room, "alice", 1, 1, "S")
	h.place(t, room, "alice", 2, 1, "A")
	assert.Equal(t, map[string]int{"alice": 4, "bob": 3}, scores(h.snapshot(t, room, "alice").Players))

	h.clock.Advance(42 * time.Second)
	h.place(t, room, "bob", 2, 3, "O")
	h.place(t, room, "bob", 2, 4, "I")

	over := h.note.last(t, "alice", EventOver)
	require.NotNil(t, over.Result)
	assert.Equal(t, ReasonCompleted, over.Result.Reason)
	assert.Equal(t, 42, over.Result.FinalTime)
	assert.Equal(t, map[string]int{"alice": 4, "bob": 5}, scores(over.Result.Players))
	assert.Len(t, h.note.of("bob", EventOver), 1)

	_, err := h.eng.Snapshot(h.ctx, room, "alice")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Eventually(t, func() bool { return h.rec.count() == 1 }, time.Second, 5*time.Millisecond)
}

// fill places the solution letter at each position.
func (h *harness) fill(t *testing.T, room, id string, at ...grid.Position) {
	t.Helper()
	board, _ := fixedPuzzle()
	for _, p := range at {
		h.place(t, room, id, p.Row, p.Col, board.At(p.Row, p.Col).CorrectLetter)
	}
}

func pos(row, col int) grid.Position { return grid.Position{Row: row, Col: col} }

// Everything of CASA and ASA except their crossing cell.
var aroundCrossing = []grid.Position{pos(0, 0), pos(0, 2), pos(0, 3), pos(1, 1), pos(2, 1)}

func TestTurboExtendsDeadlinePerCompletedWord(t *testing.T) {
	h := newFixedHarness(t)
	room := h.create(t, "alice", ModeTurbo)
	h.join(t, room, "bob")

	h.fill(t, room, "alice", aroundCrossing...)
	assert.Equal(t, t0.Add(5*time.Minute).UnixMilli(), h.snapshot(t, room, "alice").EndTime)

	h.fill(t, room, "bob", pos(0, 1))
	snap := h.snapshot(t, room, "alice")
	assert.Equal(t, t0.Add(5*time.Minute+40*time.Second).UnixMilli(), snap.EndTime)
	assert.Equal(t, 300, snap.DurationSeconds, "the reported duration stays the configured one")
	// bob's crossing cell counts once for each word
	assert.Equal(t, map[string]int{"alice": 5, "bob": 2}, scores(snap.Players))
}

func TestVersusBonusAndPrivateBoards(t *testing.T) {
	gen := &fixedGen{}
	h := newHarness(t, fixedDict{}, gen)
	room := h.create(t, "alice", ModeVersus)
	h.join(t, room, "bob")
	assert.EqualValues(t, 2, gen.calls.Load())

	h.fill(t, room, "alice", aroundCrossing...)
	h.fill(t, room, "alice", pos(0, 1))

	snap := h.snapshot(t, room, "alice")
	assert.Nil(t, snap.Board)
	require.NotNil(t, snap.MyState)
	assert.Equal(t, "A", snap.MyState.Board.At(0, 1).CurrentLetter)
	assert.Equal(t, map[string]int{"alice": 16, "bob": 0}, scores(snap.Players))
	assert.Equal(t, t0.Add(90*time.Second+20*time.Second).UnixMilli(), snap.EndTime)
	assert.Len(t, h.note.of("alice", EventCorrect), 1)
	assert.Empty(t, h.note.of("bob", EventCorrect))

	bob := h.snapshot(t, room, "bob")
	require.NotNil(t, bob.MyState)
	assert.Len(t, bob.MyState.Board.EmptyPositions(), 8)

	// alice's board completing ends the game for everyone
	h.clock.Advance(30 * time.Second)
	h.fill(t, room, "alice", pos(2, 3), pos(2, 4))
	over := h.note.last(t, "bob", EventOver)
	assert.Equal(t, 30, over.Result.FinalTime)
	assert.Equal(t, ReasonCompleted, over.Result.Reason)
	assert.Equal(t, 23, scores(over.Result.Players)["alice"])
}

func TestVersusConcurrentPlacements(t *testing.T) {
	h := newFixedHarness(t)
	room := h.create(t, "p0", ModeVersus)
	const players = 8
	for i := 1; i < players; i++ {
		h.join(t, room, fmt.Sprint("p", i))
	}

	var wg sync.WaitGroup
	for i := range players {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for _, p := range []grid.Position{pos(0, 0), pos(0, 2), pos(0, 3)} {
				board, _ := fixedPuzzle()
				assert.NoError(t, h.eng.PlaceLetter(h.ctx, room, id, p.Row, p.Col, board.At(p.Row, p.Col).CorrectLetter))
			}
		}(fmt.Sprint("p", i))
	}
	wg.Wait()

	snap := h.snapshot(t, room, "p0")
	for _, p := range snap.Players {
		assert.Equal(t, 3, p.Score, p.ID)
	}
}

func TestZenLivroScenario(t *testing.T) {
	fsys := fstest.MapFS{"gerais.json": {Data: []byte(`[{"word":"livro","clue":"Para ler"}]`)}}
	lib, err := words.Open(fsys, "")
	require.NoError(t, err)
	gen := generator.New(generator.WithRand(rand.New(rand.NewPCG(3, 4))))
	h := newHarness(t, lib, gen)

	snap, err := h.eng.CreateSession(h.ctx, Participant{ID: "alice", Name: "Alice"}, ModeZen, 1)
	require.NoError(t, err)
	assert.Equal(t, "gerais", snap.Theme)
	require.Equal(t, 1, snap.Board.Rows())
	require.Equal(t, 5, snap.Board.Cols())
	require.Len(t, snap.Words, 1)
	assert.Equal(t, grid.Across, snap.Words[0].Direction)
	assert.Equal(t, pos(0, 0), snap.Words[0].Start)

	for i, l := range []string{"L", "I", "V", "R", "O"} {
		h.place(t, snap.RoomID, "alice", 0, i, l)
	}
	over := h.note.last(t, "alice", EventOver)
	assert.Equal(t, ReasonCompleted, over.Result.Reason)
	assert.GreaterOrEqual(t, over.Result.FinalTime, 0)
	assert.Equal(t, 5, over.Result.Players[0].Score)
}

func TestMissingThemeIsSkipped(t *testing.T) {
	fsys := fstest.MapFS{
		"gerais.json":  {Data: []byte(`[{"word":"livro","clue":"Para ler"},{"word":"vaso","clue":"Flores"}]`)},
		"animais.json": {Data: []byte(`[{"word":"gato","clue":"Mia"}]`)},
	}
	lib, err := words.Open(fsys, "")
	require.NoError(t, err)
	delete(fsys, "animais.json")

	h := newHarness(t, lib, generator.New())
	snap, err := h.eng.CreateSession(h.ctx, Participant{ID: "alice"}, ModeZen, 2)
	require.NoError(t, err)
	assert.Equal(t, "gerais + animais", snap.Theme)
	assert.NotEmpty(t, snap.Words)
}

func TestDisconnectReassignsHostAndTearsDown(t *testing.T) {
	h := newFixedHarness(t)
	room := h.create(t, "alice", ModeNormal)
	h.join(t, room, "bob")
	h.join(t, room, "carol")

	h.eng.Disconnect(h.ctx, "alice")
	snap := h.snapshot(t, room, "bob")
	require.Len(t, snap.Players, 2)
	assert.Equal(t, "bob", snap.Players[0].ID)
	assert.True(t, snap.Players[0].IsHost)
	assert.False(t, snap.Players[1].IsHost)
	assert.Len(t, h.note.last(t, "carol", EventState).Snapshot.Players, 2)

	h.eng.Disconnect(h.ctx, "bob")
	h.eng.Disconnect(h.ctx, "bob")
	assert.True(t, h.snapshot(t, room, "carol").Players[0].IsHost)

	h.eng.Disconnect(h.ctx, "carol")
	_, err := h.eng.Snapshot(h.ctx, room, "carol")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, Stats{ByMode: map[Mode]int{}}, h.eng.Stats(h.ctx))

	reveal := h.ticks.get(30 * time.Second)
	assert.Eventually(t, reveal.stopped.Load, time.Second, 5*time.Millisecond)
	assert.Empty(t, h.note.of("carol", EventOver), "abandoned rooms report no result")
	assert.Equal(t, 0, h.rec.count())
}

func TestStatsCountsRoomsByMode(t *testing.T) {
	h := newFixedHarness(t)
	room := h.create(t, "a", ModeVersus)
	h.join(t, room, "b")
	h.create(t, "c", ModeZen)

	st := h.eng.Stats(h.ctx)
	assert.Equal(t, 2, st.Rooms)
	assert.Equal(t, 3, st.Players)
	assert.Equal(t, map[Mode]int{ModeVersus: 1, ModeZen: 1}, st.ByMode)
}

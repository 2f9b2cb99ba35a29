// internal/results/store.go
//
// Archive of finished games.
// Responsibilities:
//   - Record: persist a game.Result with its players (engine Recorder).
//   - Recent / Leaderboard / Mine: read models for the /results endpoints.
//
// Rows are keyed by (room_id, finished_at) because room ids are short and get
// reused once a room is gone.

package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robalobadob/crossword/internal/game"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// fixed width so stored timestamps sort as text
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Store reads and writes the games/game_players tables.
type Store struct{ db *sql.DB }

// NewStore wraps an opened, migrated database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Player is one participant of an archived game.
type Player struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost"`
}

// Game is an archived game with its final scores.
type Game struct {
	RoomID     string    `json:"roomId"`
	Mode       string    `json:"gameMode"`
	Theme      string    `json:"theme"`
	Reason     string    `json:"reason"`
	FinalTime  int       `json:"finalTime"`
	FinishedAt time.Time `json:"finishedAt"`
	Players    []Player  `json:"players"`
}

// LBRow is one leaderboard line.
type LBRow struct {
	Name       string    `json:"name"`
	Score      int       `json:"score"`
	Mode       string    `json:"gameMode"`
	RoomID     string    `json:"roomId"`
	FinalTime  int       `json:"finalTime"`
	FinishedAt time.Time `json:"finishedAt"`
}

// MyGame is an archived game from one account's point of view.
type MyGame struct {
	RoomID     string    `json:"roomId"`
	Mode       string    `json:"gameMode"`
	Theme      string    `json:"theme"`
	Reason     string    `json:"reason"`
	FinalTime  int       `json:"finalTime"`
	FinishedAt time.Time `json:"finishedAt"`
	Score      int       `json:"score"`
	IsHost     bool      `json:"isHost"`
	Players    int       `json:"players"`
}

// ClampLimit maps a requested page size into [1, MaxLimit], 0 meaning DefaultLimit.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return min(n, MaxLimit)
}

// Record stores r and its players in one transaction.
func (s *Store) Record(ctx context.Context, r game.Result) error {
	finished := r.FinishedAt.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO games (room_id, mode, theme, reason, elapsed_s, finished_at, date)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RoomID, string(r.Mode), r.Theme, string(r.Reason), r.FinalTime, finished, DateKey(r.FinishedAt),
	); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	for _, p := range r.Players {
		userID := sql.NullString{String: p.UserID, Valid: p.UserID != ""}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO game_players (room_id, finished_at, player_id, user_id, name, score, is_host)
            VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.RoomID, finished, p.ID, userID, p.Name, p.Score, p.IsHost,
		); err != nil {
			return fmt.Errorf("insert player %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// Recent returns the latest finished games, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Game, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT room_id, mode, theme, reason, elapsed_s, finished_at
        FROM games
        ORDER BY finished_at DESC
        LIMIT ?`, ClampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	out := []Game{}
	for rows.Next() {
		var g Game
		var finished string
		if err := rows.Scan(&g.RoomID, &g.Mode, &g.Theme, &g.Reason, &g.FinalTime, &finished); err != nil {
			rows.Close()
			return nil, err
		}
		g.FinishedAt = parseTime(finished)
		out = append(out, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		players, err := s.players(ctx, out[i].RoomID, out[i].FinishedAt)
		if err != nil {
			return nil, err
		}
		out[i].Players = players
	}
	return out, nil
}

func (s *Store) players(ctx context.Context, roomID string, finishedAt time.Time) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, score, is_host
        FROM game_players
        WHERE room_id=? AND finished_at=?
        ORDER BY score DESC, name ASC`, roomID, finishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Player{}
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.Name, &p.Score, &p.IsHost); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Leaderboard returns the best individual scores of a UTC day.
// Ties go to the faster game, then to the earlier one.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT p.name, p.score, g.mode, g.room_id, g.elapsed_s, g.finished_at
        FROM game_players p
        JOIN games g ON g.room_id = p.room_id AND g.finished_at = p.finished_at
        WHERE g.date=?
        ORDER BY p.score DESC, g.elapsed_s ASC, g.finished_at ASC
        LIMIT ?`, date, ClampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		var finished string
		if err := rows.Scan(&r.Name, &r.Score, &r.Mode, &r.RoomID, &r.FinalTime, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Mine returns the games an account played, newest first.
func (s *Store) Mine(ctx context.Context, userID string, limit int) ([]MyGame, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT g.room_id, g.mode, g.theme, g.reason, g.elapsed_s, g.finished_at, p.score, p.is_host,
               (SELECT COUNT(*) FROM game_players o WHERE o.room_id = g.room_id AND o.finished_at = g.finished_at)
        FROM game_players p
        JOIN games g ON g.room_id = p.room_id AND g.finished_at = p.finished_at
        WHERE p.user_id=?
        ORDER BY g.finished_at DESC
        LIMIT ?`, userID, ClampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MyGame{}
	for rows.Next() {
		var g MyGame
		var finished string
		if err := rows.Scan(&g.RoomID, &g.Mode, &g.Theme, &g.Reason, &g.FinalTime, &finished, &g.Score, &g.IsHost, &g.Players); err != nil {
			return nil, err
		}
		g.FinishedAt = parseTime(finished)
		out = append(out, g)
	}
	return out, rows.Err()
}

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

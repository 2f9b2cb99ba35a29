// internal/httpserver/routes_results.go
//
// HTTP routes for the results archive.
// Exposes three endpoints under /results:
//   - GET /results/recent               → latest finished games with scores
//   - GET /results/leaderboard?date=    → best scores of a UTC day (default today)
//   - GET /results/mine                 → games of the logged-in account

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/auth"
	"github.com/robalobadob/crossword/internal/results"
)

// mountResults registers all /results routes.
func (s *Server) mountResults(r chi.Router) {
	r.Route("/results", func(r chi.Router) {
		r.Get("/recent", s.handleRecent)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.With(s.auth.Require).Get("/mine", s.handleMine)
	})
}

func limitParam(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return results.ClampLimit(n)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	games, err := s.results.Recent(r.Context(), limitParam(r))
	if err != nil {
		log.Error().Err(err).Msg("recent results")
		http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(games)
}

// lbRes is returned by /results/leaderboard.
type lbRes struct {
	Date string          `json:"date"`
	Top  []results.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = results.DateKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		http.Error(w, `{"error":"date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	rows, err := s.results.Leaderboard(r.Context(), date, limitParam(r))
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	games, err := s.results.Mine(r.Context(), me.ID, limitParam(r))
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("my results")
		http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(games)
}

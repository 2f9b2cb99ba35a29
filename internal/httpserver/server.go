// internal/httpserver/server.go
//
// HTTP server wiring for the crossword backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/themes", "/debug/rooms".
//   - Realtime endpoint (optional auth): GET /ws.
//   - Accounts: /auth/* (mounted from the auth package).
//   - Results archive: /results/* (mounted in routes_results.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The websocket route sits outside the request timeout; a connection lives
//     as long as the player stays.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/robalobadob/crossword/internal/auth"
	"github.com/robalobadob/crossword/internal/game"
	"github.com/robalobadob/crossword/internal/results"
)

// Themes lists the dictionaries players can draw from.
type Themes interface {
	Themes() []string
	General() string
}

// Options are the transport tunables.
type Options struct {
	ClientOrigin string
	WSRate       float64 // inbound frames per second per connection
	WSBurst      int
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Engine  *game.Engine
	Hub     *Hub
	Themes  Themes
	Results *results.Store
	Auth    *auth.Service
}

// Server bundles the router and its collaborators.
type Server struct {
	r        *chi.Mux
	engine   *game.Engine
	hub      *Hub
	themes   Themes
	results  *results.Store
	auth     *auth.Service
	opts     Options
	upgrader websocket.Upgrader
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps, opts Options) *Server {
	if opts.WSRate <= 0 {
		opts.WSRate = 20
	}
	if opts.WSBurst <= 0 {
		opts.WSBurst = 40
	}
	s := &Server{
		r:       chi.NewRouter(),
		engine:  d.Engine,
		hub:     d.Hub,
		themes:  d.Themes,
		results: d.Results,
		auth:    d.Auth,
		opts:    opts,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(s.cors)          // credentials-friendly CORS

	s.r.With(s.auth.Optional).Get("/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"crossword-go","endpoints":["/health","/themes","/ws","/auth/*","/results/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/themes", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"themes":  s.themes.Themes(),
				"general": s.themes.General(),
			})
		})
		r.Get("/debug/rooms", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"sessions":    s.engine.Stats(r.Context()),
				"connections": s.hub.Connections(),
				"dropped":     s.hub.Dropped(),
			})
		})

		s.auth.Mount(r)
		s.mountResults(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found", "path": r.URL.Path})
		})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// HTTPServer returns an http.Server for addr serving this router.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.opts.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

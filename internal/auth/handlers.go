package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Service bundles account storage and token handling for HTTP.
type Service struct {
	users  *Users
	tokens *Tokens
}

// NewService wires users and tokens.
func NewService(users *Users, tokens *Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

// credentials is the payload of signup and login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Mount registers /auth/signup, /auth/login, /auth/logout and /auth/me.
func (s *Service) Mount(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.With(s.Require).Get("/me", s.handleMe)
	})
}

// handleSignup creates a user, signs a token, and sets the auth cookie.
func (s *Service) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.users.Create(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, ErrUsernameTaken):
		http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.issue(w, u) {
		return
	}
	log.Info().Str("user", u.ID).Msg("signup")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(u)
}

// handleLogin authenticates and sets the auth cookie.
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			log.Error().Err(err).Msg("login")
		}
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	if !s.issue(w, u) {
		return
	}
	_ = json.NewEncoder(w).Encode(Identity{ID: u.ID, Username: u.Username})
}

// handleLogout clears the auth cookie.
func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.tokens.ClearCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	me, ok := FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	_ = json.NewEncoder(w).Encode(me)
}

func (s *Service) issue(w http.ResponseWriter, u *User) bool {
	tok, exp, err := s.tokens.Sign(u.ID, u.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return false
	}
	s.tokens.SetCookie(w, tok, exp)
	return true
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

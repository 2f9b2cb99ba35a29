package auth

import (
	"context"
	"net/http"
)

// ctxUserKey is the context key type for storing the Identity.
type ctxUserKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, &id)
}

// FromContext returns the identity placed by Optional or Require.
func FromContext(ctx context.Context) (Identity, bool) {
	id, _ := ctx.Value(ctxUserKey{}).(*Identity)
	if id == nil {
		return Identity{}, false
	}
	return *id, true
}

// resolve validates the request token and checks the account still exists.
func (s *Service) resolve(r *http.Request) (Identity, error) {
	raw := s.tokens.FromRequest(r)
	if raw == "" {
		return Identity{}, ErrInvalidToken
	}
	id, err := s.tokens.Parse(raw)
	if err != nil {
		return Identity{}, err
	}
	if _, err := s.users.ByID(r.Context(), id.ID); err != nil {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}

// Optional decorates requests with the identity when a valid token is present.
// It never rejects; guests pass through.
func (s *Service) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := s.resolve(r); err == nil {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid token.
func (s *Service) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.tokens.FromRequest(r) == "" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		id, err := s.resolve(r)
		if err != nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

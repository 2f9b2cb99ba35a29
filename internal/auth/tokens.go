package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated principal carried by a token.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Tokens signs and verifies HS256 session tokens and manages the auth cookie.
type Tokens struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

// NewTokens builds a token manager. secure marks cookies Secure/SameSite=None.
func NewTokens(secret string, expiresDays int, cookieName string, secure bool) *Tokens {
	if expiresDays <= 0 {
		expiresDays = 14
	}
	return &Tokens{
		secret:     []byte(secret),
		ttl:        time.Duration(expiresDays) * 24 * time.Hour,
		cookieName: cookieName,
		secure:     secure,
		now:        time.Now,
	}
}

// Sign creates a token for id/username and returns its expiry.
func (t *Tokens) Sign(id, username string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := tok.SignedString(t.secret)
	return ss, exp, err
}

// Parse verifies a token and returns its identity.
func (t *Tokens) Parse(raw string) (Identity, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: id, Username: username}, nil
}

// FromRequest extracts a bearer token from Authorization or the auth cookie.
func (t *Tokens) FromRequest(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(t.cookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetCookie writes the auth cookie.
func (t *Tokens) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	c := t.cookie()
	c.Value = token
	c.Expires = exp
	http.SetCookie(w, c)
}

// ClearCookie deletes the auth cookie.
func (t *Tokens) ClearCookie(w http.ResponseWriter) {
	c := t.cookie()
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func (t *Tokens) cookie() *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if t.secure {
		sameSite = http.SameSiteNoneMode // required for cross-site cookies
	}
	return &http.Cookie{
		Name:     t.cookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: sameSite,
	}
}

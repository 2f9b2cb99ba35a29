// internal/httpserver/ws.go
//
// Realtime game transport over websockets.
//
// Each upgraded connection gets a fresh uuid identity and two goroutines:
//   - readLoop: decodes inbound frames, rate-limits them, and calls the engine.
//   - writeLoop: drains the outbound queue and keeps the connection alive with pings.
//
// Losing the connection disconnects the player from its room.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/robalobadob/crossword/internal/auth"
	"github.com/robalobadob/crossword/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

type createGameReq struct {
	PlayerName string `json:"playerName"`
	GameMode   string `json:"gameMode"`
	NumThemes  int    `json:"numThemes"`
}

type joinGameReq struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

type placeLetterReq struct {
	GameID string `json:"gameId"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Letter string `json:"letter"`
}

type rematchReq struct {
	OldGameID  string `json:"oldGameId"`
	PlayerName string `json:"playerName"`
}

// client is one live websocket connection.
type client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	user    auth.Identity // zero for guests
	name    string        // last display name used
}

func (c *client) participant(name string) game.Participant {
	if name != "" {
		c.name = name
	}
	if c.name == "" {
		c.name = c.user.Username
	}
	return game.Participant{ID: c.id, Name: c.name, UserID: c.user.ID}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.opts.ClientOrigin {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// handleWS upgrades the request and serves the connection until it closes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	c := &client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(s.opts.WSRate), s.opts.WSBurst),
	}
	if id, ok := auth.FromContext(r.Context()); ok {
		c.user = id
	}
	s.hub.register(c)
	log.Debug().Str("conn", c.id).Str("user", c.user.ID).Msg("connected")

	// the request context ends with the handler; engine calls must outlive it
	ctx := context.WithoutCancel(r.Context())
	go s.writeLoop(c)
	s.readLoop(ctx, c)

	s.hub.unregister(c)
	s.engine.Disconnect(ctx, c.id)
	log.Debug().Str("conn", c.id).Msg("disconnected")
}

func (s *Server) readLoop(ctx context.Context, c *client) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn", c.id).Msg("read")
			}
			return
		}
		if !c.limiter.Allow() {
			log.Debug().Str("conn", c.id).Msg("rate limited, frame dropped")
			continue
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Debug().Err(err).Str("conn", c.id).Msg("malformed frame")
			continue
		}
		s.dispatch(ctx, c, f)
	}
}

// dispatch routes one inbound frame to the engine.
func (s *Server) dispatch(ctx context.Context, c *client, f frame) {
	var err error
	switch f.Type {
	case "createGame":
		var req createGameReq
		if err = decode(f.Data, &req); err == nil {
			_, err = s.engine.CreateSession(ctx, c.participant(req.PlayerName), game.ParseMode(req.GameMode), req.NumThemes)
		}
	case "joinGame":
		var req joinGameReq
		if err = decode(f.Data, &req); err == nil {
			err = s.engine.JoinSession(ctx, req.GameID, c.participant(req.PlayerName))
		}
	case "placeLetter":
		var req placeLetterReq
		if err = decode(f.Data, &req); err == nil {
			err = s.engine.PlaceLetter(ctx, req.GameID, c.id, req.Row, req.Col, req.Letter)
		}
	case "rematch":
		var req rematchReq
		if err = decode(f.Data, &req); err == nil {
			_, err = s.engine.Rematch(ctx, req.OldGameID, c.participant(req.PlayerName))
		}
	default:
		err = errUnknownFrame
	}
	if err != nil {
		// rejections are already reported to the player by the engine
		log.Debug().Err(err).Str("conn", c.id).Str("type", f.Type).Msg("frame not applied")
	}
}

var errUnknownFrame = errors.New("unknown frame type")

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(raw, v)
}

func (s *Server) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

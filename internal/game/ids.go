package game

import (
	"context"
	"crypto/rand"
	"math/big"
)

const (
	roomIDPrefix   = "game_"
	roomIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	roomIDLength   = 4
)

// newRoomID returns a short id not currently registered.
func (e *Engine) newRoomID(ctx context.Context) string {
	for {
		id := randomRoomID()
		if _, err := e.sessions.Get(ctx, id); err != nil {
			return id
		}
	}
}

func randomRoomID() string {
	b := make([]byte, roomIDLength)
	limit := big.NewInt(int64(len(roomIDAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}
		b[i] = roomIDAlphabet[n.Int64()]
	}
	return roomIDPrefix + string(b)
}

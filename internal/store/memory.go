// internal/store/memory.go
//
// In-memory registry of active game sessions.
//
// Characteristics:
//   - Stores values keyed by room ID (generic, so the engine owns the value type).
//   - Keeps a player → room index so a connection can be routed to its room.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Empty at startup; state is lost when the process restarts.
//
// The registry never calls back into stored values, so callers may use it while
// holding their own per-session locks.

package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get for unknown room IDs.
var ErrNotFound = errors.New("not found")

// Store defines the registry interface for active sessions.
type Store[T any] interface {
	// Save adds or replaces the value stored under id.
	Save(ctx context.Context, id string, v T) error

	// Get retrieves a value by ID.
	// Returns ErrNotFound if the ID is unknown.
	Get(ctx context.Context, id string) (T, error)

	// Delete removes id and every player bound to it. Deleting an unknown ID is a no-op.
	Delete(ctx context.Context, id string) error

	// List returns a point-in-time copy of all stored values.
	List(ctx context.Context) []T

	// Bind routes playerID to room id, replacing any previous binding.
	Bind(playerID, id string)

	// Unbind drops playerID's binding if it still points at id.
	Unbind(playerID, id string)

	// RoomOf returns the room a player is bound to.
	RoomOf(playerID string) (string, bool)
}

// memory is the map-based Store implementation.
type memory[T any] struct {
	mu      sync.RWMutex
	values  map[string]T      // keyed by room ID
	players map[string]string // player ID → room ID
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore[T any]() Store[T] {
	return &memory[T]{
		values:  make(map[string]T),
		players: make(map[string]string),
	}
}

func (m *memory[T]) Save(ctx context.Context, id string, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[id] = v
	return nil
}

func (m *memory[T]) Get(ctx context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[id]; ok {
		return v, nil
	}
	var zero T
	return zero, ErrNotFound
}

func (m *memory[T]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, id)
	for p, room := range m.players {
		if room == id {
			delete(m.players, p)
		}
	}
	return nil
}

func (m *memory[T]) List(ctx context.Context) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.values))
	for _, v := range m.values {
		out = append(out, v)
	}
	return out
}

func (m *memory[T]) Bind(playerID, id string) {
	m.mu.Lock()
	m.players[playerID] = id
	m.mu.Unlock()
}

func (m *memory[T]) Unbind(playerID, id string) {
	m.mu.Lock()
	if m.players[playerID] == id {
		delete(m.players, playerID)
	}
	m.mu.Unlock()
}

func (m *memory[T]) RoomOf(playerID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.players[playerID]
	return id, ok
}

package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[string]()

	_, err := s.Get(ctx, "room")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "room", "value"))
	v, err := s.Get(ctx, "room")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	require.NoError(t, s.Delete(ctx, "room"))
	require.NoError(t, s.Delete(ctx, "room"))
	_, err = s.Get(ctx, "room")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBindings(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[int]()
	require.NoError(t, s.Save(ctx, "a", 1))
	require.NoError(t, s.Save(ctx, "b", 2))

	s.Bind("p1", "a")
	s.Bind("p2", "a")
	s.Bind("p3", "b")

	room, ok := s.RoomOf("p1")
	assert.True(t, ok)
	assert.Equal(t, "a", room)

	// stale unbind from another room leaves the binding alone
	s.Unbind("p1", "b")
	_, ok = s.RoomOf("p1")
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "a"))
	_, ok = s.RoomOf("p1")
	assert.False(t, ok)
	_, ok = s.RoomOf("p2")
	assert.False(t, ok)
	room, ok = s.RoomOf("p3")
	assert.True(t, ok)
	assert.Equal(t, "b", room)

	s.Unbind("p3", "b")
	_, ok = s.RoomOf("p3")
	assert.False(t, ok)
}

func TestListIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[int]()
	for i := range 3 {
		require.NoError(t, s.Save(ctx, fmt.Sprint(i), i))
	}
	list := s.List(ctx)
	assert.ElementsMatch(t, []int{0, 1, 2}, list)
	require.NoError(t, s.Delete(ctx, "0"))
	assert.Len(t, list, 3)
	assert.Len(t, s.List(ctx), 2)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[int]()
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprint(i % 10)
			_ = s.Save(ctx, id, i)
			s.Bind(fmt.Sprint("p", i), id)
			_, _ = s.Get(ctx, id)
			s.List(ctx)
			if i%3 == 0 {
				_ = s.Delete(ctx, id)
			}
		}(i)
	}
	wg.Wait()
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	Store
	err error
}

func (f failingStore) Get(context.Context, string) (*Session, error) {
	return nil, f.err
}

func TestManager_LoadUnknownReturnsEmptySession(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Hour))

	s, err := m.Load(context.Background(), "new-id")
	require.NoError(t, err)
	assert.Equal(t, "new-id", s.ID)
	assert.True(t, s.CartEmpty())
}

func TestManager_UpdatePersists(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(time.Hour))

	_, err := m.Update(ctx, "s1", func(s *Session) error {
		return s.AddToCart(product("p1", 100), 2)
	})
	require.NoError(t, err)

	s, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s.Cart, 1)
	assert.Equal(t, 2, s.Cart[0].Quantity)
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestManager_UpdateErrorSkipsSave(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(time.Hour))
	boom := errors.New("boom")

	_, err := m.Update(ctx, "s1", func(s *Session) error {
		_ = s.AddToCart(product("p1", 100), 1)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	s, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, s.CartEmpty())
}

func TestManager_ConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(time.Hour))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Update(ctx, "s1", func(s *Session) error {
				return s.AddToCart(product("p1", 10), 1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s.Cart, 1)
	assert.Equal(t, 50, s.Cart[0].Quantity)
}

func TestManager_LoadWrapsStoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	m := NewManager(failingStore{err: boom})

	_, err := m.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, boom)
}

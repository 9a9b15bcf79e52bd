package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, 30*time.Minute), mr
}

func TestRedisStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	s := New("s1")
	require.NoError(t, s.AddToCart(product("p1", 100), 3))
	_, err := s.AddToWishlist(product("p2", 40))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, s))

	assert.True(t, mr.Exists("session:s1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("session:s1"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Cart, 1)
	assert.Equal(t, 3, got.Cart[0].Quantity)
	require.Len(t, got.Wishlist, 1)
	assert.Equal(t, "p2", got.Wishlist[0].ID)
}

func TestRedisStore_Miss(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	require.NoError(t, store.Save(ctx, New("s1")))
	mr.FastForward(31 * time.Minute)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	require.NoError(t, store.Save(ctx, New("s1")))
	require.NoError(t, store.Delete(ctx, "s1"))

	assert.False(t, mr.Exists("session:s1"))
}

func TestRedisStore_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Get(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_PeekIgnoresCallerCancel(t *testing.T) {
	store, _ := setupTestRedis(t)
	require.NoError(t, store.Save(context.Background(), New("s1")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := store.Peek(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
}

// holdFirstGet lets the first GET reach Redis, then parks it before the
// reply is handed back to the caller.
type holdFirstGet struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (h *holdFirstGet) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *holdFirstGet) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if cmd.Name() != "get" {
			return err
		}
		held := false
		h.once.Do(func() { held = true })
		if held {
			close(h.entered)
			<-h.release
		}
		return err
	}
}

func (h *holdFirstGet) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestManager_UpdateIgnoresInFlightPageLoad(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	hold := &holdFirstGet{entered: make(chan struct{}), release: make(chan struct{})}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client.AddHook(hold)
	t.Cleanup(func() { _ = client.Close() })
	m := NewManager(NewRedisStore(client, 30*time.Minute))

	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		_, _ = m.Load(ctx, "s1")
	}()
	<-hold.entered

	_, err := m.Update(ctx, "s1", func(s *Session) error {
		return s.AddToCart(product("p1", 100), 1)
	})
	require.NoError(t, err)
	_, err = m.Update(ctx, "s1", func(s *Session) error {
		return s.AddToCart(product("p2", 200), 1)
	})
	require.NoError(t, err)

	close(hold.release)
	<-loaded

	got, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Cart, 2)
	assert.Equal(t, "p1", got.Cart[0].Product.ID)
	assert.Equal(t, "p2", got.Cart[1].Product.ID)
}

func TestManager_ConcurrentLoadAndUpdateOnRedis(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t)
	m := NewManager(store)

	const writers = 40
	var wg sync.WaitGroup
	errs := make(chan error, 2*writers)
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := m.Update(ctx, "s1", func(s *Session) error {
				return s.AddToCart(product("p1", 100), 1)
			})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := m.Load(ctx, "s1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Cart, 1)
	assert.Equal(t, writers, got.Cart[0].Quantity)
}

package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

const lockStripes = 64

// Manager serializes read-modify-write cycles per session id on top of a
// Store. Two instances sharing a remote store are not coordinated.
type Manager struct {
	store Store
	locks [lockStripes]sync.Mutex
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Load returns the stored session, or a fresh unsaved one for unknown ids.
// It takes no lock and may use the store's shared read path.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	var (
		s   *Session
		err error
	)
	if p, ok := m.store.(Peeker); ok {
		s, err = p.Peek(ctx, id)
	} else {
		s, err = m.store.Get(ctx, id)
	}
	return orNew(id, s, err)
}

func orNew(id string, s *Session, err error) (*Session, error) {
	if errors.Is(err, ErrNotFound) {
		return New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

// Update applies fn to the session and saves the result. Nothing is saved
// when fn returns an error.
func (m *Manager) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	mu := m.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	s, err := m.store.Get(ctx, id)
	s, err = orNew(id, s, err)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	mu := m.lockFor(id)
	mu.Lock()
	defer mu.Unlock()
	return m.store.Delete(ctx, id)
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &m.locks[h.Sum32()%lockStripes]
}

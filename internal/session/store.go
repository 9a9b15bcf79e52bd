package session

import "context"

// Store persists sessions. Implementations must be safe for concurrent use
// and must return ErrNotFound for unknown or expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Peeker is implemented by stores with a cheaper read that may be shared
// between concurrent callers. It is never used inside Manager.Update.
type Peeker interface {
	Peek(ctx context.Context, id string) (*Session, error)
}

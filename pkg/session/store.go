package session

import "context"

// Store persists sessions keyed by token. Implementations must treat an
// unknown token as ErrNotFound rather than returning an empty session.
type Store interface {
	Get(ctx context.Context, token string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, token string) error
}

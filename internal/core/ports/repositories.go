package ports

import (
	"context"

	"agentdesk/internal/core/domain"
)

// SessionRepository stores console sessions. Get returns
// domain.ErrSessionNotFound for unknown or expired ids.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id domain.SessionID) (domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, id domain.SessionID) error
	Count(ctx context.Context) (int, error)
}

// SessionLocker serializes state transitions of one session across
// goroutines and, with a shared backend, across replicas.
type SessionLocker interface {
	Lock(ctx context.Context, id domain.SessionID) (unlock func(), err error)
}

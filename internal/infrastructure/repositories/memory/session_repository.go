package memory

import (
	"context"
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
	"agentdesk/pkg/cache"
)

// MemorySessionRepository keeps sessions in process. Sessions expire ttl after
// their last save.
type MemorySessionRepository struct {
	sessions *cache.Cache[domain.SessionID, domain.Session]
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: cache.New[domain.SessionID, domain.Session](ttl),
	}
}

var _ ports.SessionRepository = (*MemorySessionRepository)(nil)

func (r *MemorySessionRepository) Create(ctx context.Context, session domain.Session) error {
	if !r.sessions.SetIfAbsent(session.ID, session.Clone()) {
		return domain.ErrSessionExists
	}
	return nil
}

func (r *MemorySessionRepository) Get(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	session, ok := r.sessions.Get(id)
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (r *MemorySessionRepository) Save(ctx context.Context, session domain.Session) error {
	if !r.sessions.Replace(session.ID, session.Clone()) {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id domain.SessionID) error {
	if !r.sessions.Delete(id) {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *MemorySessionRepository) Count(ctx context.Context) (int, error) {
	return r.sessions.Len(), nil
}

// Close stops the expiry loop.
func (r *MemorySessionRepository) Close() {
	r.sessions.Stop()
}

package services

import (
	"context"
	"sync"

	"agentdesk/internal/core/domain"
	"agentdesk/pkg/result"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListUsers(ctx context.Context) result.Result[[]domain.User] {
	args := m.Called(ctx)
	return args.Get(0).(result.Result[[]domain.User])
}

func (m *MockGateway) ListDocuments(ctx context.Context) result.Result[[]domain.Document] {
	args := m.Called(ctx)
	return args.Get(0).(result.Result[[]domain.Document])
}

func (m *MockGateway) FetchPermissions(ctx context.Context, role domain.Role) result.Result[[]domain.PermissionEntry] {
	args := m.Called(ctx, role)
	return args.Get(0).(result.Result[[]domain.PermissionEntry])
}

func (m *MockGateway) SubmitQuery(ctx context.Context, query domain.AgentQuery) result.Result[domain.AgentResponse] {
	args := m.Called(ctx, query)
	return args.Get(0).(result.Result[domain.AgentResponse])
}

// sessionStore is a minimal in-memory SessionRepository.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]domain.Session
	failSave bool
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[domain.SessionID]domain.Session)}
}

func (s *sessionStore) Create(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return domain.ErrSessionExists
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *sessionStore) Get(_ context.Context, id domain.SessionID) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *sessionStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return context.DeadlineExceeded
	}
	if _, ok := s.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *sessionStore) Delete(_ context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *sessionStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions), nil
}

func (s *sessionStore) setFailSave(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = v
}

type mutexLocker struct {
	mu sync.Mutex
}

func (l *mutexLocker) Lock(context.Context, domain.SessionID) (func(), error) {
	l.mu.Lock()
	return l.mu.Unlock, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return nil
}

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.sent...)
}

package services

import (
	"context"
	"fmt"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
	"agentdesk/internal/core/state"

	"go.uber.org/zap"
)

// IdentitySelector loads the known users and checks identity switches
// against them.
type IdentitySelector struct {
	gateway ports.Gateway
	logger  *zap.SugaredLogger
}

func NewIdentitySelector(gateway ports.Gateway, logger *zap.SugaredLogger) *IdentitySelector {
	return &IdentitySelector{
		gateway: gateway,
		logger:  logger,
	}
}

func (s *IdentitySelector) Load(ctx context.Context) state.Event {
	res := s.gateway.ListUsers(ctx)
	if !res.IsOk() {
		s.logger.Warnw("failed to load users", "error", res.Failure())
		return state.UsersFetchFailed{Err: res.Failure()}
	}
	return state.UsersFetched{Users: res.Value()}
}

// Check returns the user behind username, or domain.ErrUnknownUser.
func (s *IdentitySelector) Check(users []domain.User, username string) (domain.User, error) {
	u, ok := domain.FindUser(users, username)
	if !ok {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUnknownUser, username)
	}
	return u, nil
}

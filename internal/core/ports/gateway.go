package ports

import (
	"context"

	"agentdesk/internal/core/domain"
	"agentdesk/pkg/result"
)

// Gateway issues the four agent API calls. Implementations never panic and
// never return a bare error: every failure is an Err result.
type Gateway interface {
	ListUsers(ctx context.Context) result.Result[[]domain.User]
	ListDocuments(ctx context.Context) result.Result[[]domain.Document]
	FetchPermissions(ctx context.Context, role domain.Role) result.Result[[]domain.PermissionEntry]
	SubmitQuery(ctx context.Context, query domain.AgentQuery) result.Result[domain.AgentResponse]
}

// Pinger is implemented by gateways that can report upstream reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

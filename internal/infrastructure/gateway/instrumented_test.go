package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
	apperrors "agentdesk/pkg/errors"
	"agentdesk/pkg/result"

	"github.com/stretchr/testify/assert"
)

type stubGateway struct {
	users result.Result[[]domain.User]
}

func (s stubGateway) ListUsers(context.Context) result.Result[[]domain.User] { return s.users }
func (s stubGateway) ListDocuments(context.Context) result.Result[[]domain.Document] {
	return result.Ok([]domain.Document{})
}
func (s stubGateway) FetchPermissions(context.Context, domain.Role) result.Result[[]domain.PermissionEntry] {
	return result.Err[[]domain.PermissionEntry](apperrors.NewTransportError("/permissions/admin", nil))
}
func (s stubGateway) SubmitQuery(context.Context, domain.AgentQuery) result.Result[domain.AgentResponse] {
	return result.Ok(domain.AgentResponse{Status: "success"})
}

type callRecorder struct {
	ports.NopMetrics
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) GatewayCall(endpoint, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, endpoint+":"+outcome)
}

func TestInstrumented_RecordsOutcomes(t *testing.T) {
	rec := &callRecorder{}
	g := NewInstrumented(stubGateway{users: result.Ok([]domain.User{{Username: "alice", Role: domain.RoleAdmin}})}, rec)
	ctx := context.Background()

	users := g.ListUsers(ctx)
	g.ListDocuments(ctx)
	perms := g.FetchPermissions(ctx, domain.RoleAdmin)
	g.SubmitQuery(ctx, domain.AgentQuery{User: "alice", Query: "hi"})

	// results pass through untouched
	assert.Len(t, users.Value(), 1)
	assert.Equal(t, apperrors.ErrCodeTransport, perms.Kind())

	assert.Equal(t, []string{
		"list_users:success",
		"list_documents:success",
		"fetch_permissions:failure",
		"submit_query:success",
	}, rec.calls)
}

func TestInstrumented_PingWithoutPinger(t *testing.T) {
	g := NewInstrumented(stubGateway{}, nil)
	assert.NoError(t, g.Ping(context.Background()))
}

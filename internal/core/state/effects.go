package state

import "agentdesk/internal/core/domain"

// Effect is work Reduce asks the caller to perform after the new state is
// stored. Effects never run under the session lock.
type Effect interface {
	Kind() string
}

// CallAgent submits a query on behalf of User. Its outcome must come back as
// AgentResolved or AgentFailed.
type CallAgent struct {
	User  string
	Query string
}

type RefreshDocuments struct {
	Announce bool
}

// AggregatePermissions rebuilds the capability table from the given roles.
type AggregatePermissions struct {
	Roles []domain.Role
}

type Notify struct {
	Level   domain.NotificationLevel
	Message string
}

func (CallAgent) Kind() string            { return "call_agent" }
func (RefreshDocuments) Kind() string     { return "refresh_documents" }
func (AggregatePermissions) Kind() string { return "aggregate_permissions" }
func (Notify) Kind() string               { return "notify" }

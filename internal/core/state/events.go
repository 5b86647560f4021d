package state

import "agentdesk/internal/core/domain"

// Event is an input to Reduce.
type Event interface {
	Name() string
}

// SubmitRequested carries raw user input, untrimmed.
type SubmitRequested struct {
	Text string
}

// AgentResolved carries the decoded agent response of the pending submission.
type AgentResolved struct {
	Response domain.AgentResponse
}

// AgentFailed reports that the pending submission never got a response.
type AgentFailed struct {
	Err error
}

// DocumentsFetched replaces the held document set. Announce raises a
// notification, which only on-demand refreshes ask for.
type DocumentsFetched struct {
	Documents []domain.Document
	Announce  bool
}

type DocumentsFetchFailed struct {
	Err      error
	Announce bool
}

type UsersFetched struct {
	Users []domain.User
}

type UsersFetchFailed struct {
	Err error
}

type CapabilitiesAggregated struct {
	Table domain.CapabilityTable
}

type IdentitySelected struct {
	Username string
}

type ViewSelected struct {
	View domain.View
}

func (SubmitRequested) Name() string        { return "submit_requested" }
func (AgentResolved) Name() string          { return "agent_resolved" }
func (AgentFailed) Name() string            { return "agent_failed" }
func (DocumentsFetched) Name() string       { return "documents_fetched" }
func (DocumentsFetchFailed) Name() string   { return "documents_fetch_failed" }
func (UsersFetched) Name() string           { return "users_fetched" }
func (UsersFetchFailed) Name() string       { return "users_fetch_failed" }
func (CapabilitiesAggregated) Name() string { return "capabilities_aggregated" }
func (IdentitySelected) Name() string       { return "identity_selected" }
func (ViewSelected) Name() string           { return "view_selected" }

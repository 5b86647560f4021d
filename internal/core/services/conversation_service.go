package services

import (
	"context"
	"fmt"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
	"agentdesk/internal/core/state"

	"go.uber.org/zap"
)

// ConversationService performs the agent call of an accepted submission.
type ConversationService struct {
	gateway ports.Gateway
	metrics ports.MetricsRecorder
	logger  *zap.SugaredLogger
}

func NewConversationService(gateway ports.Gateway, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) *ConversationService {
	return &ConversationService{
		gateway: gateway,
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve always returns AgentResolved or AgentFailed, even when the gateway
// panics, so the busy gate of the submitting session can be released.
func (c *ConversationService) Resolve(ctx context.Context, call state.CallAgent) (ev state.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorw("agent call panicked", "user", call.User, "panic", r)
			c.metrics.SubmissionResolved("transport_failure")
			ev = state.AgentFailed{Err: fmt.Errorf("agent call panicked: %v", r)}
		}
	}()

	res := c.gateway.SubmitQuery(ctx, domain.AgentQuery{User: call.User, Query: call.Query})
	if !res.IsOk() {
		c.metrics.SubmissionResolved("transport_failure")
		c.logger.Warnw("failed to communicate with the agent",
			"user", call.User,
			"kind", res.Kind(),
			"error", res.Failure(),
		)
		return state.AgentFailed{Err: res.Failure()}
	}

	resp := res.Value()
	if resp.Succeeded() {
		c.metrics.SubmissionResolved("success")
	} else {
		c.metrics.SubmissionResolved("agent_error")
		c.logger.Infow("agent reported an error", "user", call.User, "status", resp.Status, "message", resp.Message)
	}
	return state.AgentResolved{Response: resp}
}

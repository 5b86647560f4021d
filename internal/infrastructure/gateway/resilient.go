package gateway

import (
	"context"
	"errors"
	"net/http"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
	"agentdesk/pkg/circuitbreaker"
	apperrors "agentdesk/pkg/errors"
	"agentdesk/pkg/result"
	"agentdesk/pkg/retry"

	"go.uber.org/zap"
)

// ResilienceOptions configures Resilient. A nil Breaker disables the breaker
// and Retry.MaxAttempts <= 1 disables retries.
type ResilienceOptions struct {
	Retry   retry.Config
	Breaker *circuitbreaker.CircuitBreaker
}

// Resilient retries idempotent reads and guards every call with an optional
// circuit breaker. Agent queries are never retried.
type Resilient struct {
	next   ports.Gateway
	opts   ResilienceOptions
	logger *zap.SugaredLogger
}

func NewResilient(next ports.Gateway, opts ResilienceOptions, logger *zap.SugaredLogger) *Resilient {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Breaker != nil {
		opts.Breaker.OnStateChange(func(from, to circuitbreaker.State) {
			logger.Warnw("Upstream circuit breaker changed state",
				"from", from.String(),
				"to", to.String(),
			)
		})
	}
	return &Resilient{next: next, opts: opts, logger: logger}
}

var _ ports.Gateway = (*Resilient)(nil)

func (g *Resilient) ListUsers(ctx context.Context) result.Result[[]domain.User] {
	return read(ctx, g, EndpointUsers, g.next.ListUsers)
}

func (g *Resilient) ListDocuments(ctx context.Context) result.Result[[]domain.Document] {
	return read(ctx, g, EndpointDocuments, g.next.ListDocuments)
}

func (g *Resilient) FetchPermissions(ctx context.Context, role domain.Role) result.Result[[]domain.PermissionEntry] {
	return read(ctx, g, EndpointPermissions, func(ctx context.Context) result.Result[[]domain.PermissionEntry] {
		return g.next.FetchPermissions(ctx, role)
	})
}

func (g *Resilient) SubmitQuery(ctx context.Context, query domain.AgentQuery) result.Result[domain.AgentResponse] {
	return guarded(ctx, g, EndpointAgentQuery, func(ctx context.Context) result.Result[domain.AgentResponse] {
		return g.next.SubmitQuery(ctx, query)
	})
}

func (g *Resilient) Ping(ctx context.Context) error {
	if p, ok := g.next.(ports.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func read[T any](ctx context.Context, g *Resilient, endpoint string, call func(context.Context) result.Result[T]) result.Result[T] {
	attempt := 0
	v, err := retry.Do(ctx, g.opts.Retry, transient, func(ctx context.Context) (T, error) {
		if attempt++; attempt > 1 {
			g.logger.Debugw("Retrying upstream read", "endpoint", endpoint, "attempt", attempt)
		}
		return guarded(ctx, g, endpoint, call).Unwrap()
	})
	return settle(v, err)
}

func guarded[T any](ctx context.Context, g *Resilient, endpoint string, call func(context.Context) result.Result[T]) result.Result[T] {
	if g.opts.Breaker == nil {
		return call(ctx)
	}

	v, err := circuitbreaker.Execute(ctx, g.opts.Breaker, transient, func(ctx context.Context) (T, error) {
		return call(ctx).Unwrap()
	})
	if err == circuitbreaker.ErrOpen {
		return result.Err[T](apperrors.NewTransportError(endpoint, err))
	}
	return settle(v, err)
}

// settle turns a (value, error) pair produced from a Result back into one.
func settle[T any](v T, err error) result.Result[T] {
	if err == nil {
		return result.Ok(v)
	}
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return result.Err[T](appErr)
	}
	return result.Err[T](apperrors.WrapError(err, apperrors.ErrCodeTransport, "upstream call failed", http.StatusBadGateway))
}

// transient reports failures worth retrying and counting against the
// breaker: transport errors and 5xx answers. A rejection by the open
// breaker itself is final.
func transient(err error) bool {
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return false
	}
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		return true
	}
	switch appErr.Code {
	case apperrors.ErrCodeTransport:
		return true
	case apperrors.ErrCodeBadGateway:
		status, _ := appErr.Context["upstream_status"].(int)
		return status >= 500
	}
	return false
}

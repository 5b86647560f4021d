package gateway

import (
	"context"
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
	"agentdesk/pkg/result"
	"agentdesk/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Instrumented wraps a Gateway with a span and a latency observation per call.
type Instrumented struct {
	next    ports.Gateway
	metrics ports.MetricsRecorder
}

func NewInstrumented(next ports.Gateway, metrics ports.MetricsRecorder) *Instrumented {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Instrumented{next: next, metrics: metrics}
}

var _ ports.Gateway = (*Instrumented)(nil)

func (g *Instrumented) ListUsers(ctx context.Context) result.Result[[]domain.User] {
	ctx, done := g.start(ctx, EndpointUsers)
	res := g.next.ListUsers(ctx)
	done(failure(res))
	return res
}

func (g *Instrumented) ListDocuments(ctx context.Context) result.Result[[]domain.Document] {
	ctx, done := g.start(ctx, EndpointDocuments)
	res := g.next.ListDocuments(ctx)
	done(failure(res))
	return res
}

func (g *Instrumented) FetchPermissions(ctx context.Context, role domain.Role) result.Result[[]domain.PermissionEntry] {
	ctx, done := g.start(ctx, EndpointPermissions, tracing.RoleKey.String(string(role)))
	res := g.next.FetchPermissions(ctx, role)
	done(failure(res))
	return res
}

func (g *Instrumented) SubmitQuery(ctx context.Context, query domain.AgentQuery) result.Result[domain.AgentResponse] {
	ctx, done := g.start(ctx, EndpointAgentQuery, tracing.IdentityKey.String(query.User))
	res := g.next.SubmitQuery(ctx, query)
	done(failure(res))
	if res.IsOk() {
		tracing.AddSpanAttributes(ctx, tracing.OutcomeKey.String(res.Value().Status))
	}
	return res
}

// Ping is forwarded when the wrapped gateway supports it.
func (g *Instrumented) Ping(ctx context.Context) error {
	p, ok := g.next.(ports.Pinger)
	if !ok {
		return nil
	}
	ctx, done := g.start(ctx, EndpointRoot)
	err := p.Ping(ctx)
	done(err)
	return err
}

func (g *Instrumented) start(ctx context.Context, endpoint string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := tracing.TraceGatewayCall(ctx, endpoint)
	span.SetAttributes(attrs...)
	started := time.Now()

	return ctx, func(err error) {
		outcome := "success"
		if err != nil {
			outcome = "failure"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		g.metrics.GatewayCall(endpoint, outcome, time.Since(started))
		span.End()
	}
}

// failure converts a result's error into a plain error, nil on success.
func failure[T any](r result.Result[T]) error {
	_, err := r.Unwrap()
	return err
}

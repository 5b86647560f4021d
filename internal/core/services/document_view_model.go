package services

import (
	"context"

	"agentdesk/internal/core/ports"
	"agentdesk/internal/core/state"

	"go.uber.org/zap"
)

// DocumentViewModel fetches the shared document set for a session.
type DocumentViewModel struct {
	gateway ports.Gateway
	metrics ports.MetricsRecorder
	logger  *zap.SugaredLogger
}

func NewDocumentViewModel(gateway ports.Gateway, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) *DocumentViewModel {
	return &DocumentViewModel{
		gateway: gateway,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch turns one document listing into the event that applies it. A failed
// listing yields DocumentsFetchFailed, which keeps the held set.
func (d *DocumentViewModel) Fetch(ctx context.Context, announce bool) state.Event {
	res := d.gateway.ListDocuments(ctx)
	if !res.IsOk() {
		d.metrics.DocumentsRefreshed("failure")
		d.logger.Warnw("failed to refresh documents", "error", res.Failure())
		return state.DocumentsFetchFailed{Err: res.Failure(), Announce: announce}
	}

	d.metrics.DocumentsRefreshed("success")
	return state.DocumentsFetched{Documents: res.Value(), Announce: announce}
}

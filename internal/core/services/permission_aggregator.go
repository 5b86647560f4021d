package services

import (
	"context"
	"sync"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"

	"go.uber.org/zap"
)

// PermissionAggregator builds a capability table from per-role permission
// queries.
type PermissionAggregator struct {
	gateway ports.Gateway
	metrics ports.MetricsRecorder
	logger  *zap.SugaredLogger
}

func NewPermissionAggregator(gateway ports.Gateway, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) *PermissionAggregator {
	return &PermissionAggregator{
		gateway: gateway,
		metrics: metrics,
		logger:  logger,
	}
}

// Load queries each distinct role once, concurrently. A role whose query
// fails is logged and left out of the table; the rest still load.
func (a *PermissionAggregator) Load(ctx context.Context, roles []domain.Role) domain.CapabilityTable {
	distinct := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		distinct[r] = struct{}{}
	}

	table := make(domain.CapabilityTable, len(distinct))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for role := range distinct {
		wg.Add(1)
		go func(role domain.Role) {
			defer wg.Done()

			res := a.gateway.FetchPermissions(ctx, role)
			if !res.IsOk() {
				a.metrics.PermissionQuery(role, "failure")
				a.logger.Warnw("failed to load permissions",
					"role", role,
					"error", res.Failure(),
				)
				return
			}
			a.metrics.PermissionQuery(role, "success")

			set := domain.NewPermissionSet(res.Value()...)
			mu.Lock()
			table[role] = set
			mu.Unlock()
		}(role)
	}
	wg.Wait()

	return table
}

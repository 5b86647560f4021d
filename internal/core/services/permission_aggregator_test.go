package services

import (
	"context"
	"testing"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
	apperrors "agentdesk/pkg/errors"
	"agentdesk/pkg/result"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

func TestPermissionAggregator_OneQueryPerDistinctRole(t *testing.T) {
	gw := &MockGateway{}
	gw.On("FetchPermissions", mock.Anything, domain.RoleAdmin).Return(result.Ok(perms(domain.ActionDelete))).Once()
	gw.On("FetchPermissions", mock.Anything, domain.RoleViewer).Return(result.Ok(perms(domain.ActionRead))).Once()

	agg := NewPermissionAggregator(gw, ports.NopMetrics{}, zaptest.NewLogger(t).Sugar())
	table := agg.Load(context.Background(), []domain.Role{domain.RoleAdmin, domain.RoleViewer, domain.RoleAdmin})

	assert.Len(t, table, 2)
	assert.True(t, table.HasPermission(domain.RoleAdmin, domain.ActionDelete))
	assert.True(t, table.HasPermission(domain.RoleViewer, domain.ActionRead))
	gw.AssertExpectations(t)
	gw.AssertNumberOfCalls(t, "FetchPermissions", 2)
}

func TestPermissionAggregator_PartialFailure(t *testing.T) {
	gw := &MockGateway{}
	gw.On("FetchPermissions", mock.Anything, domain.RoleAdmin).Return(result.Ok(perms(domain.ActionRead))).Once()
	gw.On("FetchPermissions", mock.Anything, domain.RoleEditor).
		Return(result.Err[[]domain.PermissionEntry](apperrors.NewMalformedResponseError("/permissions/editor", nil))).Once()

	agg := NewPermissionAggregator(gw, ports.NopMetrics{}, zaptest.NewLogger(t).Sugar())
	table := agg.Load(context.Background(), []domain.Role{domain.RoleAdmin, domain.RoleEditor})

	assert.Len(t, table, 1)
	assert.True(t, table.HasPermission(domain.RoleAdmin, domain.ActionRead))
	assert.False(t, table.HasPermission(domain.RoleEditor, domain.ActionRead))
}

func TestPermissionAggregator_EmptyInput(t *testing.T) {
	gw := &MockGateway{}
	agg := NewPermissionAggregator(gw, ports.NopMetrics{}, zaptest.NewLogger(t).Sugar())

	table := agg.Load(context.Background(), nil)

	assert.NotNil(t, table)
	assert.Empty(t, table)
	gw.AssertNotCalled(t, "FetchPermissions", mock.Anything, mock.Anything)
}

func TestIdentitySelector_Check(t *testing.T) {
	sel := NewIdentitySelector(&MockGateway{}, zaptest.NewLogger(t).Sugar())

	u, err := sel.Check([]domain.User{alice, bob}, "bob")
	assert.NoError(t, err)
	assert.Equal(t, bob, u)

	_, err = sel.Check([]domain.User{alice}, "bob")
	assert.ErrorIs(t, err, domain.ErrUnknownUser)
}

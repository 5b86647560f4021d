package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docPerm(a Action) PermissionEntry {
	return PermissionEntry{Action: a, Resource: ResourceDocument}
}

func TestCapabilityTable_HasPermission(t *testing.T) {
	table := CapabilityTable{
		RoleEditor: NewPermissionSet(docPerm(ActionCreate), docPerm(ActionRead), docPerm(ActionUpdate)),
		RoleAdmin:  NewPermissionSet(docPerm(ActionCreate), docPerm(ActionRead), docPerm(ActionUpdate), docPerm(ActionDelete)),
		RoleViewer: NewPermissionSet(PermissionEntry{Action: ActionDelete, Resource: "folder"}),
	}

	tests := []struct {
		name   string
		role   Role
		action Action
		want   bool
	}{
		{"editor cannot delete", RoleEditor, ActionDelete, false},
		{"editor can update", RoleEditor, ActionUpdate, true},
		{"admin can delete", RoleAdmin, ActionDelete, true},
		{"other resources do not count", RoleViewer, ActionDelete, false},
		{"unknown role", Role("auditor"), ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.HasPermission(tt.role, tt.action))
		})
	}

	var empty CapabilityTable
	assert.False(t, empty.HasPermission(RoleAdmin, ActionRead))
}

func TestPermissionSet_DuplicatesCollapse(t *testing.T) {
	set := NewPermissionSet(docPerm(ActionRead), docPerm(ActionRead), docPerm(ActionCreate))
	assert.Len(t, set, 2)
	assert.Equal(t, []PermissionEntry{docPerm(ActionCreate), docPerm(ActionRead)}, set.Entries())
}

func TestPermissionSet_JSON(t *testing.T) {
	var set PermissionSet
	require.NoError(t, json.Unmarshal([]byte(`[
		{"action":"read","resource":"document"},
		{"action":"read","resource":"document"}
	]`), &set))
	assert.Len(t, set, 1)

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"action":"read","resource":"document"}]`, string(data))
}

func TestCapabilityTable_CloneIsDeep(t *testing.T) {
	table := CapabilityTable{RoleViewer: NewPermissionSet(docPerm(ActionRead))}
	cp := table.Clone()
	cp[RoleViewer][docPerm(ActionDelete)] = struct{}{}

	assert.False(t, table.HasPermission(RoleViewer, ActionDelete))
	assert.True(t, cp.HasPermission(RoleViewer, ActionDelete))
	assert.Nil(t, CapabilityTable(nil).Clone())
}

func TestBuildMatrix(t *testing.T) {
	users := []User{
		{Username: "alice", Role: RoleAdmin},
		{Username: "bob", Role: RoleEditor},
		{Username: "carol", Role: RoleAdmin},
	}
	table := CapabilityTable{
		RoleAdmin:  NewPermissionSet(docPerm(ActionCreate), docPerm(ActionRead), docPerm(ActionUpdate), docPerm(ActionDelete)),
		RoleEditor: NewPermissionSet(docPerm(ActionCreate), docPerm(ActionRead), docPerm(ActionUpdate)),
	}

	m := BuildMatrix(users, table)

	assert.Equal(t, Actions, m.Actions)
	require.Len(t, m.Rows, 3)

	admin, editor, viewer := m.Rows[0], m.Rows[1], m.Rows[2]
	assert.Equal(t, RoleAdmin, admin.Role)
	assert.Equal(t, []string{"alice", "carol"}, admin.Users)
	assert.Equal(t, StyleFor(RoleAdmin), admin.Style)
	assert.True(t, admin.Allowed[ActionDelete])

	assert.Equal(t, []string{"bob"}, editor.Users)
	assert.False(t, editor.Allowed[ActionDelete])
	assert.True(t, editor.Allowed[ActionUpdate])

	// nobody holds viewer and its permissions never loaded
	assert.Equal(t, RoleViewer, viewer.Role)
	assert.Empty(t, viewer.Users)
	for _, a := range Actions {
		assert.False(t, viewer.Allowed[a])
	}
}

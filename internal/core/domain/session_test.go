package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGreeting(t *testing.T) {
	turn := Greeting("alice")
	assert.Equal(t, TurnAssistant, turn.Role)
	assert.Equal(t,
		"Hello! I'm your AI assistant. You are currently logged in as alice. I can help you manage documents based on your role permissions. What would you like to do?",
		turn.Content)
}

func TestStyleFor(t *testing.T) {
	assert.Equal(t, RoleStyle{Color: "purple", Icon: "shield-check"}, StyleFor(RoleAdmin))
	assert.Equal(t, RoleStyle{Color: "blue", Icon: "edit"}, StyleFor(RoleEditor))
	assert.Equal(t, RoleStyle{Color: "gray", Icon: "eye"}, StyleFor(RoleViewer))
	assert.Equal(t, RoleStyle{Color: "gray", Icon: "user"}, StyleFor(Role("auditor")))
}

func TestDistinctRoles(t *testing.T) {
	users := []User{
		{Username: "alice", Role: RoleAdmin},
		{Username: "bob", Role: RoleEditor},
		{Username: "carol", Role: RoleAdmin},
	}
	assert.Equal(t, []Role{RoleAdmin, RoleEditor}, DistinctRoles(users))
	assert.Empty(t, DistinctRoles(nil))
}

func TestSameUsers(t *testing.T) {
	a := []User{{"alice", RoleAdmin}, {"bob", RoleEditor}}
	b := []User{{"bob", RoleEditor}, {"alice", RoleAdmin}}

	assert.True(t, SameUsers(a, b))
	assert.False(t, SameUsers(a, a[:1]))
	assert.False(t, SameUsers(a, []User{{"alice", RoleAdmin}, {"bob", RoleViewer}}))
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := Session{
		Identity:   "alice",
		Users:      []User{{"alice", RoleAdmin}},
		Transcript: []Turn{Greeting("alice")},
		Documents:  []Document{{ID: "doc1"}},
	}

	cp := s.Clone()
	cp.Transcript[0].Content = "changed"
	cp.Users[0].Role = RoleViewer
	cp.Documents[0].ID = "doc2"

	assert.Equal(t, Greeting("alice"), s.Transcript[0])
	assert.Equal(t, RoleAdmin, s.Users[0].Role)
	assert.Equal(t, "doc1", s.Documents[0].ID)
}

func TestSession_ActiveUser(t *testing.T) {
	s := Session{Identity: "bob", Users: []User{{"alice", RoleAdmin}, {"bob", RoleEditor}}}
	u, ok := s.ActiveUser()
	assert.True(t, ok)
	assert.Equal(t, RoleEditor, u.Role)

	s.Identity = "mallory"
	_, ok = s.ActiveUser()
	assert.False(t, ok)
}

func TestViewAndRoleValid(t *testing.T) {
	for _, v := range Views {
		assert.True(t, v.Valid())
	}
	assert.False(t, View("settings").Valid())

	for _, r := range Roles {
		assert.True(t, r.Valid())
	}
	assert.False(t, Role("root").Valid())
}

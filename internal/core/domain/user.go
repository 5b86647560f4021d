package domain

// Role is the closed set of roles the agent API assigns to users.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleEditor, RoleViewer}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

type User struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// DistinctRoles returns each role held by at least one user, first
// occurrence first.
func DistinctRoles(users []User) []Role {
	seen := make(map[Role]struct{}, len(Roles))
	roles := make([]Role, 0, len(Roles))
	for _, u := range users {
		if _, ok := seen[u.Role]; ok {
			continue
		}
		seen[u.Role] = struct{}{}
		roles = append(roles, u.Role)
	}
	return roles
}

// FindUser looks a user up by username.
func FindUser(users []User, username string) (User, bool) {
	for _, u := range users {
		if u.Username == username {
			return u, true
		}
	}
	return User{}, false
}

// SameUsers reports whether a and b hold the same users, ignoring order.
func SameUsers(a, b []User) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[User]int, len(a))
	for _, u := range a {
		counts[u]++
	}
	for _, u := range b {
		if counts[u] == 0 {
			return false
		}
		counts[u]--
	}
	return true
}

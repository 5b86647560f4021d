package domain

// MatrixRow is one role line of the capability matrix.
type MatrixRow struct {
	Role    Role            `json:"role"`
	Style   RoleStyle       `json:"style"`
	Users   []string        `json:"users"`
	Allowed map[Action]bool `json:"allowed"`
}

type PermissionMatrix struct {
	Actions []Action    `json:"actions"`
	Rows    []MatrixRow `json:"rows"`
}

// BuildMatrix renders every known role, including roles nobody holds, against
// every document action.
func BuildMatrix(users []User, table CapabilityTable) PermissionMatrix {
	m := PermissionMatrix{
		Actions: append([]Action(nil), Actions...),
		Rows:    make([]MatrixRow, 0, len(Roles)),
	}

	for _, role := range Roles {
		row := MatrixRow{
			Role:    role,
			Style:   StyleFor(role),
			Users:   []string{},
			Allowed: make(map[Action]bool, len(Actions)),
		}
		for _, u := range users {
			if u.Role == role {
				row.Users = append(row.Users, u.Username)
			}
		}
		for _, action := range Actions {
			row.Allowed[action] = table.HasPermission(role, action)
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

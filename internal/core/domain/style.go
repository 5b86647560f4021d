package domain

// RoleStyle is the presentation hint attached to a role in the capability
// matrix and the identity picker.
type RoleStyle struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var (
	defaultRoleStyle = RoleStyle{Color: "gray", Icon: "user"}

	roleStyles = map[Role]RoleStyle{
		RoleAdmin:  {Color: "purple", Icon: "shield-check"},
		RoleEditor: {Color: "blue", Icon: "edit"},
		RoleViewer: {Color: "gray", Icon: "eye"},
	}
)

// StyleFor returns the style of role, or a neutral style for roles outside
// the known set.
func StyleFor(role Role) RoleStyle {
	if s, ok := roleStyles[role]; ok {
		return s
	}
	return defaultRoleStyle
}

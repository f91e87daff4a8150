package roster

// Role is a player's position on the pitch.
type Role string

const (
	RoleGoalkeeper Role = "GK"
	RoleDefender   Role = "DEF"
	RoleMidfielder Role = "MID"
	RoleForward    Role = "FWD"
)

// roleOrder is the fixed progression a live auction walks through.
var roleOrder = []Role{RoleGoalkeeper, RoleDefender, RoleMidfielder, RoleForward}

// Roles returns all roles in auction order.
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range roleOrder {
		if r == known {
			return true
		}
	}
	return false
}

// Next returns the role that follows r in the auction progression.
// The second return value is false once the progression is exhausted.
func (r Role) Next() (Role, bool) {
	for i, known := range roleOrder {
		if r == known && i+1 < len(roleOrder) {
			return roleOrder[i+1], true
		}
	}
	return "", false
}

// ParseRole maps user input ("gk", "def", ...) to a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(normalizeRole(s)) {
	case RoleGoalkeeper:
		return RoleGoalkeeper, true
	case RoleDefender:
		return RoleDefender, true
	case RoleMidfielder:
		return RoleMidfielder, true
	case RoleForward:
		return RoleForward, true
	}
	return "", false
}

func normalizeRole(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

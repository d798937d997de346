package auth

// UserRole is the user's role. The enumeration is closed: the three values
// below are the only ones the store accepts and the token carries.
type UserRole string

const (
	// RoleAdmin manages users and clinic configuration
	RoleAdmin UserRole = "ADMIN"
	// RoleMedico is a clinician
	RoleMedico UserRole = "MEDICO"
	// RolePaciente is a patient
	RolePaciente UserRole = "PACIENTE"
)

// DefaultRole applies when an administrative creation path omits the role.
var DefaultRole = RolePaciente

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMedico, RolePaciente:
		return true
	default:
		return false
	}
}

func (r UserRole) String() string {
	return string(r)
}

// AllRoles returns every member of the enumeration
func AllRoles() []UserRole {
	return []UserRole{RoleAdmin, RoleMedico, RolePaciente}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}

// RoleSet is an explicit allowed-roles set declared per protected operation.
// It replaces open-ended string comparison so a typo in a route declaration
// fails loudly at construction instead of silently denying nobody.
type RoleSet map[UserRole]struct{}

// NewRoleSet builds a RoleSet and panics on roles outside the enumeration.
// Role sets are declared at wiring time, so failing fast is the right call.
func NewRoleSet(roles ...UserRole) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if !r.IsValid() {
			panic("auth: unknown role in role set: " + string(r))
		}
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether the role is a member of the set.
func (s RoleSet) Contains(role UserRole) bool {
	_, ok := s[role]
	return ok
}

// Roles returns the members in declaration-independent stable order.
func (s RoleSet) Roles() []UserRole {
	out := make([]UserRole, 0, len(s))
	for _, r := range AllRoles() {
		if s.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}

package domain

import dErrors "dealroom/pkg/domain-errors"

// Role is a user's platform role. The zero value means an anonymous viewer.
type Role string

const (
	RoleGuest  Role = "guest"
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleBroker Role = "broker"
	RoleAdmin  Role = "admin"
)

// ParseRole validates a role string from a trusted source (token claims, user store).
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleGuest, RoleBuyer, RoleSeller, RoleBroker, RoleAdmin:
		return r, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
}

// IsPrivileged reports whether the role sees every listing field regardless of NDA.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleBroker
}

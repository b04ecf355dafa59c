package user

import "fmt"

// Role is closed: the only values are RoleCustomer and RoleAdmin.
type Role struct {
	name string
}

var (
	RoleCustomer = Role{name: "customer"}
	RoleAdmin    = Role{name: "admin"}
)

// ParseRole maps a stored or token-carried role name to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case RoleCustomer.name:
		return RoleCustomer, nil
	case RoleAdmin.name:
		return RoleAdmin, nil
	default:
		return Role{}, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string { return r.name }

// IsZero reports whether r was never assigned.
func (r Role) IsZero() bool { return r.name == "" }

// CanManageOrders gates the administrative order surface.
func (r Role) CanManageOrders() bool { return r == RoleAdmin }

// CanViewAnyOrder allows reading orders owned by other users.
func (r Role) CanViewAnyOrder() bool { return r == RoleAdmin }

func (r Role) MarshalText() ([]byte, error) { return []byte(r.name), nil }

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

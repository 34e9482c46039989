package user

import (
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func NewRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", errs.Newf("invalid role: %s", s)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

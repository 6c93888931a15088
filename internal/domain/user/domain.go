package user

import (
	"strings"
	"time"
)

// Role is a privilege level. Roles form a total order: RoleUser < RoleAdmin.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// roleOrder lists roles from least to most privileged.
var roleOrder = []Role{RoleUser, RoleAdmin}

func (r Role) rank() int {
	for i, known := range roleOrder {
		if known == r {
			return i
		}
	}
	return -1
}

func (r Role) Valid() bool { return r.rank() >= 0 }

// AtLeast reports whether role grants at least the privileges of required.
// An unknown role never satisfies any requirement.
func AtLeast(role, required Role) bool {
	have := role.rank()
	if have < 0 {
		return false
	}
	return have >= required.rank()
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package auth

import (
	"github.com/NordCoder/Tasker/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

// Kind tells access and refresh tokens apart after signature verification.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Payload is the identity carried by both token kinds.
type Payload struct {
	ID   string
	Role user.Role
	Name string
}

type claims struct {
	Name string    `json:"name"`
	Role user.Role `json:"role"`
	Kind Kind      `json:"kind"`
	jwt.RegisteredClaims
}

package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrTokenInvalid = errors.New("invalid token")

// Sign issues an HS256 token for p that expires ttl after now.
func Sign(p Payload, kind Kind, secret []byte, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("empty signing secret")
	}
	exp := now.Add(ttl)
	c := claims{
		Name: p.Name,
		Role: p.Role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return s, c.ExpiresAt.Time, nil
}

// Verify returns the payload of token when it was signed with secret, has
// not expired at now and carries the expected kind. Every failure yields
// ErrTokenInvalid.
func Verify(token string, kind Kind, secret []byte, now time.Time) (*Payload, error) {
	p, err := parse(token, kind, secret, now)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return p, nil
}

func parse(token string, kind Kind, secret []byte, now time.Time) (*Payload, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, err
	}
	if c.Kind != kind {
		return nil, fmt.Errorf("token kind %q, want %q", c.Kind, kind)
	}
	if c.Subject == "" {
		return nil, errors.New("token without subject")
	}
	return &Payload{ID: c.Subject, Role: c.Role, Name: c.Name}, nil
}

// HashToken is the storage key of a token value.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// Fingerprint is a short, non-reversible label for a token, safe for logs.
func Fingerprint(raw string) string {
	if raw == "" {
		return ""
	}
	return HashToken(raw)[:8]
}

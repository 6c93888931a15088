package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newTestSigner(c *clock) *Signer {
	return NewSigner(SignerConfig{
		AccessSecret:  accessSecret,
		AccessTTL:     15 * time.Minute,
		RefreshSecret: refreshSecret,
		RefreshTTL:    30 * 24 * time.Hour,
		Now:           c.Now,
	}, nil)
}

func TestSignerKindsAreNotInterchangeable(t *testing.T) {
	c := &clock{t: time.Now()}
	s := newTestSigner(c)

	access, err := s.IssueAccess(alice)
	require.NoError(t, err)
	refresh, err := s.IssueRefresh(alice)
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, access.TTL)
	require.Equal(t, 30*24*time.Hour, refresh.TTL)

	_, err = s.VerifyAccess(refresh.Value)
	require.ErrorIs(t, err, ErrTokenInvalid)
	_, err = s.VerifyRefresh(access.Value)
	require.ErrorIs(t, err, ErrTokenInvalid)

	p, err := s.VerifyAccess(access.Value)
	require.NoError(t, err)
	require.Equal(t, alice.ID, p.ID)
	p, err = s.VerifyRefresh(refresh.Value)
	require.NoError(t, err)
	require.Equal(t, alice.Role, p.Role)
}

func TestSignerExpiry(t *testing.T) {
	c := &clock{t: time.Now()}
	s := newTestSigner(c)

	access, err := s.IssueAccess(alice)
	require.NoError(t, err)

	c.t = c.t.Add(16 * time.Minute)
	_, err = s.VerifyAccess(access.Value)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

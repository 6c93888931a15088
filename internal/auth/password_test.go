package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", hash)

	require.NoError(t, h.Compare(hash, "correct horse"))
	require.ErrorIs(t, h.Compare(hash, "battery staple"), ErrPasswordMismatch)

	err = h.Compare("not-a-bcrypt-hash", "x")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestNewHasherClampsCost(t *testing.T) {
	require.Equal(t, bcrypt.MinCost, NewHasher(1).Cost)
	require.Equal(t, bcrypt.MaxCost, NewHasher(99).Cost)
	require.Equal(t, 12, NewHasher(12).Cost)
}

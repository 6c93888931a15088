package user

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtLeast(t *testing.T) {
	cases := []struct {
		role, required Role
		want           bool
	}{
		{RoleUser, RoleUser, true},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleUser, RoleAdmin, false},
		{Role("root"), RoleUser, false},
		{Role(""), RoleUser, false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, AtLeast(c.role, c.required), "%q >= %q", c.role, c.required)
	}
	require.True(t, RoleAdmin.Valid())
	require.False(t, Role("root").Valid())
}

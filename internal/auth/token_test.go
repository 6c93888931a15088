package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/NordCoder/Tasker/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("access-secret-for-tests")
	refreshSecret = []byte("refresh-secret-for-tests")
	alice         = Payload{ID: "6f1c2f8e-0000-4000-8000-000000000001", Role: user.RoleUser, Name: "Alice"}
)

func TestSignVerify(t *testing.T) {
	now := time.Now()
	tok, exp, err := Sign(alice, KindAccess, accessSecret, 15*time.Minute, now)
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.WithinDuration(t, now.Add(15*time.Minute), exp, time.Second)

	p, err := Verify(tok, KindAccess, accessSecret, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, alice, *p)
}

func TestSignProducesDistinctTokens(t *testing.T) {
	now := time.Now()
	a, _, err := Sign(alice, KindRefresh, refreshSecret, time.Hour, now)
	require.NoError(t, err)
	b, _, err := Sign(alice, KindRefresh, refreshSecret, time.Hour, now)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestSignEmptySecret(t *testing.T) {
	_, _, err := Sign(alice, KindAccess, nil, time.Minute, time.Now())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejects(t *testing.T) {
	now := time.Now()
	access, _, err := Sign(alice, KindAccess, accessSecret, time.Minute, now)
	require.NoError(t, err)
	refresh, _, err := Sign(alice, KindRefresh, refreshSecret, time.Hour, now)
	require.NoError(t, err)
	sameSecretRefresh, _, err := Sign(alice, KindRefresh, accessSecret, time.Hour, now)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": alice.ID, "kind": "access", "exp": now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(access, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	cases := []struct {
		name   string
		token  string
		kind   Kind
		secret []byte
		at     time.Time
	}{
		{"malformed", "not-a-token", KindAccess, accessSecret, now},
		{"empty", "", KindAccess, accessSecret, now},
		{"wrong secret", access, KindAccess, refreshSecret, now},
		{"expired", access, KindAccess, accessSecret, now.Add(2 * time.Minute)},
		{"refresh presented as access", refresh, KindAccess, accessSecret, now},
		{"kind mismatch with shared secret", sameSecretRefresh, KindAccess, accessSecret, now},
		{"tampered payload", tampered, KindAccess, accessSecret, now},
		{"alg none", none, KindAccess, accessSecret, now},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := Verify(c.token, c.kind, c.secret, c.at)
			require.Nil(t, p)
			require.ErrorIs(t, err, ErrTokenInvalid)
			require.Equal(t, ErrTokenInvalid, err)
		})
	}
}

func TestHashTokenAndFingerprint(t *testing.T) {
	require.Equal(t, HashToken("abc"), HashToken("abc"))
	require.NotEqual(t, HashToken("abc"), HashToken("abd"))
	require.Len(t, Fingerprint("abc"), 8)
	require.Empty(t, Fingerprint(""))
}

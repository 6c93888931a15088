package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	cases := []struct {
		kind   Kind
		code   int
		status string
	}{
		{KindBadRequest, http.StatusBadRequest, StatusFail},
		{KindNotFound, http.StatusNotFound, StatusFail},
		{KindInvalidCredential, http.StatusBadRequest, StatusFail},
		{KindInvalidToken, http.StatusBadRequest, StatusFail},
		{KindUnauthorized, http.StatusUnauthorized, StatusFail},
		{KindConflict, http.StatusConflict, StatusFail},
		{KindRateLimited, http.StatusTooManyRequests, StatusFail},
		{KindServerFailed, http.StatusInternalServerError, StatusError},
	}
	for _, c := range cases {
		t.Run(c.kind.String(), func(t *testing.T) {
			require.Equal(t, c.code, c.kind.HTTPStatus())
			require.Equal(t, c.status, c.kind.Status())
		})
	}
}

func TestAsHidesUnknownErrors(t *testing.T) {
	err := As(errors.New("pq: connection refused on 10.0.0.3"))
	require.Equal(t, KindServerFailed, err.Kind)
	require.Equal(t, Body{Error: "Internal server error.", Status: StatusError}, err.Body())
}

func TestAsFindsWrapped(t *testing.T) {
	base := NotFound("User not found.")
	err := As(fmt.Errorf("login: %w", base))
	require.Same(t, base, err)
	require.Equal(t, "fail", err.Body().Status)
	require.Nil(t, As(nil))
}

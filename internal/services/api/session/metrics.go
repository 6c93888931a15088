package session

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})
	renewalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_renewals_total",
		Help: "Access token renewals by result.",
	}, []string{"result"})
	sessionsRevokedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_sessions_revoked_total",
		Help: "Sessions removed by owner-wide revocation.",
	})
)

func observe(c *prometheus.CounterVec, err error) {
	c.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCredentialsRequired),
		errors.Is(err, ErrClientIdentityRequired),
		errors.Is(err, ErrRefreshTokenRequired):
		return "bad_request"
	case errors.Is(err, ErrUserNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidPassword):
		return "invalid_credential"
	case errors.Is(err, ErrInvalidRefreshToken):
		return "invalid_token"
	default:
		return "error"
	}
}

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func (e *env) doFrom(remote, method, path string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func requireRetryAfter(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	secs, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err, "Retry-After: %q", rec.Header().Get("Retry-After"))
	require.Positive(t, secs)
}

func TestStrictLimitOnCredentialRoutes(t *testing.T) {
	e := newEnvWithLimits(t, RateLimits{Strict: Limit{Requests: 2, Window: time.Hour}})
	creds := map[string]string{"email": "nobody@example.com", "password": "whatever-1"}

	for i := 0; i < 2; i++ {
		rec := e.do(http.MethodPost, "/api/v1/auth/login", creds, hdr{"User-Agent": "deviceA"})
		require.NotEqual(t, http.StatusTooManyRequests, rec.Code)
	}
	rec := e.do(http.MethodPost, "/api/v1/auth/login", creds, hdr{"User-Agent": "deviceA"})
	requireError(t, rec, http.StatusTooManyRequests, "Too many critical requests, please try again later.", "fail")
	requireRetryAfter(t, rec)

	// One bucket covers every credential route.
	rec = e.renew("anything", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	rec = e.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = e.do(http.MethodGet, "/api/v1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.doFrom("198.51.100.7:4000", http.MethodPost, "/api/v1/auth/refresh-token")
	require.NotEqual(t, http.StatusTooManyRequests, rec.Code)
}

func TestGeneralLimitOnEveryRoute(t *testing.T) {
	e := newEnvWithLimits(t, RateLimits{General: Limit{Requests: 3, Window: time.Minute}})

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/v1", nil, nil).Code)
	}
	rec := e.do(http.MethodGet, "/api/v1/todos", nil, nil)
	requireError(t, rec, http.StatusTooManyRequests, "Too many requests, please try again later.", "fail")
	requireRetryAfter(t, rec)

	require.Equal(t, http.StatusOK, e.doFrom("198.51.100.7:4000", http.MethodGet, "/api/v1").Code)
}

func TestLoopbackSkipsLimits(t *testing.T) {
	e := newEnvWithLimits(t, RateLimits{
		General:      Limit{Requests: 1, Window: time.Hour},
		SkipLoopback: true,
	})

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, e.doFrom("127.0.0.1:5000", http.MethodGet, "/api/v1").Code)
		require.Equal(t, http.StatusOK, e.doFrom("[::1]:5000", http.MethodGet, "/api/v1").Code)
	}
	require.Equal(t, http.StatusOK, e.doFrom("192.0.2.9:1", http.MethodGet, "/api/v1").Code)
	require.Equal(t, http.StatusTooManyRequests, e.doFrom("192.0.2.9:1", http.MethodGet, "/api/v1").Code)
}

func TestLimiterRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter("test", "slow down", Limit{Requests: 2, Window: time.Minute}, false)
	l.now = func() time.Time { return now }

	_, ok := l.reserve("a")
	require.True(t, ok)
	_, ok = l.reserve("a")
	require.True(t, ok)
	wait, ok := l.reserve("a")
	require.False(t, ok)
	require.InDelta(t, float64(30*time.Second), float64(wait), float64(time.Millisecond))
	require.Equal(t, "30", retryAfter(wait))

	// A rejected request does not consume a token.
	wait, ok = l.reserve("a")
	require.False(t, ok)
	require.InDelta(t, float64(30*time.Second), float64(wait), float64(time.Millisecond))

	now = now.Add(31 * time.Second)
	_, ok = l.reserve("a")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, _ = l.reserve("b")
	require.Len(t, l.visitors, 1)
}

func TestLimiterDisabled(t *testing.T) {
	require.Nil(t, newLimiter("off", "", Limit{}, false))
	require.Nil(t, newLimiter("off", "", Limit{Requests: 5}, false))

	var l *limiter
	rec := httptest.NewRecorder()
	require.Nil(t, l.allow(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	require.Equal(t, "1", retryAfter(200*time.Millisecond))
}

package httpapi

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/NordCoder/Tasker/internal/apperr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_rate_limited_total",
	Help: "Requests rejected by a rate limiter, by limiter.",
}, []string{"limiter"})

// Limit allows Requests per Window for each client address. A non-positive
// Requests disables the limiter.
type Limit struct {
	Requests int
	Window   time.Duration
}

type RateLimits struct {
	// General applies to every request.
	General Limit
	// Strict applies on top of General to the credential routes.
	Strict Limit
	// SkipLoopback exempts clients connecting from localhost.
	SkipLoopback bool
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiter is a token bucket per client address. The bucket holds Requests
// tokens and refills completely over Window.
type limiter struct {
	name         string
	msg          string
	limit        Limit
	skipLoopback bool
	now          func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newLimiter(name, msg string, l Limit, skipLoopback bool) *limiter {
	if l.Requests <= 0 || l.Window <= 0 {
		return nil
	}
	return &limiter{
		name:         name,
		msg:          msg,
		limit:        l,
		skipLoopback: skipLoopback,
		now:          time.Now,
		visitors:     map[string]*visitor{},
	}
}

// reserve takes a token for key. When none is left it returns how long the
// client has to wait for the next one.
func (l *limiter) reserve(key string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	v, ok := l.visitors[key]
	if !ok {
		every := rate.Every(l.limit.Window / time.Duration(l.limit.Requests))
		v = &visitor{lim: rate.NewLimiter(every, l.limit.Requests)}
		l.visitors[key] = v
	}
	v.seen = now

	r := v.lim.ReserveN(now, 1)
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return d, false
	}
	return 0, true
}

// sweep forgets clients idle for a full window; their buckets are full again.
func (l *limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.limit.Window {
		return
	}
	for k, v := range l.visitors {
		if now.Sub(v.seen) >= l.limit.Window {
			delete(l.visitors, k)
		}
	}
	l.lastSweep = now
}

func (l *limiter) allow(w http.ResponseWriter, r *http.Request) *apperr.Error {
	if l == nil {
		return nil
	}
	host := clientHost(r)
	if l.skipLoopback && isLoopback(host) {
		return nil
	}
	wait, ok := l.reserve(host)
	if ok {
		return nil
	}
	rateLimitedTotal.WithLabelValues(l.name).Inc()
	w.Header().Set("Retry-After", retryAfter(wait))
	return apperr.RateLimited(l.msg)
}

// middleware guards a whole handler tree.
func (l *limiter) middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ae := l.allow(w, r); ae != nil {
			writeError(w, ae)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// wrap guards a single route.
func (l *limiter) wrap(h HandlerFunc) HandlerFunc {
	if l == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) error {
		if ae := l.allow(w, r); ae != nil {
			return ae
		}
		return h(w, r, params)
	}
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// retryAfter renders d in whole seconds, rounded up and at least one.
func retryAfter(d time.Duration) string {
	secs := int64(math.Ceil(d.Round(time.Millisecond).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

// Package httpapi serves the JSON API over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/NordCoder/Tasker/internal/apperr"
	"github.com/NordCoder/Tasker/internal/domain/task"
	"github.com/NordCoder/Tasker/internal/domain/user"
	"github.com/NordCoder/Tasker/internal/obs"
	"github.com/NordCoder/Tasker/internal/services/api/account"
	"github.com/NordCoder/Tasker/internal/services/api/session"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// HandlerFunc is a route handler. A returned error is rendered as the
// error body; nothing must have been written yet.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, params map[string]string) error

type Sessions interface {
	Login(ctx context.Context, email, password, clientIdentity string) (*session.Tokens, error)
	Renew(ctx context.Context, refreshToken string) (*session.Tokens, error)
}

type Accounts interface {
	Register(ctx context.Context, in account.RegisterInput) (*user.User, error)
	Me(ctx context.Context, id string) (*user.User, error)
	Update(ctx context.Context, id string, upd account.Update) (*user.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*user.User, error)
	DeleteByID(ctx context.Context, adminID, id string) error
}

type Tasks interface {
	Create(ctx context.Context, ownerID, title, description string) (*task.Task, error)
	Get(ctx context.Context, ownerID, id string) (*task.Task, error)
	List(ctx context.Context, ownerID string) ([]*task.Task, error)
	Update(ctx context.Context, ownerID, id string, p task.Patch) (*task.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type Deps struct {
	Sessions Sessions
	Accounts Accounts
	Tasks    Tasks
	Tokens   AccessVerifier
}

type Options struct {
	APIVersion   int
	AllowOrigins []string
	RateLimits   RateLimits
	Logger       *zap.Logger
}

type Server struct {
	sessions Sessions
	accounts Accounts
	tasks    Tasks
	guard    *Guard
	log      *zap.Logger
	base     string
	allow    []string
	general  *limiter
	strict   *limiter
	mux      *runtime.ServeMux
}

func NewServer(d Deps, o Options) (*Server, error) {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if o.APIVersion <= 0 {
		o.APIVersion = 1
	}
	lim := o.RateLimits
	general := newLimiter("general", "Too many requests, please try again later.", lim.General, lim.SkipLoopback)
	strict := newLimiter("strict", "Too many critical requests, please try again later.", lim.Strict, lim.SkipLoopback)

	s := &Server{
		sessions: d.Sessions,
		accounts: d.Accounts,
		tasks:    d.Tasks,
		guard:    NewGuard(d.Tokens),
		log:      log.With(zap.String("component", "httpapi")),
		base:     fmt.Sprintf("/api/v%d", o.APIVersion),
		allow:    o.AllowOrigins,
		general:  general,
		strict:   strict,
	}
	s.mux = runtime.NewServeMux(runtime.WithRoutingErrorHandler(s.routingError))
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() error {
	authed := s.guard.Authenticate
	strict := s.strict.wrap
	admin := func(h HandlerFunc) HandlerFunc {
		return authed(s.guard.RequireRole(user.RoleAdmin, h))
	}

	table := []struct {
		method, path string
		h            HandlerFunc
	}{
		{http.MethodGet, "", s.home},
		{http.MethodPost, "/auth/register", strict(s.register)},
		{http.MethodPost, "/auth/login", strict(s.login)},
		// Public: the refresh token alone identifies the session, an
		// expired access token must not block renewal.
		{http.MethodPost, "/auth/refresh-token", strict(s.refreshToken)},

		{http.MethodGet, "/users/me", authed(s.getMe)},
		{http.MethodPut, "/users/me", authed(s.updateMe)},
		{http.MethodDelete, "/users/me", authed(s.deleteMe)},

		{http.MethodGet, "/admin/users", admin(s.listUsers)},
		{http.MethodDelete, "/admin/users/{id}", admin(s.deleteUser)},

		{http.MethodGet, "/todos", authed(s.listTodos)},
		{http.MethodPost, "/todos", authed(s.createTodo)},
		{http.MethodGet, "/todos/{id}", authed(s.getTodo)},
		{http.MethodPut, "/todos/{id}", authed(s.updateTodo)},
		{http.MethodDelete, "/todos/{id}", authed(s.deleteTodo)},
	}
	for _, rt := range table {
		pattern := s.base + rt.path
		if err := s.mux.HandlePath(rt.method, pattern, s.adapt(rt.method+" "+pattern, rt.h)); err != nil {
			return fmt.Errorf("route %s %s: %w", rt.method, pattern, err)
		}
	}
	return nil
}

func (s *Server) adapt(route string, h HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		observe(route, s.log, func(w http.ResponseWriter, r *http.Request) {
			if err := h(w, r, params); err != nil {
				s.fail(w, r, err)
			}
		})(w, r)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	ae := mapErr(err)
	if ae.Kind == apperr.KindServerFailed {
		obs.WithTrace(r.Context(), s.log).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, ae)
}

func (s *Server) routingError(_ context.Context, _ *runtime.ServeMux, _ runtime.Marshaler, w http.ResponseWriter, r *http.Request, _ int) {
	writeError(w, apperr.NotFound("Not Found - "+r.URL.Path))
}

// Handler is the root handler: tracing, CORS, the general rate limit, the
// root redirect and the API routes.
func (s *Server) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			http.Redirect(w, r, s.base, http.StatusFound)
			return
		}
		s.mux.ServeHTTP(w, r)
	})
	h = s.general.middleware(h)
	h = cors(s.allow)(h)
	return otelhttp.NewHandler(h, "api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func (s *Server) home(w http.ResponseWriter, _ *http.Request, _ map[string]string) error {
	writeJSON(w, http.StatusOK, message{Message: "Welcome to the Tasker API."})
	return nil
}

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/NordCoder/Tasker/internal/apperr"
	"github.com/NordCoder/Tasker/internal/auth"
	"github.com/NordCoder/Tasker/internal/domain/user"
)

type AccessVerifier interface {
	VerifyAccess(token string) (*auth.Payload, error)
}

type ctxKey int

const identityKey ctxKey = 1

func WithIdentity(ctx context.Context, p auth.Payload) context.Context {
	return context.WithValue(ctx, identityKey, p)
}

// IdentityFromContext returns the payload attached by Guard.Authenticate.
func IdentityFromContext(ctx context.Context) (auth.Payload, bool) {
	p, ok := ctx.Value(identityKey).(auth.Payload)
	return p, ok
}

// Guard admits requests carrying a valid access token. It never consults
// the session store: access tokens stay valid until they expire.
type Guard struct {
	tokens AccessVerifier
}

func NewGuard(tokens AccessVerifier) *Guard { return &Guard{tokens: tokens} }

func (g *Guard) Authenticate(next HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) error {
		header := r.Header.Get("Authorization")
		if header == "" {
			return apperr.Unauthorized("Authorization header is missing.")
		}
		token := bearer(header)
		if token == "" {
			return apperr.Unauthorized("Token is missing.")
		}
		p, err := g.tokens.VerifyAccess(token)
		if err != nil {
			return apperr.Wrap(apperr.KindUnauthorized, "Token is invalid.", err)
		}
		return next(w, r.WithContext(WithIdentity(r.Context(), *p)), params)
	}
}

// RequireRole admits identities whose role is at least required. It must
// run after Authenticate.
func (g *Guard) RequireRole(required user.Role, next HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) error {
		p, ok := IdentityFromContext(r.Context())
		if !ok || !user.AtLeast(p.Role, required) {
			return apperr.Unauthorized("Access denied.")
		}
		return next(w, r, params)
	}
}

func bearer(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

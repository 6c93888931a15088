// Package session issues, renews and revokes refresh-token sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NordCoder/Tasker/internal/auth"
	"github.com/NordCoder/Tasker/internal/domain/outbox"
	domainsession "github.com/NordCoder/Tasker/internal/domain/session"
	"github.com/NordCoder/Tasker/internal/domain/user"
	"github.com/NordCoder/Tasker/internal/obs"
	"github.com/NordCoder/Tasker/internal/obs/retry"
	"github.com/NordCoder/Tasker/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrCredentialsRequired    = errors.New("email and password are required")
	ErrClientIdentityRequired = errors.New("client identity is required")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidPassword        = errors.New("invalid password")
	ErrRefreshTokenRequired   = errors.New("refresh token is required")
	ErrInvalidRefreshToken    = errors.New("invalid refresh token")
)

type Users interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

type TokenIssuer interface {
	IssueAccess(p auth.Payload) (auth.Token, error)
	IssueRefresh(p auth.Payload) (auth.Token, error)
	VerifyRefresh(token string) (*auth.Payload, error)
}

type PasswordVerifier interface {
	Compare(hash, password string) error
}

type Transactor interface {
	WithTx(ctx context.Context, function func(ctx context.Context) error) error
}

type Events interface {
	SessionOpened(ctx context.Context, ev outbox.SessionOpened) error
	SessionsRevoked(ctx context.Context, ev outbox.SessionsRevoked) error
}

type Config struct {
	// RotateRefresh replaces the refresh token on every renewal.
	RotateRefresh bool
	Now           func() time.Time
}

type Usecase struct {
	users    Users
	sessions domainsession.Store
	tokens   TokenIssuer
	hasher   PasswordVerifier
	tx       Transactor
	events   Events
	log      *zap.Logger
	cfg      Config
}

type Deps struct {
	Users    Users
	Sessions domainsession.Store
	Tokens   TokenIssuer
	Hasher   PasswordVerifier
	Tx       Transactor
	Events   Events
	Log      *zap.Logger
}

func NewUsecase(d Deps, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Usecase{
		users:    d.Users,
		sessions: d.Sessions,
		tokens:   d.Tokens,
		hasher:   d.Hasher,
		tx:       d.Tx,
		events:   d.Events,
		log:      d.Log.With(zap.String("component", "session.uc")),
		cfg:      cfg,
	}
}

// Tokens returned to the client. RefreshToken is empty on a renewal without
// rotation.
type Tokens struct {
	AccessToken      string
	ExpiresIn        time.Duration
	RefreshToken     string
	RefreshExpiresIn time.Duration
}

var tracer = otel.Tracer("session.uc")

// Login checks the password and opens a session for clientIdentity,
// replacing any session the same client already had.
func (u *Usecase) Login(ctx context.Context, email, password, clientIdentity string) (_ *Tokens, err error) {
	ctx, span := tracer.Start(ctx, "session.login")
	defer span.End()
	defer func() { observe(loginsTotal, err) }()

	email = user.NormalizeEmail(email)
	clientIdentity = strings.TrimSpace(clientIdentity)
	if email == "" || password == "" {
		return nil, u.reject(ctx, span, "login", "validate", ErrCredentialsRequired)
	}
	if clientIdentity == "" {
		return nil, u.reject(ctx, span, "login", "validate", ErrClientIdentityRequired)
	}

	usr, err := u.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, u.reject(ctx, span, "login", "lookup", ErrUserNotFound)
	}
	if err != nil {
		return nil, u.fail(ctx, span, "login", "lookup", err)
	}
	span.SetAttributes(attribute.String("user.id", usr.ID))

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, u.reject(ctx, span, "login", "password", ErrInvalidPassword)
		}
		return nil, u.fail(ctx, span, "login", "password", err)
	}

	payload := auth.Payload{ID: usr.ID, Role: usr.Role, Name: usr.Name}
	var out *Tokens
	err = retry.Do(ctx, func() error {
		var err error
		out, err = u.open(ctx, payload, clientIdentity)
		return err
	}, retry.ConflictPolicy("session_login", repository.ErrConflict))
	if err != nil {
		return nil, u.fail(ctx, span, "login", "persist", err)
	}

	obs.WithTrace(ctx, u.log).Info("session opened",
		zap.String("user_id", usr.ID),
		zap.String("client", clientIdentity),
		zap.String("refresh", auth.Fingerprint(out.RefreshToken)),
	)
	return out, nil
}

// open mints a token pair and stores the refresh session in one
// transaction, after dropping the client's previous session.
func (u *Usecase) open(ctx context.Context, p auth.Payload, client string) (*Tokens, error) {
	access, err := u.tokens.IssueAccess(p)
	if err != nil {
		return nil, err
	}
	refresh, err := u.tokens.IssueRefresh(p)
	if err != nil {
		return nil, err
	}

	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := u.sessions.DeleteByOwnerAndClient(ctx, p.ID, client); err != nil {
			return fmt.Errorf("revoke previous session: %w", err)
		}
		if err := u.store(ctx, p.ID, client, refresh); err != nil {
			return err
		}
		return u.events.SessionOpened(ctx, outbox.SessionOpened{
			UserID:         p.ID,
			ClientIdentity: client,
			ExpiresAt:      refresh.ExpiresAt,
			At:             u.cfg.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return &Tokens{
		AccessToken:      access.Value,
		ExpiresIn:        access.TTL,
		RefreshToken:     refresh.Value,
		RefreshExpiresIn: refresh.TTL,
	}, nil
}

func (u *Usecase) store(ctx context.Context, ownerID, client string, refresh auth.Token) error {
	rec := &domainsession.Record{
		Token:          refresh.Value,
		OwnerID:        ownerID,
		ClientIdentity: client,
		ExpiresAt:      refresh.ExpiresAt,
		CreatedAt:      u.cfg.Now(),
	}
	if err := u.sessions.Put(ctx, rec); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Renew exchanges a refresh token for a new access token. The token must
// verify and be backed by a live stored session.
func (u *Usecase) Renew(ctx context.Context, refreshToken string) (_ *Tokens, err error) {
	ctx, span := tracer.Start(ctx, "session.renew")
	defer span.End()
	defer func() { observe(renewalsTotal, err) }()

	if refreshToken == "" {
		return nil, u.reject(ctx, span, "renew", "validate", ErrRefreshTokenRequired)
	}
	payload, err := u.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, u.reject(ctx, span, "renew", "verify", ErrInvalidRefreshToken)
	}
	span.SetAttributes(attribute.String("user.id", payload.ID))

	rec, err := u.sessions.FindByToken(ctx, refreshToken)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, u.reject(ctx, span, "renew", "lookup", ErrInvalidRefreshToken)
	}
	if err != nil {
		return nil, u.fail(ctx, span, "renew", "lookup", err)
	}
	if !rec.Live(u.cfg.Now()) || rec.OwnerID != payload.ID {
		return nil, u.reject(ctx, span, "renew", "expiry", ErrInvalidRefreshToken)
	}

	access, err := u.tokens.IssueAccess(*payload)
	if err != nil {
		return nil, u.fail(ctx, span, "renew", "sign", err)
	}
	out := &Tokens{AccessToken: access.Value, ExpiresIn: access.TTL}

	if u.cfg.RotateRefresh {
		if err := u.rotate(ctx, *payload, rec, out); err != nil {
			if errors.Is(err, ErrInvalidRefreshToken) {
				return nil, u.reject(ctx, span, "renew", "rotate", err)
			}
			return nil, u.fail(ctx, span, "renew", "rotate", err)
		}
	}
	return out, nil
}

func (u *Usecase) rotate(ctx context.Context, p auth.Payload, rec *domainsession.Record, out *Tokens) error {
	refresh, err := u.tokens.IssueRefresh(p)
	if err != nil {
		return err
	}
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		n, err := u.sessions.DeleteByToken(ctx, rec.Token)
		if err != nil {
			return fmt.Errorf("drop rotated session: %w", err)
		}
		if n == 0 {
			return ErrInvalidRefreshToken
		}
		return u.store(ctx, rec.OwnerID, rec.ClientIdentity, refresh)
	})
	if err != nil {
		return err
	}
	out.RefreshToken = refresh.Value
	out.RefreshExpiresIn = refresh.TTL
	return nil
}

// RevokeAllForOwner drops every session of ownerID, live or expired.
// Revoking an owner without sessions is not an error.
func (u *Usecase) RevokeAllForOwner(ctx context.Context, ownerID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "session.revoke_all", trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer span.End()

	var n int64
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = u.sessions.DeleteAllByOwner(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		if n == 0 {
			return nil
		}
		return u.events.SessionsRevoked(ctx, outbox.SessionsRevoked{
			UserID: ownerID,
			Count:  n,
			Reason: "account_deleted",
			At:     u.cfg.Now(),
		})
	})
	if err != nil {
		return 0, u.fail(ctx, span, "revoke", "delete", err)
	}
	sessionsRevokedTotal.Add(float64(n))
	span.SetAttributes(attribute.Int64("sessions.revoked", n))
	obs.WithTrace(ctx, u.log).Info("sessions revoked", zap.String("user_id", ownerID), zap.Int64("count", n))
	return n, nil
}

func (u *Usecase) reject(ctx context.Context, span trace.Span, op, step string, err error) error {
	span.SetAttributes(attribute.String("auth.step", step), attribute.String("auth.outcome", "rejected"))
	obs.WithTrace(ctx, u.log).Info(op+" rejected", zap.String("step", step), zap.Error(err))
	return err
}

func (u *Usecase) fail(ctx context.Context, span trace.Span, op, step string, err error) error {
	span.RecordError(err)
	span.SetAttributes(attribute.String("auth.step", step), attribute.String("auth.outcome", "error"))
	obs.WithTrace(ctx, u.log).Error(op+" failed", zap.String("step", step), zap.Error(err))
	return fmt.Errorf("%s: %s: %w", op, step, err)
}

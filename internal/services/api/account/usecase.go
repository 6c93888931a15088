// Package account manages user profiles and account removal.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NordCoder/Tasker/internal/domain/outbox"
	"github.com/NordCoder/Tasker/internal/domain/user"
	"github.com/NordCoder/Tasker/internal/obs"
	"github.com/NordCoder/Tasker/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmailExists = errors.New("user already registered")
	ErrNoChanges   = errors.New("at least one field is required")
	ErrNotFound    = errors.New("user not found")
)

type Sessions interface {
	RevokeAllForOwner(ctx context.Context, ownerID string) (int64, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Transactor interface {
	WithTx(ctx context.Context, function func(ctx context.Context) error) error
}

type Events interface {
	AccountDeleted(ctx context.Context, ev outbox.AccountDeleted) error
}

type Deps struct {
	Users    user.Repo
	Sessions Sessions
	Hasher   PasswordHasher
	Tx       Transactor
	Events   Events
	Log      *zap.Logger
}

type Usecase struct {
	users    user.Repo
	sessions Sessions
	hasher   PasswordHasher
	tx       Transactor
	events   Events
	log      *zap.Logger
	clk      func() time.Time
}

func New(d Deps, clk func() time.Time) *Usecase {
	if clk == nil {
		clk = func() time.Time { return time.Now().UTC() }
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Usecase{
		users:    d.Users,
		sessions: d.Sessions,
		hasher:   d.Hasher,
		tx:       d.Tx,
		events:   d.Events,
		log:      d.Log.With(zap.String("component", "account.uc")),
		clk:      clk,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	usr := &user.User{
		ID:           uuid.NewString(),
		Email:        user.NormalizeEmail(in.Email),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         user.RoleUser,
	}
	if err := u.users.Create(ctx, usr); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	obs.WithTrace(ctx, u.log).Info("user registered", zap.String("user_id", usr.ID))
	return usr, nil
}

func (u *Usecase) Me(ctx context.Context, id string) (*user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	usr, err := u.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return usr, err
}

// Update is a partial profile change; nil fields are kept.
type Update struct {
	Name     *string
	Email    *string
	Password *string
}

func (p Update) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil
}

func (u *Usecase) Update(ctx context.Context, id string, upd Update) (*user.User, error) {
	if upd.Empty() {
		return nil, ErrNoChanges
	}
	cur, err := u.Me(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		cur.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		cur.Email = user.NormalizeEmail(*upd.Email)
	}
	if upd.Password != nil {
		hash, err := u.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		cur.PasswordHash = hash
	}
	switch err := u.users.Update(ctx, cur); {
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrEmailExists
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}
	return cur, nil
}

// List returns one page of accounts ordered by creation time.
func (u *Usecase) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return u.users.List(ctx, limit, offset)
}

// Delete removes the caller's own account.
func (u *Usecase) Delete(ctx context.Context, id string) error {
	return u.remove(ctx, id, id)
}

// DeleteByID removes another account on behalf of an administrator.
func (u *Usecase) DeleteByID(ctx context.Context, adminID, id string) error {
	return u.remove(ctx, id, adminID)
}

// remove revokes every session of id and deletes the account in one
// transaction. Tasks go with the account.
func (u *Usecase) remove(ctx context.Context, id, actor string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	var revoked int64
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		n, err := u.sessions.RevokeAllForOwner(ctx, id)
		if err != nil {
			return err
		}
		revoked = n
		if err := u.users.Delete(ctx, id); err != nil {
			return err
		}
		return u.events.AccountDeleted(ctx, outbox.AccountDeleted{UserID: id, DeletedBy: actor, At: u.clk()})
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		obs.WithTrace(ctx, u.log).Error("delete account failed", zap.String("user_id", id), zap.Error(err))
		return fmt.Errorf("delete account: %w", err)
	}
	obs.WithTrace(ctx, u.log).Info("account deleted",
		zap.String("user_id", id),
		zap.String("deleted_by", actor),
		zap.Int64("sessions_revoked", revoked),
	)
	return nil
}

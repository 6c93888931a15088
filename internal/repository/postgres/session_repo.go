package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Tasker/internal/auth"
	"github.com/NordCoder/Tasker/internal/domain/session"
	"github.com/jackc/pgx/v5"
)

var _ session.Store = (*SessionRepo)(nil)

// SessionRepo keeps refresh-token sessions keyed by the token hash; the raw
// token value never reaches the database.
type SessionRepo struct{ db *DB }

func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

const (
	qSessionInsert = `
INSERT INTO sessions (token_hash, user_id, client_identity, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5);`

	qSessionByToken = `
SELECT user_id::text, client_identity, expires_at, created_at
FROM sessions
WHERE token_hash = $1;`

	qSessionDeleteByToken = `
DELETE FROM sessions WHERE token_hash = $1;`

	qSessionDeleteByOwnerClient = `
DELETE FROM sessions WHERE user_id = $1 AND client_identity = $2;`

	qSessionDeleteByOwner = `
DELETE FROM sessions WHERE user_id = $1;`

	qSessionDeleteExpired = `
DELETE FROM sessions
WHERE token_hash IN (
    SELECT token_hash FROM sessions
    WHERE expires_at <= $1
    ORDER BY expires_at
    LIMIT $2
);`
)

func (r *SessionRepo) Put(ctx context.Context, rec *session.Record) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.execQueryer(ctx).Exec(ctx, qSessionInsert,
		auth.HashToken(rec.Token), rec.OwnerID, rec.ClientIdentity, rec.ExpiresAt, createdAt)
	if err != nil {
		return fmt.Errorf("session insert: %w", mapPgErr(err))
	}
	return nil
}

func (r *SessionRepo) FindByToken(ctx context.Context, token string) (*session.Record, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rec := session.Record{Token: token}
	err := r.db.execQueryer(ctx).QueryRow(ctx, qSessionByToken, auth.HashToken(token)).
		Scan(&rec.OwnerID, &rec.ClientIdentity, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session by token: %w", err)
	}
	return &rec, nil
}

func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) (int64, error) {
	return r.exec(ctx, "session delete by token", qSessionDeleteByToken, auth.HashToken(token))
}

func (r *SessionRepo) DeleteByOwnerAndClient(ctx context.Context, ownerID, client string) (int64, error) {
	return r.exec(ctx, "session delete by client", qSessionDeleteByOwnerClient, ownerID, client)
}

func (r *SessionRepo) DeleteAllByOwner(ctx context.Context, ownerID string) (int64, error) {
	return r.exec(ctx, "session delete by owner", qSessionDeleteByOwner, ownerID)
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	if limit <= 0 {
		return 0, errors.New("limit must be > 0")
	}
	return r.exec(ctx, "session delete expired", qSessionDeleteExpired, now, limit)
}

func (r *SessionRepo) exec(ctx context.Context, op, q string, args ...any) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected(), nil
}

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/NordCoder/Tasker/internal/auth"
	"github.com/NordCoder/Tasker/internal/domain/session"
	"github.com/NordCoder/Tasker/internal/repository"
)

var _ session.Store = (*SessionRepo)(nil)

type SessionRepo struct{ s *Store }

func (r *SessionRepo) Put(ctx context.Context, rec *session.Record) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.users[rec.OwnerID]; !ok {
		return repository.ErrConstraint
	}
	key := auth.HashToken(rec.Token)
	if _, ok := r.s.data.sessions[key]; ok {
		return repository.ErrConflict
	}
	for _, row := range r.s.data.sessions {
		if row.ownerID == rec.OwnerID && row.client == rec.ClientIdentity {
			return repository.ErrConflict
		}
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.s.now()
	}
	r.s.data.sessions[key] = sessionRow{
		ownerID:   rec.OwnerID,
		client:    rec.ClientIdentity,
		expiresAt: rec.ExpiresAt,
		createdAt: createdAt,
	}
	return nil
}

func (r *SessionRepo) FindByToken(ctx context.Context, token string) (*session.Record, error) {
	defer r.s.rlock(ctx)()

	row, ok := r.s.data.sessions[auth.HashToken(token)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session.Record{
		Token:          token,
		OwnerID:        row.ownerID,
		ClientIdentity: row.client,
		ExpiresAt:      row.expiresAt,
		CreatedAt:      row.createdAt,
	}, nil
}

func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) (int64, error) {
	defer r.s.lock(ctx)()

	key := auth.HashToken(token)
	if _, ok := r.s.data.sessions[key]; !ok {
		return 0, nil
	}
	delete(r.s.data.sessions, key)
	return 1, nil
}

func (r *SessionRepo) DeleteByOwnerAndClient(ctx context.Context, ownerID, client string) (int64, error) {
	return r.deleteWhere(ctx, func(row sessionRow) bool {
		return row.ownerID == ownerID && row.client == client
	}, 0), nil
}

func (r *SessionRepo) DeleteAllByOwner(ctx context.Context, ownerID string) (int64, error) {
	return r.deleteWhere(ctx, func(row sessionRow) bool { return row.ownerID == ownerID }, 0), nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	return r.deleteWhere(ctx, func(row sessionRow) bool { return !row.expiresAt.After(now) }, limit), nil
}

// Count returns the number of stored rows, live or not, owned by ownerID.
func (r *SessionRepo) Count(ownerID string) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, row := range r.s.data.sessions {
		if row.ownerID == ownerID {
			n++
		}
	}
	return n
}

func (r *SessionRepo) deleteWhere(ctx context.Context, match func(sessionRow) bool, limit int) int64 {
	defer r.s.lock(ctx)()

	keys := make([]string, 0)
	for k, row := range r.s.data.sessions {
		if match(row) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return r.s.data.sessions[keys[i]].expiresAt.Before(r.s.data.sessions[keys[j]].expiresAt)
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	for _, k := range keys {
		delete(r.s.data.sessions, k)
	}
	return int64(len(keys))
}

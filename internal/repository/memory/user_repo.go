package memory

import (
	"context"
	"sort"

	"github.com/NordCoder/Tasker/internal/domain/user"
	"github.com/NordCoder/Tasker/internal/repository"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.users[u.ID]; ok {
		return repository.ErrConflict
	}
	if _, ok := r.s.data.emails[u.Email]; ok {
		return repository.ErrConflict
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.data.users[u.ID] = *u
	r.s.data.emails[u.Email] = u.ID
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	defer r.s.rlock(ctx)()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	defer r.s.rlock(ctx)()

	id, ok := r.s.data.emails[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := r.s.data.users[id]
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, u *user.User) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.data.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Email != u.Email {
		if _, taken := r.s.data.emails[u.Email]; taken {
			return repository.ErrConflict
		}
		delete(r.s.data.emails, cur.Email)
		r.s.data.emails[u.Email] = u.ID
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = r.s.now()
	r.s.data.users[u.ID] = *u
	return nil
}

// Delete refuses while sessions still reference the user and removes the
// user's tasks.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()

	u, ok := r.s.data.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, row := range r.s.data.sessions {
		if row.ownerID == id {
			return repository.ErrConstraint
		}
	}
	for tid, t := range r.s.data.tasks {
		if t.UserID == id {
			delete(r.s.data.tasks, tid)
		}
	}
	delete(r.s.data.emails, u.Email)
	delete(r.s.data.users, id)
	return nil
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	defer r.s.rlock(ctx)()

	all := make([]*user.User, 0, len(r.s.data.users))
	for _, u := range r.s.data.users {
		u := u
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []*user.User{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

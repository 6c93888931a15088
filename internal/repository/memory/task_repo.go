package memory

import (
	"context"
	"sort"

	"github.com/NordCoder/Tasker/internal/domain/task"
	"github.com/NordCoder/Tasker/internal/repository"
)

var _ task.Repo = (*TaskRepo)(nil)

type TaskRepo struct{ s *Store }

func (r *TaskRepo) Create(ctx context.Context, t *task.Task) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.users[t.UserID]; !ok {
		return repository.ErrConstraint
	}
	if _, ok := r.s.data.tasks[t.ID]; ok {
		return repository.ErrConflict
	}
	now := r.s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.data.tasks[t.ID] = *t
	return nil
}

func (r *TaskRepo) GetByOwner(ctx context.Context, ownerID, id string) (*task.Task, error) {
	defer r.s.rlock(ctx)()

	t, ok := r.s.data.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]*task.Task, error) {
	defer r.s.rlock(ctx)()

	out := make([]*task.Task, 0)
	for _, t := range r.s.data.tasks {
		if t.UserID == ownerID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *TaskRepo) Update(ctx context.Context, t *task.Task) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.data.tasks[t.ID]
	if !ok || cur.UserID != t.UserID {
		return repository.ErrNotFound
	}
	t.CreatedAt = cur.CreatedAt
	t.UpdatedAt = r.s.now()
	r.s.data.tasks[t.ID] = *t
	return nil
}

func (r *TaskRepo) DeleteByOwner(ctx context.Context, ownerID, id string) error {
	defer r.s.lock(ctx)()

	t, ok := r.s.data.tasks[id]
	if !ok || t.UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.s.data.tasks, id)
	return nil
}

package task

import (
	"context"
	"errors"
	"strings"

	"github.com/NordCoder/Tasker/internal/domain/task"
	"github.com/NordCoder/Tasker/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("todo not found")
	ErrNoChanges = errors.New("at least one field is required")
)

type Usecase struct {
	repo task.Repo
}

func New(repo task.Repo) *Usecase {
	return &Usecase{repo: repo}
}

func (u *Usecase) Create(ctx context.Context, ownerID, title, description string) (*task.Task, error) {
	t := &task.Task{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}
	if err := u.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns the task only if ownerID owns it; anything else reads as
// ErrNotFound.
func (u *Usecase) Get(ctx context.Context, ownerID, id string) (*task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	t, err := u.repo.GetByOwner(ctx, ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

func (u *Usecase) List(ctx context.Context, ownerID string) ([]*task.Task, error) {
	return u.repo.ListByOwner(ctx, ownerID)
}

func (u *Usecase) Update(ctx context.Context, ownerID, id string, p task.Patch) (*task.Task, error) {
	if p.Empty() {
		return nil, ErrNoChanges
	}
	cur, err := u.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	p.Apply(cur)
	if err := u.repo.Update(ctx, cur); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cur, nil
}

func (u *Usecase) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	err := u.repo.DeleteByOwner(ctx, ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

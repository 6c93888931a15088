package task

import "context"

type Repo interface {
	Create(ctx context.Context, t *Task) error
	GetByOwner(ctx context.Context, ownerID, id string) (*Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	DeleteByOwner(ctx context.Context, ownerID, id string) error
}

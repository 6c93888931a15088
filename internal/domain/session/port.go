package session

import (
	"context"
	"time"
)

type Store interface {
	Put(ctx context.Context, rec *Record) error
	FindByToken(ctx context.Context, token string) (*Record, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByOwnerAndClient(ctx context.Context, ownerID, client string) (int64, error)
	DeleteAllByOwner(ctx context.Context, ownerID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

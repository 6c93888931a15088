package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/NordCoder/Tasker/internal/domain/outbox"
)

var _ outbox.Repository = (*OutboxRepo)(nil)

const (
	statusCreated    outbox.Status = "CREATED"
	statusInProgress outbox.Status = "IN_PROGRESS"
	statusSuccess    outbox.Status = "SUCCESS"
)

type OutboxRepo struct{ s *Store }

func (r *OutboxRepo) Enqueue(ctx context.Context, m outbox.Message) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.outbox[m.IdempotencyKey]; ok {
		return nil
	}
	now := r.s.now()
	m.Status, m.CreatedAt, m.UpdatedAt = statusCreated, now, now
	r.s.data.outbox[m.IdempotencyKey] = m
	return nil
}

func (r *OutboxRepo) PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]outbox.Message, error) {
	if batch <= 0 {
		return nil, errors.New("batch must be > 0")
	}
	defer r.s.lock(ctx)()

	now := r.s.now()
	cand := make([]outbox.Message, 0)
	for _, m := range r.s.data.outbox {
		stale := m.Status == statusInProgress && m.UpdatedAt.Before(now.Add(-inProgressTTL))
		if m.Status == statusCreated || stale {
			cand = append(cand, m)
		}
	}
	sort.Slice(cand, func(i, j int) bool { return cand[i].CreatedAt.Before(cand[j].CreatedAt) })
	if len(cand) > batch {
		cand = cand[:batch]
	}
	for i := range cand {
		cand[i].Status, cand[i].UpdatedAt = statusInProgress, now
		r.s.data.outbox[cand[i].IdempotencyKey] = cand[i]
	}
	return cand, nil
}

func (r *OutboxRepo) MarkSuccess(ctx context.Context, keys []string) error {
	defer r.s.lock(ctx)()

	now := r.s.now()
	for _, k := range keys {
		if m, ok := r.s.data.outbox[k]; ok {
			m.Status, m.UpdatedAt = statusSuccess, now
			r.s.data.outbox[k] = m
		}
	}
	return nil
}

// Pending lists messages not yet delivered, oldest first.
func (r *OutboxRepo) Pending() []outbox.Message {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]outbox.Message, 0)
	for _, m := range r.s.data.outbox {
		if m.Status != statusSuccess {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

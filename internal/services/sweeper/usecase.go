package sweeper

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Sessions interface {
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

type Usecase struct {
	Sessions Sessions
	Now      func() time.Time
}

func NewUC(sessions Sessions, now func() time.Time) *Usecase {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Usecase{Sessions: sessions, Now: now}
}

// Tick deletes expired sessions in batches of limit until a batch comes
// back short. It returns how many were removed.
func (u *Usecase) Tick(ctx context.Context, limit int) (int64, error) {
	if limit <= 0 {
		limit = 100
	}

	tr := otel.Tracer("sweeper.uc")
	ctx, span := tr.Start(ctx, "sweeper.tick",
		trace.WithAttributes(attribute.Int("batch.limit", limit)),
	)
	defer span.End()

	now := u.Now()
	var total int64
	for {
		n, err := u.Sessions.DeleteExpired(ctx, now, limit)
		total += n
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Int64("sessions.deleted", total))
			return total, fmt.Errorf("delete expired: %w", err)
		}
		if n < int64(limit) || ctx.Err() != nil {
			break
		}
	}
	span.SetAttributes(attribute.Int64("sessions.deleted", total))
	return total, nil
}

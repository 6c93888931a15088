package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/Tasker/internal/domain/outbox"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Writer records auth events in the outbox. Called inside the transaction
// that performs the state change, the event commits or rolls back with it.
type Writer struct {
	repo outbox.Repository
}

func NewWriter(repo outbox.Repository) *Writer { return &Writer{repo: repo} }

func (w *Writer) SessionOpened(ctx context.Context, ev outbox.SessionOpened) error {
	return w.enqueue(ctx, outbox.KindSessionOpened, ev)
}

func (w *Writer) SessionsRevoked(ctx context.Context, ev outbox.SessionsRevoked) error {
	return w.enqueue(ctx, outbox.KindSessionsRevoked, ev)
}

func (w *Writer) AccountDeleted(ctx context.Context, ev outbox.AccountDeleted) error {
	return w.enqueue(ctx, outbox.KindAccountDeleted, ev)
}

func (w *Writer) enqueue(ctx context.Context, kind outbox.Kind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	return w.repo.Enqueue(ctx, outbox.Message{
		IdempotencyKey: uuid.NewString(),
		Kind:           kind,
		Data:           data,
		Traceparent:    carrier.Get("traceparent"),
		Tracestate:     carrier.Get("tracestate"),
		Baggage:        carrier.Get("baggage"),
	})
}

// Nop drops every event. Used when event publishing is disabled.
type Nop struct{}

func (Nop) SessionOpened(context.Context, outbox.SessionOpened) error     { return nil }
func (Nop) SessionsRevoked(context.Context, outbox.SessionsRevoked) error { return nil }
func (Nop) AccountDeleted(context.Context, outbox.AccountDeleted) error   { return nil }

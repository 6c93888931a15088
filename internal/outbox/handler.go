package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NordCoder/Tasker/internal/domain/outbox"
	"github.com/NordCoder/Tasker/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Publisher delivers decoded auth events to the broker.
type Publisher interface {
	PublishSessionOpened(ctx context.Context, ev outbox.SessionOpened) error
	PublishSessionsRevoked(ctx context.Context, ev outbox.SessionsRevoked) error
	PublishAccountDeleted(ctx context.Context, ev outbox.AccountDeleted) error
}

var (
	outboxHandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outboxHandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers (after retries).",
	}, []string{"kind"})
)

func instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle")
		defer span.End()
		span.SetAttributes(attribute.String("outbox.kind", kind))

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		outboxHandlerLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			outboxHandlerErrors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

func decodeInto[T any](publish func(context.Context, T) error) outbox.KindHandler {
	return func(ctx context.Context, data []byte) error {
		var ev T
		if err := json.Unmarshal(data, &ev); err != nil {
			return retry.Permanent(fmt.Errorf("unmarshal payload: %w", err))
		}
		return publish(ctx, ev)
	}
}

// MakeGlobalOutboxHandler routes each kind to its publisher method,
// retried with pol.
func MakeGlobalOutboxHandler(pub Publisher, pol retry.Policy) outbox.GlobalHandler {
	handlers := map[outbox.Kind]outbox.KindHandler{
		outbox.KindSessionOpened:   decodeInto(pub.PublishSessionOpened),
		outbox.KindSessionsRevoked: decodeInto(pub.PublishSessionsRevoked),
		outbox.KindAccountDeleted:  decodeInto(pub.PublishAccountDeleted),
	}
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		h, ok := handlers[kind]
		if !ok {
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
		return instrument(kind.String(), h, pol), nil
	}
}

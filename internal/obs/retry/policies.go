package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// KafkaPolicy retries event publishing with exponential backoff.
func KafkaPolicy(log *zap.Logger) Policy {
	return Policy{
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("outbox retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox retries exhausted", zap.Error(err))
			}
		},
	}
}

// ConflictPolicy retries a transaction that lost a uniqueness race.
func ConflictPolicy(name string, conflict error) Policy {
	return Policy{
		Name:      name,
		Attempts:  3,
		Backoff:   ExpoJitter{Base: 5 * time.Millisecond, Max: 50 * time.Millisecond, Jitter: 0.5},
		Retryable: On(conflict),
	}
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("conflict")

func TestDoRetriesOnlyRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errConflict
		}
		return nil
	}, ConflictPolicy("test_ok", errConflict))
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	calls = 0
	other := errors.New("other")
	err = Do(context.Background(), func() error {
		calls++
		return other
	}, ConflictPolicy("test_other", errConflict))
	require.ErrorIs(t, err, other)
	require.Equal(t, 1, calls)
}

func TestDoExhausts(t *testing.T) {
	var exhausted error
	p := ConflictPolicy("test_exhaust", errConflict)
	p.OnExhaust = func(err error) { exhausted = err }

	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return errConflict
	}, p)
	require.ErrorIs(t, err, errConflict)
	require.ErrorIs(t, exhausted, errConflict)
	require.Equal(t, p.Attempts, calls)
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Name: "test_cancel", Attempts: 5, Backoff: ExpoJitter{Base: time.Hour}}
	calls := 0
	err := Do(ctx, func() error {
		calls++
		cancel()
		return errConflict
	}, p)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestExpoJitterCapped(t *testing.T) {
	b := ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second}
	require.Equal(t, 100*time.Millisecond, b.Next(0))
	require.Equal(t, 400*time.Millisecond, b.Next(2))
	require.Equal(t, time.Second, b.Next(10))
}

func TestDoSkipsPermanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return Permanent(errConflict)
	}, ConflictPolicy("test_permanent", errConflict))
	require.ErrorIs(t, err, errConflict)
	require.Equal(t, 1, calls)
	require.NoError(t, Permanent(nil))
}

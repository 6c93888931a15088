package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Tasker/internal/domain/outbox"
	"github.com/NordCoder/Tasker/internal/obs/retry"
	"github.com/NordCoder/Tasker/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePublisher struct {
	mu      sync.Mutex
	opened  []outbox.SessionOpened
	revoked []outbox.SessionsRevoked
	deleted []outbox.AccountDeleted
	fail    int
}

func (p *fakePublisher) take() error {
	if p.fail > 0 {
		p.fail--
		return errors.New("broker unavailable")
	}
	return nil
}

func (p *fakePublisher) PublishSessionOpened(_ context.Context, ev outbox.SessionOpened) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.take(); err != nil {
		return err
	}
	p.opened = append(p.opened, ev)
	return nil
}

func (p *fakePublisher) PublishSessionsRevoked(_ context.Context, ev outbox.SessionsRevoked) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.take(); err != nil {
		return err
	}
	p.revoked = append(p.revoked, ev)
	return nil
}

func (p *fakePublisher) PublishAccountDeleted(_ context.Context, ev outbox.AccountDeleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.take(); err != nil {
		return err
	}
	p.deleted = append(p.deleted, ev)
	return nil
}

func TestWriterAndHandlerRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Outbox()
	w := NewWriter(repo)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, w.SessionOpened(ctx, outbox.SessionOpened{UserID: "u1", ClientIdentity: "deviceA", ExpiresAt: at.Add(time.Hour), At: at}))
	require.NoError(t, w.SessionsRevoked(ctx, outbox.SessionsRevoked{UserID: "u1", Count: 2, Reason: "account_deleted", At: at}))
	require.NoError(t, w.AccountDeleted(ctx, outbox.AccountDeleted{UserID: "u1", DeletedBy: "u1", At: at}))

	pending := repo.Pending()
	require.Len(t, pending, 3)

	pub := &fakePublisher{}
	dispatch := MakeGlobalOutboxHandler(pub, retry.Policy{})
	for _, m := range pending {
		h, err := dispatch(m.Kind)
		require.NoError(t, err)
		require.NoError(t, h(ctx, m.Data))
	}

	require.Len(t, pub.opened, 1)
	require.Equal(t, "deviceA", pub.opened[0].ClientIdentity)
	require.True(t, pub.opened[0].ExpiresAt.Equal(at.Add(time.Hour)))
	require.Len(t, pub.revoked, 1)
	require.EqualValues(t, 2, pub.revoked[0].Count)
	require.Len(t, pub.deleted, 1)
}

func TestHandlerUnknownKind(t *testing.T) {
	dispatch := MakeGlobalOutboxHandler(&fakePublisher{}, retry.Policy{})
	_, err := dispatch(outbox.Kind(42))
	require.Error(t, err)
}

func TestHandlerRejectsGarbage(t *testing.T) {
	attempts := 0
	pol := retry.Policy{Attempts: 5, OnAttempt: func(int, error) { attempts++ }}
	dispatch := MakeGlobalOutboxHandler(&fakePublisher{}, pol)
	h, err := dispatch(outbox.KindAccountDeleted)
	require.NoError(t, err)
	require.Error(t, h(context.Background(), []byte("{")))
	require.Equal(t, 1, attempts)
}

func TestHandlerRetries(t *testing.T) {
	pub := &fakePublisher{fail: 2}
	dispatch := MakeGlobalOutboxHandler(pub, retry.Policy{Attempts: 3})
	h, err := dispatch(outbox.KindSessionOpened)
	require.NoError(t, err)
	require.NoError(t, h(context.Background(), []byte(`{"user_id":"u1"}`)))
	require.Len(t, pub.opened, 1)
}

func TestRunnerTick(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Outbox()
	w := NewWriter(repo)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.AccountDeleted(ctx, outbox.AccountDeleted{UserID: "u1"}))
	}

	pub := &fakePublisher{}
	r := NewOutboxRunner(zaptest.NewLogger(t), repo, MakeGlobalOutboxHandler(pub, retry.Policy{}), RunnerConfig{BatchSize: 2})

	require.Equal(t, 2, r.tick(ctx))
	require.Len(t, repo.Pending(), 1)
	require.Equal(t, 1, r.tick(ctx))
	require.Empty(t, repo.Pending())
	require.Equal(t, 0, r.tick(ctx))
	require.Len(t, pub.deleted, 3)
}

func TestRunnerLeavesFailedInProgress(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Outbox()
	require.NoError(t, NewWriter(repo).SessionOpened(ctx, outbox.SessionOpened{UserID: "u1"}))

	pub := &fakePublisher{fail: 1}
	r := NewOutboxRunner(zaptest.NewLogger(t), repo, MakeGlobalOutboxHandler(pub, retry.Policy{}), RunnerConfig{InProgressTTL: time.Hour})

	require.Equal(t, 0, r.tick(ctx))
	require.Len(t, repo.Pending(), 1)
	// still in progress, not yet stale
	require.Equal(t, 0, r.tick(ctx))
	require.Empty(t, pub.opened)
}

func TestRunnerRunStops(t *testing.T) {
	repo := memory.New().Outbox()
	r := NewOutboxRunner(zaptest.NewLogger(t), repo, MakeGlobalOutboxHandler(&fakePublisher{}, retry.Policy{}),
		RunnerConfig{Workers: 2, WaitTime: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

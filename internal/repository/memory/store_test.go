package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NordCoder/Tasker/internal/domain/session"
	"github.com/NordCoder/Tasker/internal/domain/task"
	"github.com/NordCoder/Tasker/internal/domain/user"
	"github.com/NordCoder/Tasker/internal/repository"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *Store, id, email string) {
	t.Helper()
	require.NoError(t, s.Users().Create(context.Background(), &user.User{
		ID: id, Email: email, Name: "n", PasswordHash: "h", Role: user.RoleUser,
	}))
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "a@example.com")
	sessions := s.Sessions()
	now := time.Now()

	rec := &session.Record{Token: "tok-1", OwnerID: "u1", ClientIdentity: "deviceA", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, sessions.Put(ctx, rec))

	err := sessions.Put(ctx, &session.Record{Token: "tok-1", OwnerID: "u1", ClientIdentity: "deviceB", ExpiresAt: now.Add(time.Hour)})
	require.ErrorIs(t, err, repository.ErrConflict)
	err = sessions.Put(ctx, &session.Record{Token: "tok-2", OwnerID: "u1", ClientIdentity: "deviceA", ExpiresAt: now.Add(time.Hour)})
	require.ErrorIs(t, err, repository.ErrConflict)
	err = sessions.Put(ctx, &session.Record{Token: "tok-3", OwnerID: "ghost", ClientIdentity: "deviceA", ExpiresAt: now.Add(time.Hour)})
	require.ErrorIs(t, err, repository.ErrConstraint)

	got, err := sessions.FindByToken(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, "u1", got.OwnerID)
	require.Equal(t, "deviceA", got.ClientIdentity)
	require.True(t, got.Live(now))

	_, err = sessions.FindByToken(ctx, "tok-unknown")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, sessions.Put(ctx, &session.Record{Token: "tok-b", OwnerID: "u1", ClientIdentity: "deviceB", ExpiresAt: now.Add(time.Hour)}))
	n, err := sessions.DeleteByOwnerAndClient(ctx, "u1", "deviceA")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, 1, sessions.Count("u1"))

	n, err = sessions.DeleteAllByOwner(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	n, err = sessions.DeleteAllByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSessionDeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "a@example.com")
	now := time.Now()
	for i, d := range []time.Duration{-3 * time.Hour, -2 * time.Hour, -time.Hour, time.Hour} {
		require.NoError(t, s.Sessions().Put(ctx, &session.Record{
			Token: string(rune('a' + i)), OwnerID: "u1", ClientIdentity: string(rune('A' + i)), ExpiresAt: now.Add(d),
		}))
	}

	n, err := s.Sessions().DeleteExpired(ctx, now, 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	n, err = s.Sessions().DeleteExpired(ctx, now, 2)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, 1, s.Sessions().Count("u1"))
}

func TestUserDeleteNeedsRevokedSessions(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "a@example.com")
	require.NoError(t, s.Tasks().Create(ctx, &task.Task{ID: "t1", UserID: "u1", Title: "x", Description: "y"}))
	require.NoError(t, s.Sessions().Put(ctx, &session.Record{Token: "tok", OwnerID: "u1", ClientIdentity: "d", ExpiresAt: time.Now().Add(time.Hour)}))

	require.ErrorIs(t, s.Users().Delete(ctx, "u1"), repository.ErrConstraint)

	_, err := s.Sessions().DeleteAllByOwner(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, s.Users().Delete(ctx, "u1"))

	_, err = s.Tasks().GetByOwner(ctx, "u1", "t1")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Users().GetByEmail(ctx, "a@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "a@example.com")
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Sessions().Put(ctx, &session.Record{Token: "tok", OwnerID: "u1", ClientIdentity: "d", ExpiresAt: time.Now().Add(time.Hour)}))
		return s.WithTx(ctx, func(context.Context) error { return boom })
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, s.Sessions().Count("u1"))

	require.NoError(t, s.WithTx(ctx, func(ctx context.Context) error {
		return s.Sessions().Put(ctx, &session.Record{Token: "tok", OwnerID: "u1", ClientIdentity: "d", ExpiresAt: time.Now().Add(time.Hour)})
	}))
	require.Equal(t, 1, s.Sessions().Count("u1"))
}

func TestWithTxRollbackKeepsOutsideWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	started := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- s.WithTx(ctx, func(ctx context.Context) error {
			if err := s.Users().Create(ctx, &user.User{ID: "tx-user", Email: "tx@example.com"}); err != nil {
				return err
			}
			close(started)
			<-release
			return boom
		})
	}()
	<-started

	created := make(chan error, 1)
	go func() {
		created <- s.Users().Create(ctx, &user.User{ID: "u1", Email: "a@example.com"})
	}()

	select {
	case <-created:
		t.Fatal("write outside the transaction went through while it was open")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	require.ErrorIs(t, <-txDone, boom)
	require.NoError(t, <-created)

	_, err := s.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	_, err = s.Users().GetByID(ctx, "tx-user")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithTxHidesUncommittedWrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	inside := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- s.WithTx(ctx, func(ctx context.Context) error {
			if err := s.Users().Create(ctx, &user.User{ID: "u1", Email: "a@example.com"}); err != nil {
				return err
			}
			close(inside)
			<-release
			return nil
		})
	}()
	<-inside

	read := make(chan error, 1)
	go func() {
		_, err := s.Users().GetByEmail(ctx, "a@example.com")
		read <- err
	}()
	select {
	case <-read:
		t.Fatal("read returned while the transaction was open")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	require.NoError(t, <-txDone)
	require.NoError(t, <-read)
}

func TestSessionPutLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "a@example.com")

	rec := &session.Record{Token: "tok", OwnerID: "u1", ClientIdentity: "d", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.Sessions().Put(ctx, rec))
	require.True(t, rec.CreatedAt.IsZero())

	got, err := s.Sessions().FindByToken(ctx, "tok")
	require.NoError(t, err)
	require.False(t, got.CreatedAt.IsZero())
}

func TestUserRepoUniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "a@example.com")
	seedUser(t, s, "u2", "b@example.com")

	err := s.Users().Create(ctx, &user.User{ID: "u3", Email: "a@example.com"})
	require.ErrorIs(t, err, repository.ErrConflict)

	u, err := s.Users().GetByID(ctx, "u2")
	require.NoError(t, err)
	u.Email = "a@example.com"
	require.ErrorIs(t, s.Users().Update(ctx, u), repository.ErrConflict)

	list, err := s.Users().List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestOutboxPickAndMark(t *testing.T) {
	ctx := context.Background()
	s := New()
	ob := s.Outbox()
	require.NoError(t, ob.Enqueue(ctx, outboxMsg("k1")))
	require.NoError(t, ob.Enqueue(ctx, outboxMsg("k1")))
	require.NoError(t, ob.Enqueue(ctx, outboxMsg("k2")))

	picked, err := ob.PickBatch(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, picked, 2)

	again, err := ob.PickBatch(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Empty(t, again)

	require.NoError(t, ob.MarkSuccess(ctx, []string{"k1", "k2"}))
	require.Empty(t, ob.Pending())
}

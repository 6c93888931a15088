package task

import (
	"context"
	"testing"

	"github.com/NordCoder/Tasker/internal/domain/task"
	"github.com/NordCoder/Tasker/internal/domain/user"
	"github.com/NordCoder/Tasker/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Usecase, string, string) {
	t.Helper()
	st := memory.New()
	alice, bob := uuid.NewString(), uuid.NewString()
	for i, id := range []string{alice, bob} {
		u := &user.User{ID: id, Email: []string{"alice@example.com", "bob@example.com"}[i], Role: user.RoleUser}
		require.NoError(t, st.Users().Create(context.Background(), u))
	}
	return New(st.Tasks()), alice, bob
}

func ptr[T any](v T) *T { return &v }

func TestCreateGetList(t *testing.T) {
	uc, alice, bob := setup(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, alice, " Buy milk ", "2 litres")
	require.NoError(t, err)
	require.Equal(t, "Buy milk", created.Title)
	require.False(t, created.Completed)

	got, err := uc.Get(ctx, alice, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	list, err := uc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = uc.List(ctx, bob)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestForeignTaskReadsAsNotFound(t *testing.T) {
	uc, alice, bob := setup(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, alice, "secret", "alice only")
	require.NoError(t, err)

	_, err = uc.Get(ctx, bob, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = uc.Update(ctx, bob, created.ID, task.Patch{Completed: ptr(true)})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, uc.Delete(ctx, bob, created.ID), ErrNotFound)

	_, err = uc.Get(ctx, alice, "not-a-uuid")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, uc.Delete(ctx, alice, "not-a-uuid"), ErrNotFound)
}

func TestUpdateAndDelete(t *testing.T) {
	uc, alice, _ := setup(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, alice, "write report", "q3")
	require.NoError(t, err)

	_, err = uc.Update(ctx, alice, created.ID, task.Patch{})
	require.ErrorIs(t, err, ErrNoChanges)

	updated, err := uc.Update(ctx, alice, created.ID, task.Patch{Completed: ptr(true)})
	require.NoError(t, err)
	require.True(t, updated.Completed)
	require.Equal(t, "write report", updated.Title)

	require.NoError(t, uc.Delete(ctx, alice, created.ID))
	_, err = uc.Get(ctx, alice, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, uc.Delete(ctx, alice, created.ID), ErrNotFound)
}

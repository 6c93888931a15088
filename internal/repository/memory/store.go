// Package memory is an in-process storage driver with the same semantics as
// the postgres driver. It backs local runs without a database and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/NordCoder/Tasker/internal/domain/outbox"
	"github.com/NordCoder/Tasker/internal/domain/task"
	"github.com/NordCoder/Tasker/internal/domain/user"
)

type sessionRow struct {
	ownerID   string
	client    string
	expiresAt time.Time
	createdAt time.Time
}

type state struct {
	users    map[string]user.User
	emails   map[string]string
	sessions map[string]sessionRow
	tasks    map[string]task.Task
	outbox   map[string]outbox.Message
}

func newState() state {
	return state{
		users:    map[string]user.User{},
		emails:   map[string]string{},
		sessions: map[string]sessionRow{},
		tasks:    map[string]task.Task{},
		outbox:   map[string]outbox.Message{},
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.emails {
		c.emails[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	return c
}

// Store owns all tables. Repositories are views over it.
type Store struct {
	mu   sync.RWMutex
	data state
	now  func() time.Time
}

func New() *Store {
	return &Store{data: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the clock used for created/updated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Users() *UserRepo       { return &UserRepo{s: s} }
func (s *Store) Sessions() *SessionRepo { return &SessionRepo{s: s} }
func (s *Store) Tasks() *TaskRepo       { return &TaskRepo{s: s} }
func (s *Store) Outbox() *OutboxRepo    { return &OutboxRepo{s: s} }

type txKey struct{}

// WithTx holds the write lock for the whole of function, so other callers
// neither see its writes before it returns nor write underneath it. On
// failure the state taken at the start is restored. Nested calls join the
// outer transaction.
func (s *Store) WithTx(ctx context.Context, function func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return function(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := function(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the write lock unless ctx already runs inside a transaction
// of s, which holds it.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) Ping(context.Context) error { return nil }

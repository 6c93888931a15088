// Package lifecycle tears a process down exactly once.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Coordinator runs registered close hooks in reverse order on the first
// Shutdown call. Later calls wait for that run and return its result.
type Coordinator struct {
	log *zap.Logger

	mu      sync.Mutex
	hooks   []hook
	started bool

	once sync.Once
	done chan struct{}
	err  error
}

func New(log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{log: log, done: make(chan struct{})}
}

// Register adds a hook. It reports false once shutdown has begun; the hook
// is not run in that case.
func (c *Coordinator) Register(name string, fn func(context.Context) error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		c.log.Warn("hook registered after shutdown", zap.String("hook", name))
		return false
	}
	c.hooks = append(c.hooks, hook{name: name, fn: fn})
	return true
}

func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		c.mu.Lock()
		c.started = true
		hooks := c.hooks
		c.mu.Unlock()

		for i := len(hooks) - 1; i >= 0; i-- {
			h := hooks[i]
			start := time.Now()
			err := c.run(ctx, h)
			if err != nil {
				c.log.Error("shutdown hook failed", zap.String("hook", h.name), zap.Error(err))
				c.err = multierr.Append(c.err, fmt.Errorf("%s: %w", h.name, err))
				continue
			}
			c.log.Info("shutdown hook done", zap.String("hook", h.name), zap.Duration("took", time.Since(start)))
		}
		close(c.done)
	})
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) run(ctx context.Context, h hook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.fn(ctx)
}

// Done is closed when the first Shutdown has run every hook.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// ShuttingDown reports whether Shutdown has been called.
func (c *Coordinator) ShuttingDown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

package main

import (
	"context"
	"fmt"

	config "github.com/NordCoder/Tasker/internal/config/api"
	"github.com/NordCoder/Tasker/internal/domain/outbox"
	domainsession "github.com/NordCoder/Tasker/internal/domain/session"
	"github.com/NordCoder/Tasker/internal/domain/task"
	"github.com/NordCoder/Tasker/internal/domain/user"
	"github.com/NordCoder/Tasker/internal/obs"
	"github.com/NordCoder/Tasker/internal/repository/memory"
	pg "github.com/NordCoder/Tasker/internal/repository/postgres"
	"go.uber.org/zap"
)

type transactor interface {
	WithTx(ctx context.Context, function func(ctx context.Context) error) error
}

// storage is the set of repositories backing one process, whichever driver
// provides them.
type storage struct {
	users    user.Repo
	sessions domainsession.Store
	tasks    task.Repo
	outbox   outbox.Repository
	tx       transactor
	ping     obs.HealthCheck
	close    func()
}

func initStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	switch cfg.DB.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		s := memory.New()
		return &storage{
			users:    s.Users(),
			sessions: s.Sessions(),
			tasks:    s.Tasks(),
			outbox:   s.Outbox(),
			tx:       s,
			ping:     s.Ping,
			close:    func() {},
		}, nil
	case config.DriverPostgres:
		db, err := pg.New(ctx, cfg.DB.Config)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		return &storage{
			users:    pg.NewUserRepo(db),
			sessions: pg.NewSessionRepo(db),
			tasks:    pg.NewTaskRepo(db),
			outbox:   pg.NewOutboxRepo(db),
			tx:       pg.NewTransactor(db, logger),
			ping:     db.Ping,
			close:    db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}
}

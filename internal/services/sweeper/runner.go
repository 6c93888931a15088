// Package sweeper removes expired session records in the background.
package sweeper

import (
	"context"
	"time"

	config "github.com/NordCoder/Tasker/internal/config/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	mDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_sessions_deleted_total", Help: "Expired sessions removed",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_errors_total", Help: "Errors in sweeper loop",
	})
	mLoopDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "sweeper_loop_duration_seconds", Help: "Sweeper tick duration",
		Buckets: prometheus.DefBuckets,
	})
)

type Runner struct {
	Log *zap.Logger
	UC  *Usecase
	Cfg *config.Sweeper
}

func New(log *zap.Logger, uc *Usecase, cfg *config.Sweeper) *Runner {
	return &Runner{Log: log, UC: uc, Cfg: cfg}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	deleted, err := r.UC.Tick(ctx, r.Cfg.BatchLimit)
	if err != nil {
		mErr.Inc()
		r.Log.Warn("sweep error", zap.Error(err))
	}
	if deleted > 0 {
		mDeleted.Add(float64(deleted))
		r.Log.Debug("swept expired sessions", zap.Int64("deleted", deleted))
	}
	mLoopDur.Observe(time.Since(start).Seconds())
}

// Run sweeps once immediately and then every Cfg.Tick until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	tick := r.Cfg.Tick
	if tick <= 0 {
		tick = time.Minute
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

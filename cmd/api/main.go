package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	config "github.com/NordCoder/Tasker/internal/config/api"
	"github.com/NordCoder/Tasker/internal/lifecycle"
	"github.com/NordCoder/Tasker/internal/obs"
	"github.com/NordCoder/Tasker/internal/obs/retry"
	"github.com/NordCoder/Tasker/internal/outbox"
	"github.com/NordCoder/Tasker/internal/repository/kafka"
	"github.com/NordCoder/Tasker/internal/services/sweeper"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var errDraining = errors.New("shutting down")

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Path())
	if err != nil {
		panic(err)
	}

	logger, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	shutdown := lifecycle.New(logger)

	otelCloser, err := obs.SetupOTel(rootCtx, cfg.AsOTELConfig())
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	shutdown.Register("otel", otelCloser.Shutdown)

	st, err := initStorage(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("storage init", zap.Error(err))
	}
	shutdown.Register("storage", func(context.Context) error { st.close(); return nil })

	draining := func(context.Context) error {
		if shutdown.ShuttingDown() {
			return errDraining
		}
		return nil
	}
	checks := map[string]obs.HealthCheck{
		"db":        st.ping,
		"lifecycle": draining,
	}
	if cfg.Server.MetricsAddr != "" {
		metricsSrv := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, checks, logger)
		shutdown.Register("metrics", metricsSrv.Shutdown)
	}

	var (
		ev       events = outbox.Nop{}
		producer *kafka.Producer
	)
	if cfg.Kafka.Enable {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		shutdown.Register("kafka", func(context.Context) error { return producer.Close() })
		ev = outbox.NewWriter(st.outbox)
	}

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	shutdown.Register("workers", func(context.Context) error {
		stopWorkers()
		workers.Wait()
		return nil
	})

	if producer != nil {
		dispatch := outbox.MakeGlobalOutboxHandler(kafka.NewAuthEvents(producer), retry.KafkaPolicy(logger))
		runner := outbox.NewOutboxRunner(logger, st.outbox, dispatch, outbox.RunnerConfig{
			Workers:       cfg.Outbox.Workers,
			BatchSize:     cfg.Outbox.BatchSize,
			WaitTime:      cfg.Outbox.WaitTime,
			InProgressTTL: cfg.Outbox.InProgressTTL,
		})
		workers.Add(1)
		go func() {
			defer workers.Done()
			runner.Run(workersCtx)
		}()
	}

	if cfg.Sweeper.Enable {
		sw := sweeper.New(logger.With(zap.String("component", "sweeper")), sweeper.NewUC(st.sessions, nil), &cfg.Sweeper)
		workers.Add(1)
		go func() {
			defer workers.Done()
			_ = sw.Run(workersCtx)
		}()
	}

	grpcServer, grpcHealth, grpcLn, err := buildGRPCServer(cfg)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	shutdown.Register("grpc", func(context.Context) error {
		grpcHealth.Shutdown()
		grpcServer.GracefulStop()
		return nil
	})

	grpcErrCh := make(chan error, 1)
	go func() { grpcErrCh <- serveGRPC(grpcServer, grpcLn, cfg, logger) }()

	httpSrv, err := buildHTTPServer(cfg, logger, st, ev, checks)
	if err != nil {
		logger.Fatal("build http", zap.Error(err))
	}
	shutdown.Register("http", httpSrv.Shutdown)

	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, logger) }()

	grpcHealth.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-grpcErrCh:
		if err != nil {
			logger.Error("grpc serve", zap.Error(err))
		}
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := shutdown.Shutdown(shCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("bye")
}

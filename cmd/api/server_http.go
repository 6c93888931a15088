package main

import (
	"net/http"
	"time"

	"github.com/NordCoder/Tasker/internal/auth"
	config "github.com/NordCoder/Tasker/internal/config/api"
	"github.com/NordCoder/Tasker/internal/obs"
	"github.com/NordCoder/Tasker/internal/services/api/account"
	"github.com/NordCoder/Tasker/internal/services/api/httpapi"
	"github.com/NordCoder/Tasker/internal/services/api/session"
	"github.com/NordCoder/Tasker/internal/services/api/task"
	"go.uber.org/zap"
)

type events interface {
	session.Events
	account.Events
}

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, st *storage, ev events, checks map[string]obs.HealthCheck) (*http.Server, error) {
	signer := auth.NewSigner(auth.SignerConfig{
		AccessSecret:  []byte(cfg.Auth.AccessSecret),
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshSecret: []byte(cfg.Auth.RefreshSecret),
		RefreshTTL:    cfg.Auth.RefreshTTL,
	}, logger)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	sessions := session.NewUsecase(session.Deps{
		Users:    st.users,
		Sessions: st.sessions,
		Tokens:   signer,
		Hasher:   hasher,
		Tx:       st.tx,
		Events:   ev,
		Log:      logger,
	}, session.Config{RotateRefresh: cfg.Auth.RotateRefresh})

	accounts := account.New(account.Deps{
		Users:    st.users,
		Sessions: sessions,
		Hasher:   hasher,
		Tx:       st.tx,
		Events:   ev,
		Log:      logger,
	}, nil)

	srv, err := httpapi.NewServer(httpapi.Deps{
		Sessions: sessions,
		Accounts: accounts,
		Tasks:    task.New(st.tasks),
		Tokens:   signer,
	}, httpapi.Options{
		APIVersion:   cfg.App.APIVersion,
		AllowOrigins: cfg.Server.AllowOrigins,
		RateLimits:   rateLimits(cfg.RateLimit),
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	ops := obs.MetricsHandler(checks)
	root := http.NewServeMux()
	root.Handle("/", srv.Handler())
	root.Handle("/metrics", ops)
	root.Handle("/healthz", ops)

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           root,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func rateLimits(c config.RateLimit) httpapi.RateLimits {
	if !c.Enable {
		return httpapi.RateLimits{}
	}
	return httpapi.RateLimits{
		General:      httpapi.Limit{Requests: c.GeneralRequests, Window: c.GeneralWindow},
		Strict:       httpapi.Limit{Requests: c.StrictRequests, Window: c.StrictWindow},
		SkipLoopback: c.SkipLoopback,
	}
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}

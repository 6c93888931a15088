package main

import (
	"context"
	"os"

	"github.com/NordCoder/Tasker/internal/obs"
	"github.com/NordCoder/Tasker/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Usage: migrator [up|down|status|reset]. DB_URL selects the database.
func main() {
	logger, err := obs.NewLogger(obs.LogConfig{Level: "info", App: "tasker-migrator"})
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		logger.Fatal("DB_URL is empty")
	}
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal("set dialect", zap.Error(err))
	}
	db, err := goose.OpenDBWithDriver("pgx", dbURL)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	if err := goose.RunContext(context.Background(), command, db, "."); err != nil {
		logger.Fatal("migrate", zap.String("command", command), zap.Error(err))
	}
	logger.Info("migrations done", zap.String("command", command))
}

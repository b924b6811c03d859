package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/clinic-stock/internal/api"
	"github.com/Spok95/clinic-stock/internal/config"
	"github.com/Spok95/clinic-stock/internal/domain/catalog"
	"github.com/Spok95/clinic-stock/internal/domain/ledger"
	"github.com/Spok95/clinic-stock/internal/domain/stock"
	"github.com/Spok95/clinic-stock/internal/domain/transfer"
	"github.com/Spok95/clinic-stock/internal/infra/db"
	"github.com/Spok95/clinic-stock/internal/infra/httpx"
	"github.com/Spok95/clinic-stock/internal/infra/logger"
	"github.com/Spok95/clinic-stock/internal/infra/notify"
	"github.com/Spok95/clinic-stock/internal/service/recorder"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	var notifier recorder.Notifier
	if cfg.Alerts.Enabled {
		tg, err := notify.NewTelegram(cfg.Alerts.Token, cfg.Alerts.AdminChatID)
		if err != nil {
			log.Error("telegram notifier init failed", "err", err)
			return
		}
		notifier = tg
		log.Info("low-stock alerts enabled", "chat_id", cfg.Alerts.AdminChatID)
	}

	catalogRepo := catalog.NewRepo(pool)
	stockRepo := stock.NewRepo(pool)
	ledgerRepo := ledger.NewRepo(pool)
	transferRepo := transfer.NewRepo(pool)
	rec := recorder.New(pool, transferRepo, log, notifier)

	h := api.New(catalogRepo, stockRepo, ledgerRepo, transferRepo, rec, cfg.Auth.JWTSecret, log)

	srv := httpx.New(cfg.HTTP.Addr, h.Router(), cfg.Metrics.Enabled)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}

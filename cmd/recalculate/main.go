// Command recalculate runs one balance recalculation pass and exits.
package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/timebank/internal/config"
	"github.com/spec-kit/timebank/internal/lock"
	"github.com/spec-kit/timebank/internal/observability"
	"github.com/spec-kit/timebank/internal/persistence"
	"github.com/spec-kit/timebank/internal/service"
	"github.com/spec-kit/timebank/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Postgres.DSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Recalc.LockTTL())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var runLock lock.Lock = lock.NewLocal()
	if redis.Enabled() {
		runLock = lock.NewFallback(lock.NewRedis(redis.Client, cfg.App.Name), runLock, logger)
	}

	recalculator := service.NewRecalculator(service.RecalculatorDependencies{
		Store:  persistence.NewStore(pg),
		Logger: logger,
	})
	w, err := worker.NewRecalculationWorker(recalculator, runLock, cfg.Recalc, nil, logger)
	if err != nil {
		logger.Fatal("failed to configure recalculation", zap.Error(err))
	}

	start := time.Now()
	res, err := w.TriggerNow(ctx)
	if err != nil {
		logger.Fatal("balance recalculation failed", zap.Error(err))
	}
	logger.Info("done", zap.Int("students", res.Students), zap.Duration("elapsed", time.Since(start)))
}

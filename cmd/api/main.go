package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/timebank/internal/api/http"
	"github.com/spec-kit/timebank/internal/api/http/handlers"
	"github.com/spec-kit/timebank/internal/auth"
	"github.com/spec-kit/timebank/internal/config"
	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/events"
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

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	store := persistence.NewStore(pg)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	tokens := auth.NewTokenAuthenticator(store, cfg.Auth.TokenTTL(), logger)
	authService := service.NewAuthService(service.AuthDependencies{
		Store:      store,
		Tokens:     tokens,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	pointsService := service.NewPointsService(service.PointsDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	recalculator := service.NewRecalculator(service.RecalculatorDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	if cfg.App.SeedDevAccounts && !pg.Enabled() {
		seed := []service.DevAccount{
			{Type: domain.UserTypeStudent, UserID: "student", Password: "student"},
			{Type: domain.UserTypeStaff, UserID: "staff", Password: "staff"},
		}
		if err := authService.SeedAccounts(ctx, seed); err != nil {
			logger.Fatal("failed to seed dev accounts", zap.Error(err))
		}
	}

	var runLock lock.Lock = lock.NewLocal()
	if redis.Enabled() {
		runLock = lock.NewFallback(lock.NewRedis(redis.Client, cfg.App.Name), runLock, logger)
	}
	recalcWorker, err := worker.NewRecalculationWorker(recalculator, runLock, cfg.Recalc, metrics, logger)
	if err != nil {
		logger.Fatal("failed to configure recalculation", zap.Error(err))
	}
	recalcWorker.Start()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Session:        handlers.NewSessionHandler(authService),
		Students:       handlers.NewStudentsHandler(pointsService),
		Staff:          handlers.NewStaffHandler(pointsService, recalcWorker),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
		RateLimit:      cfg.RateLimit,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	recalcWorker.Stop(shutdownCtx)
	notificationService.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

// Command accounts creates a student or staff login in Postgres.
//
//	accounts -type student -user s1024 -password secret
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/timebank/internal/auth"
	"github.com/spec-kit/timebank/internal/config"
	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/observability"
	"github.com/spec-kit/timebank/internal/persistence"
	"github.com/spec-kit/timebank/internal/service"
)

func main() {
	userType := flag.String("type", string(domain.UserTypeStudent), "account type: student or staff")
	userID := flag.String("user", "", "login id")
	password := flag.String("password", "", "plaintext password")
	flag.Parse()

	if !domain.UserType(*userType).Valid() || *userID == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	store := persistence.NewStore(pg)
	authService := service.NewAuthService(service.AuthDependencies{
		Store:      store,
		Tokens:     auth.NewTokenAuthenticator(store, cfg.Auth.TokenTTL(), logger),
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})

	account, err := authService.CreateAccount(ctx, domain.UserType(*userType), *userID, *password)
	if err != nil {
		logger.Fatal("failed to create account", zap.Error(err))
	}
	fmt.Printf("created %s account %s (id %d)\n", account.Type, account.UserID, account.ID)
}

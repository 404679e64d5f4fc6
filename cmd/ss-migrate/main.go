package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tuanvumaihuynh/sweetshop/internal/auth"
	"github.com/tuanvumaihuynh/sweetshop/internal/config"
	"github.com/tuanvumaihuynh/sweetshop/internal/log"
	"github.com/tuanvumaihuynh/sweetshop/internal/repository"
	"github.com/tuanvumaihuynh/sweetshop/internal/service"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running migrate application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		Auth     config.Auth
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	logger.InfoContext(ctx, "starting database migration")

	if err := db.Migrate(ctx, pgxPool); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}

	logger.InfoContext(ctx, "database migration completed successfully")

	if cfg.Auth.AdminEmail == "" || cfg.Auth.AdminPassword == "" {
		logger.InfoContext(ctx, "admin bootstrap skipped, AUTH_ADMIN_EMAIL or AUTH_ADMIN_PASSWORD not set")
		return nil
	}

	dbClient := db.NewClient(pgxPool)
	authService := service.NewAuthService(
		repository.NewUserRepository(dbClient),
		auth.NewTokenManager(cfg.Auth),
		cfg.Postgres.QueryTimeout,
	)

	created, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
	if err != nil {
		return fmt.Errorf("error ensuring admin account: %w", err)
	}

	logger.InfoContext(ctx, "admin bootstrap completed",
		slog.String("email", cfg.Auth.AdminEmail),
		slog.Bool("created", created),
	)

	return nil
}

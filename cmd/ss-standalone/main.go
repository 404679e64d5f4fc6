package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	apicontract "github.com/tuanvumaihuynh/sweetshop/api-contract"
	"github.com/tuanvumaihuynh/sweetshop/internal/auth"
	"github.com/tuanvumaihuynh/sweetshop/internal/config"
	"github.com/tuanvumaihuynh/sweetshop/internal/event"
	"github.com/tuanvumaihuynh/sweetshop/internal/http"
	"github.com/tuanvumaihuynh/sweetshop/internal/log"
	"github.com/tuanvumaihuynh/sweetshop/internal/relay"
	"github.com/tuanvumaihuynh/sweetshop/internal/repository"
	"github.com/tuanvumaihuynh/sweetshop/internal/service"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/db"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/mq"
	"github.com/tuanvumaihuynh/sweetshop/internal/telemetry"
	"github.com/tuanvumaihuynh/sweetshop/internal/validation"
	"github.com/tuanvumaihuynh/sweetshop/pkg/cmdutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running standalone application: %v\n", err)
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
		HTTP     config.HTTP
		Auth     config.Auth
		Relay    config.Relay
		Kafka    config.Kafka
		Otel     config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	if cfg.HTTP.Swagger {
		if _, err := apicontract.Load(ctx); err != nil {
			return fmt.Errorf("error loading api contract: %w", err)
		}
	}

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}

	sweetRepository := repository.NewSweetRepository(dbClient)
	userRepository := repository.NewUserRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	tokenManager := auth.NewTokenManager(cfg.Auth)
	queryTimeout := cfg.Postgres.QueryTimeout

	catalogService := service.NewCatalogService(dbClient, sweetRepository, outboxMsgRepository, queryTimeout)
	inventoryService := service.NewInventoryService(dbClient, sweetRepository, outboxMsgRepository, queryTimeout)
	authService := service.NewAuthService(userRepository, tokenManager, queryTimeout)

	validator, err := validation.New()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		svc := event.New(logger, kafkaConsumer)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running event service: %w", err))
		}
		logger.InfoContext(ctx, "event service started")

		<-interruptChan

		logger.InfoContext(ctx, "event service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Go(func() {
		svc := http.New(
			cfg.HTTP,
			logger,
			catalogService,
			inventoryService,
			authService,
			auth.NewGate(tokenManager),
			validator,
			dbClient,
		)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Go(func() {
		svc := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "relay service started")

		<-interruptChan

		logger.InfoContext(ctx, "relay service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "relay service is stopped")
	})

	wg.Wait()

	return nil
}

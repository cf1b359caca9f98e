package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/taara-api/internal/application/notification"
	"github.com/taara-api/internal/config"
	"github.com/taara-api/internal/infrastructure/dynamo"
	"github.com/taara-api/internal/infrastructure/google"
	jwtinfra "github.com/taara-api/internal/infrastructure/jwt"
	"github.com/taara-api/internal/infrastructure/redisbus"
	s3infra "github.com/taara-api/internal/infrastructure/s3"
	"github.com/taara-api/internal/infrastructure/sns"
	"github.com/taara-api/internal/pkg/logging"
	transporthttp "github.com/taara-api/internal/transport/http"
	"github.com/taara-api/internal/transport/http/handler"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("dynamodb client: %w", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, logger.Named("bootstrap"))
	checks := map[string]handler.HealthCheck{"dynamodb": dynamo.Ping(dynamoClient, cfg.DynamoTables.Requests)}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("s3 client: %w", err)
	}

	// SNS SMS sender, only when enabled.
	var smsSender sns.SMSSender
	if cfg.SMSEnabled {
		if smsSender, err = sns.NewSender(ctx, cfg); err != nil {
			logger.Warn("SNS sender not available, SMS disabled", zap.Error(err))
		}
	}

	var googleVerifier transporthttp.GoogleVerifier
	if cfg.GoogleClientID != "" {
		googleVerifier = google.NewVerifier(cfg.GoogleClientID)
	}

	// Redis fan-out is optional; without it live streams only see changes made on this instance.
	var broker notification.Broker
	if cfg.RedisAddr != "" {
		rdb, err := redisbus.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		bus := redisbus.New(rdb, logger.Named("redisbus"))
		if err := bus.Start(ctx); err != nil {
			return fmt.Errorf("redis subscribe: %w", err)
		}
		broker = bus
	} else {
		logger.Info("REDIS_ADDR not set, notification streams are instance-local")
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		PetRepo:          dynamo.NewPetRepo(dynamoClient, cfg.DynamoTables.Pets),
		RequestRepo:      dynamo.NewRequestRepo(dynamoClient, cfg.DynamoTables.Requests),
		ScheduleRepo:     dynamo.NewScheduleRepo(dynamoClient, cfg.DynamoTables.Schedules),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		DocumentRepo:     dynamo.NewDocumentRepo(dynamoClient, cfg.DynamoTables.Files),
		AnnouncementRepo: dynamo.NewAnnouncementRepo(dynamoClient, cfg.DynamoTables.Announcements),
		ObjectStore:      s3infra.NewStore(s3Client, cfg.S3BucketName),
		Broker:           broker,
		SMSSender:        smsSender,
		TokenProvider:    jwtProvider,
		HealthChecks:     checks,
		GoogleVerifier:   googleVerifier,
		Logger:           logger,
	}

	router := transporthttp.NewRouter(ctx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/otpgate/activation-service/internal/app/background"
	"github.com/otpgate/activation-service/internal/cache"
	rediscache "github.com/otpgate/activation-service/internal/cache/redis"
	"github.com/otpgate/activation-service/internal/config"
	httpdelivery "github.com/otpgate/activation-service/internal/delivery/http"
	"github.com/otpgate/activation-service/internal/delivery/http/handlers"
	publisher "github.com/otpgate/activation-service/internal/infrastructure/kafka"
	"github.com/otpgate/activation-service/internal/infrastructure/metrics"
	"github.com/otpgate/activation-service/internal/infrastructure/migrate"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres/repository"
	"github.com/otpgate/activation-service/internal/provider"
	activationuc "github.com/otpgate/activation-service/internal/usecase/activation"
	"github.com/otpgate/activation-service/internal/usecase/cancelqueue"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	logger := slog.Default()

	// Init database
	db := postgres.MustInitDB(cfg)

	if cfg.Migrations.Enabled {
		if err := migrate.RunMigrations(db, cfg.Migrations.Path); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Init redis catalog cache. A missing cache degrades to plain DB reads.
	var catalogCache cache.Cache
	if cfg.RedisService.Addr != "" {
		redisCache, err := rediscache.NewRedisCache(context.Background(), cfg.RedisService.Addr)
		if err != nil {
			logger.Warn("redis unavailable, catalog cache disabled", "error", err.Error())
		} else {
			catalogCache = redisCache
		}
	}

	// Init kafka lifecycle publisher
	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	kafkaPublisher := publisher.NewKafkaPublisher(brokers, cfg.KafkaService.Topic)

	// Init metrics
	activationMetrics := metrics.NewActivationMetrics()

	// Init repos
	activationRepo := repository.NewDefaultActivationRepository(db)
	pendingCancellationRepo := repository.NewDefaultPendingCancellationRepository(db)
	catalogRepo := repository.NewDefaultCatalogRepository(db, catalogCache)

	// Init provider gateway
	providerClient := provider.NewClient(cfg.ProviderHTTP.Timeout())

	// Init cancel queue service
	cancelQueue, err := cancelqueue.NewDefaultService(
		pendingCancellationRepo,
		catalogRepo,
		providerClient,
		kafkaPublisher,
		activationMetrics,
		logger,
	)
	if err != nil {
		log.Fatalf("failed to init cancel queue: %v", err)
	}

	// Init activation usecase
	uc := activationuc.NewDefaultActivationUsecase(
		activationRepo,
		catalogRepo,
		providerClient,
		cancelQueue,
		kafkaPublisher,
		activationMetrics,
	)

	// HTTP delivery
	actionHandler := handlers.NewActionHandler(uc, logger)
	router := httpdelivery.NewRouter(actionHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background sweeps
	tasks := background.NewBackgroundTasks(cancelQueue)
	tasks.StartAll(ctx)

	go func() {
		log.Printf("HTTP server started on %s:%s\n", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve: %v\n", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	log.Println("server stopped")
}

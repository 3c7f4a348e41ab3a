package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gestionis/notify-core/internal/config"
	"github.com/gestionis/notify-core/internal/crypto"
	"github.com/gestionis/notify-core/internal/domain"
	"github.com/gestionis/notify-core/internal/handler"
	"github.com/gestionis/notify-core/internal/infra/postgresql"
	"github.com/gestionis/notify-core/internal/infra/postgresql/migrations"
	infraredis "github.com/gestionis/notify-core/internal/infra/redis"
	"github.com/gestionis/notify-core/internal/observability"
	"github.com/gestionis/notify-core/internal/provider"
	"github.com/gestionis/notify-core/internal/queue"
	"github.com/gestionis/notify-core/internal/repository"
	"github.com/gestionis/notify-core/internal/service"
	"github.com/gestionis/notify-core/internal/transport"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("notifyd exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq initialization failed: %w", err)
	}
	defer rabbit.Close()

	cipher, err := crypto.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("cipher initialization failed: %w", err)
	}

	logs := repository.NewGormMessageLogRepo(db)
	schedules := repository.NewGormScheduleRepo(db)
	templates := repository.NewGormTemplateRepo(db)
	_ = templates // no consumer wired in this binary; used by service.Dispatcher
	configs := repository.NewGormConfigurationRepo(db, cipher)

	registry, err := buildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("provider registry initialization failed: %w", err)
	}

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}

	publisher := queue.NewRabbitMQPublisher(rabbit)
	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerConcurrency, logger)

	metrics := observability.NewMetrics()

	worker, err := service.NewWorkerService(
		logs, configs, consumer, registry, rateLimiter,
		cfg.WorkerConcurrency, cfg.MaxRetries, logger,
	)
	if err != nil {
		return fmt.Errorf("worker initialization failed: %w", err)
	}
	worker.SetMetrics(metrics)

	retryScanner, err := service.NewRetryScanner(
		logs, publisher,
		time.Duration(cfg.RetryScanSeconds)*time.Second, 0, logger,
	)
	if err != nil {
		return fmt.Errorf("retry scanner initialization failed: %w", err)
	}

	sweeper, err := service.NewSweeper(
		schedules, logs, publisher,
		time.Duration(cfg.SweepIntervalSeconds)*time.Second, 0, logger,
	)
	if err != nil {
		return fmt.Errorf("sweeper initialization failed: %w", err)
	}
	sweeper.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(metrics.HTTPMiddleware())
	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Start(groupCtx)
	})
	g.Go(func() error {
		return retryScanner.Start(groupCtx)
	})
	g.Go(func() error {
		return sweeper.Start(groupCtx)
	})
	g.Go(func() error {
		logger.Info("ops server started", zap.Int("port", cfg.HTTPPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.HTTPPort))
	})
	g.Go(func() error {
		<-groupCtx.Done()
		shutdownErr := app.ShutdownWithTimeout(10 * time.Second)
		if shutdownErr != nil {
			logger.Error("ops server shutdown failed", zap.Error(shutdownErr))
		}
		return nil
	})

	logger.Info("notifyd started",
		zap.Int("workerConcurrency", cfg.WorkerConcurrency),
		zap.Int("maxRetries", cfg.MaxRetries),
	)

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	logger.Info("notifyd stopped")
	return nil
}

func buildRegistry(cfg *config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	registry.RegisterEmail(domain.EmailBackendSMTP, provider.NewSMTPSender())
	registry.RegisterEmail(domain.EmailBackendSendGrid, provider.NewSendGridSender())
	registry.RegisterEmail(domain.EmailBackendConsole, provider.NewConsoleEmailSender())
	registry.RegisterEmail(domain.EmailBackendFile, provider.NewFileEmailSender(cfg.EmailFilePath))

	sesSender, err := provider.NewSESSender(cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	registry.RegisterEmail(domain.EmailBackendSES, sesSender)

	twilio := provider.NewTwilioSender()
	registry.RegisterSMS(domain.SMSBackendTwilio, twilio)
	registry.RegisterSMS(domain.SMSBackendDebug, provider.NewDebugSMSSender())

	registry.RegisterWhatsApp(domain.WhatsAppBackendTwilio, provider.NewTwilioWhatsAppSender(twilio))
	registry.RegisterWhatsApp(domain.WhatsAppBackendMeta, provider.NewMetaWhatsAppSender())
	registry.RegisterWhatsApp(domain.WhatsAppBackendDebug, provider.NewDebugWhatsAppSender())

	return registry, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kursadbilgin/alert-dispatch/internal/config"
	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"github.com/kursadbilgin/alert-dispatch/internal/handler"
	"github.com/kursadbilgin/alert-dispatch/internal/infra/postgresql"
	"github.com/kursadbilgin/alert-dispatch/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/alert-dispatch/internal/infra/redis"
	"github.com/kursadbilgin/alert-dispatch/internal/observability"
	"github.com/kursadbilgin/alert-dispatch/internal/provider"
	"github.com/kursadbilgin/alert-dispatch/internal/queue"
	"github.com/kursadbilgin/alert-dispatch/internal/ratelimit"
	"github.com/kursadbilgin/alert-dispatch/internal/repository"
	"github.com/kursadbilgin/alert-dispatch/internal/service"
	"github.com/kursadbilgin/alert-dispatch/internal/transport"
)

const (
	shutdownTimeout  = 15 * time.Second
	callbackPrefetch = 16
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("alert-dispatch api stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN, postgresql.PoolConfig{})
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

	metrics := observability.NewMetrics()

	alerts := repository.NewGormAlertRepo(db)
	deliveries := repository.NewGormDeliveryRepo(db)
	directory := repository.NewGormDirectoryRepo(db)

	resolver, err := service.NewRecipientResolver(directory)
	if err != nil {
		return err
	}

	tracker, err := service.NewReliabilityTracker(directory, logger)
	if err != nil {
		return err
	}
	tracker.SetMetrics(metrics)

	gateways, err := buildGateways(cfg, logger)
	if err != nil {
		return err
	}

	limiter, err := buildRateLimiter(cfg, rdb, logger)
	if err != nil {
		return err
	}

	dispatcher, err := service.NewAlertDispatcher(
		alerts,
		deliveries,
		resolver,
		gateways,
		tracker,
		limiter,
		service.DispatcherConfig{
			Concurrency: cfg.DispatchConcurrency,
			PhoneRegion: cfg.DefaultPhoneRegion,
		},
		logger,
	)
	if err != nil {
		return err
	}
	dispatcher.SetMetrics(metrics)

	reconciler, err := service.NewStatusReconciler(deliveries, tracker, cfg.DefaultPhoneRegion, logger)
	if err != nil {
		return err
	}
	reconciler.SetMetrics(metrics)

	logs, err := service.NewAlertLogService(alerts, deliveries, resolver, cfg.DisplayLocation())
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var (
		publisher queue.Publisher
		broker    handler.BrokerHealth
	)
	if cfg.CallbackQueueEnabled() {
		mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("rabbitmq initialization failed: %w", err)
		}
		defer mq.Close()
		broker = mq

		pub := queue.NewRabbitMQPublisher(mq)
		defer pub.Close()
		publisher = pub

		consumer := queue.NewRabbitMQConsumer(mq, callbackPrefetch, logger)
		defer consumer.Close()

		worker, err := service.NewCallbackWorker(consumer, reconciler, cfg.CallbackWorkerConcurrency, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return worker.Start(gctx)
		})
	} else {
		logger.Info("RABBITMQ_URL not set, status callbacks are reconciled inline")
	}

	relay, err := service.NewCallbackRelay(publisher, reconciler, logger)
	if err != nil {
		return err
	}
	relay.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		AppName:      "alert-dispatch",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(transport.CorrelationMiddleware())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb, broker)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterRoutes(app, handler.Services{
		Alerts:      dispatcher,
		AlertLogs:   logs,
		Callbacks:   relay,
		Reliability: tracker,
	}); err != nil {
		return err
	}

	g.Go(func() error {
		logger.Info("alert-dispatch api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down alert-dispatch api")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildGateways(cfg *config.Config, logger *zap.Logger) (service.Gateways, error) {
	var text provider.Gateway = provider.Unconfigured{Name: "text provider"}
	if cfg.ProviderConfigured() {
		twilio, err := provider.NewTwilioGateway(provider.TwilioConfig{
			BaseURL:           cfg.ProviderBaseURL,
			AccountSID:        cfg.ProviderAccountSID,
			AuthToken:         cfg.ProviderAuthToken,
			FromNumber:        cfg.ProviderFromNumber,
			StatusCallbackURL: cfg.ProviderStatusCallbackURL,
			Timeout:           cfg.ProviderTimeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("text provider initialization failed: %w", err)
		}
		text = twilio
	} else {
		logger.Warn("text provider credentials not set, text sends will fail")
	}

	return service.Gateways{
		domain.AlertKindText:  text,
		domain.AlertKindVoice: provider.VoiceStub{},
	}, nil
}

// buildRateLimiter paces sends across instances through Redis and falls back
// to a per-instance bucket while Redis is unreachable.
func buildRateLimiter(cfg *config.Config, rdb goredis.Scripter, logger *zap.Logger) (ratelimit.RateLimiter, error) {
	shared, err := infraredis.NewSendRateLimiter(rdb, cfg.SendRateLimitPerSec)
	if err != nil {
		return nil, fmt.Errorf("send rate limiter initialization failed: %w", err)
	}

	return &ratelimit.Fallback{
		Primary:   shared,
		Secondary: ratelimit.NewLocalRateLimiter(cfg.SendRateLimitPerSec),
		OnError: func(lane string, err error) {
			logger.Warn("shared send rate limiter unavailable, pacing locally",
				zap.String("lane", lane), zap.Error(err))
		},
	}, nil
}

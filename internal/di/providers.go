package di

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/app"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/config"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/database"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/handler"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/middleware"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/router"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/messaging"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/messaging/kafka"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/observability"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/repository"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(provideLogger)

var RuntimeInfraSet = wire.NewSet(provideDB, provideRedis)

var RepositorySet = wire.NewSet(
	repository.NewOrderRepository,
	repository.NewDeliveryZoneRepository,
	repository.NewWebhookEventRepository,
)

var ServiceSet = wire.NewSet(
	provideIntentReader,
	provideNotifier,
	providePublisher,
	provideInvoiceArchiver,
	provideWebhookProcessor,
	provideAttemptLimiter,
	provideIdempotencyStore,
	service.NewOrderService,
	service.NewRateAggregator,
)

var HTTPSet = wire.NewSet(
	provideHealthHandler,
	provideOrderHandler,
	handler.NewShippingHandler,
	handler.NewDeliveryZoneHandler,
	provideWebhookHandler,
	provideIdempotencyMiddleware,
	provideAPILimiter,
	provideRouterDependencies,
	router.New,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			return observability.NewLogger(cfg.Env, cfg.LogLevel, f)
		}
		slog.Warn("cannot open log file, logging to stdout only", "path", cfg.LogFile, "error", err)
	}
	return observability.NewLogger(cfg.Env, cfg.LogLevel)
}

func provideDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// provideRedis returns nil when Redis is not configured; consumers fall
// back to their in-process or database-backed variants.
func provideRedis(cfg *config.Config) redis.UniversalClient {
	if !cfg.RedisEnabled {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
}

func provideIntentReader(cfg *config.Config) service.PaymentIntentReader {
	return service.NewStripeClient(cfg.StripeAPIBaseURL, cfg.StripeSecretKey)
}

func provideNotifier(cfg *config.Config, logger *slog.Logger) service.OrderConfirmationNotifier {
	if !cfg.NotificationsEnabled {
		return nil
	}
	return service.NewDevOrderConfirmationNotifier(logger)
}

func providePublisher(cfg *config.Config) messaging.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return messaging.NoopPublisher{}
	}
	return kafka.NewPublisher(cfg.KafkaBrokers)
}

func provideInvoiceArchiver(cfg *config.Config, logger *slog.Logger) (service.InvoiceArchiver, error) {
	if !cfg.InvoiceArchiveEnabled() {
		return service.NoopInvoiceArchiver{}, nil
	}
	archiver, err := service.NewMinIOInvoiceArchiver(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioInvoiceBucket, cfg.MinioUseSSL)
	if err != nil {
		logger.Warn("invoice archive unavailable, continuing without it", "error", err)
		return service.NoopInvoiceArchiver{}, nil
	}
	return archiver, nil
}

func provideWebhookProcessor(
	cfg *config.Config,
	orders repository.OrderRepository,
	events repository.WebhookEventRepository,
	intents service.PaymentIntentReader,
	notifier service.OrderConfirmationNotifier,
	archiver service.InvoiceArchiver,
	publisher messaging.Publisher,
	logger *slog.Logger,
) *service.WebhookProcessor {
	return service.NewWebhookProcessor(orders, events, intents, notifier, archiver, publisher, cfg.OrderEventsTopic, logger)
}

func provideAttemptLimiter(cfg *config.Config, redisClient redis.UniversalClient) *service.AttemptLimiter {
	limiterCfg := service.AttemptLimiterConfig{
		MaxAttempts:        cfg.CheckoutMaxAttempts,
		Window:             cfg.CheckoutWindow,
		InitialBlock:       cfg.CheckoutBlock,
		ExponentialBackoff: cfg.CheckoutBackoff,
	}
	if redisClient != nil {
		return service.NewAttemptLimiter(limiterCfg, service.NewRedisAttemptStore(redisClient, "checkout"))
	}
	return service.NewAttemptLimiter(limiterCfg, service.NewMemoryAttemptStore())
}

func provideIdempotencyStore(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) service.IdempotencyStore {
	if cfg.IdempotencyRedisEnabled && redisClient != nil {
		return service.NewRedisIdempotencyStore(redisClient, "idem")
	}
	return service.NewDBIdempotencyStore(db)
}

func provideHealthHandler(db *gorm.DB, redisClient redis.UniversalClient) *handler.HealthHandler {
	return handler.NewHealthHandler(db, redisClient)
}

func provideOrderHandler(svc *service.OrderService, limiter *service.AttemptLimiter, archiver service.InvoiceArchiver, logger *slog.Logger) *handler.OrderHandler {
	return handler.NewOrderHandler(svc, limiter, archiver, logger)
}

func provideWebhookHandler(processor *service.WebhookProcessor, cfg *config.Config, logger *slog.Logger) *handler.WebhookHandler {
	return handler.NewWebhookHandler(processor, cfg.StripeWebhookSecret, cfg.WebhookTolerance, logger)
}

func provideIdempotencyMiddleware(cfg *config.Config, store service.IdempotencyStore, logger *slog.Logger) *middleware.Idempotency {
	if !cfg.IdempotencyEnabled {
		return nil
	}
	return middleware.NewIdempotency(store, cfg.IdempotencyTTL, logger)
}

func provideAPILimiter(cfg *config.Config, redisClient redis.UniversalClient) middleware.Limiter {
	if redisClient != nil {
		return middleware.NewRedisFixedWindowLimiter(redisClient, "rl")
	}
	return middleware.NewLocalFixedWindowLimiter()
}

func provideRouterDependencies(
	health *handler.HealthHandler,
	orders *handler.OrderHandler,
	shipping *handler.ShippingHandler,
	zones *handler.DeliveryZoneHandler,
	webhooks *handler.WebhookHandler,
	idempotency *middleware.Idempotency,
	limiter middleware.Limiter,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		Health:          health,
		Orders:          orders,
		Shipping:        shipping,
		Zones:           zones,
		Webhooks:        webhooks,
		Idempotency:     idempotency,
		APILimiter:      limiter,
		APIRateLimitRPM: cfg.APIRateLimitPerMin,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

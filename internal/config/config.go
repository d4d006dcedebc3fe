package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string
	LogLevel string
	LogFile  string

	DatabaseURL string

	RedisEnabled bool
	RedisAddr    string
	RedisDB      int

	StripeSecretKey      string
	StripeWebhookSecret  string
	StripeAPIBaseURL     string
	WebhookTolerance     time.Duration
	NotificationsEnabled bool

	KafkaBrokers     []string
	OrderEventsTopic string

	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioInvoiceBucket string
	MinioUseSSL        bool

	APIRateLimitPerMin int

	CheckoutMaxAttempts int
	CheckoutWindow      time.Duration
	CheckoutBlock       time.Duration
	CheckoutBackoff     bool

	IdempotencyEnabled      bool
	IdempotencyRedisEnabled bool
	IdempotencyTTL          time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPPort:                getEnv("HTTP_PORT", "8080"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFile:                 os.Getenv("LOG_FILE"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisEnabled:            getEnvBool("REDIS_ENABLED", false),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		StripeSecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeAPIBaseURL:        getEnv("STRIPE_API_BASE_URL", "https://api.stripe.com"),
		NotificationsEnabled:    getEnvBool("NOTIFICATIONS_ENABLED", true),
		KafkaBrokers:            splitCSV(getEnv("KAFKA_BROKERS", "")),
		OrderEventsTopic:        getEnv("ORDER_EVENTS_TOPIC", "order-events"),
		MinioEndpoint:           os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:          os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:          os.Getenv("MINIO_SECRET_KEY"),
		MinioInvoiceBucket:      getEnv("MINIO_INVOICE_BUCKET", "invoices"),
		MinioUseSSL:             getEnvBool("MINIO_USE_SSL", false),
		APIRateLimitPerMin:      getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		CheckoutMaxAttempts:     getEnvInt("CHECKOUT_MAX_ATTEMPTS", 5),
		CheckoutBackoff:         getEnvBool("CHECKOUT_EXPONENTIAL_BACKOFF", true),
		IdempotencyEnabled:      getEnvBool("IDEMPOTENCY_ENABLED", true),
		IdempotencyRedisEnabled: getEnvBool("IDEMPOTENCY_REDIS_ENABLED", false),
	}

	tolerance, err := time.ParseDuration(getEnv("STRIPE_WEBHOOK_TOLERANCE", "5m"))
	if err != nil {
		return nil, fmt.Errorf("parse STRIPE_WEBHOOK_TOLERANCE: %w", err)
	}
	cfg.WebhookTolerance = tolerance

	window, err := time.ParseDuration(getEnv("CHECKOUT_ATTEMPT_WINDOW", "15m"))
	if err != nil {
		return nil, fmt.Errorf("parse CHECKOUT_ATTEMPT_WINDOW: %w", err)
	}
	cfg.CheckoutWindow = window

	block, err := time.ParseDuration(getEnv("CHECKOUT_BLOCK_DURATION", "15m"))
	if err != nil {
		return nil, fmt.Errorf("parse CHECKOUT_BLOCK_DURATION: %w", err)
	}
	cfg.CheckoutBlock = block

	idemTTL, err := time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse IDEMPOTENCY_TTL: %w", err)
	}
	cfg.IdempotencyTTL = idemTTL

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails closed: a process without the webhook signing secret must
// not come up and silently skip signature verification.
func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.StripeSecretKey == "" {
		errs = append(errs, "STRIPE_SECRET_KEY is required")
	}
	if c.StripeWebhookSecret == "" {
		errs = append(errs, "STRIPE_WEBHOOK_SECRET is required")
	}
	if c.WebhookTolerance <= 0 || c.WebhookTolerance > time.Hour {
		errs = append(errs, "STRIPE_WEBHOOK_TOLERANCE must be between 1s and 1h")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.CheckoutMaxAttempts <= 0 {
		errs = append(errs, "CHECKOUT_MAX_ATTEMPTS must be > 0")
	}
	if c.CheckoutWindow <= 0 {
		errs = append(errs, "CHECKOUT_ATTEMPT_WINDOW must be > 0")
	}
	if c.CheckoutBlock <= 0 || c.CheckoutBlock > 24*time.Hour {
		errs = append(errs, "CHECKOUT_BLOCK_DURATION must be between 1s and 24h")
	}
	if c.IdempotencyRedisEnabled && !c.RedisEnabled {
		errs = append(errs, "IDEMPOTENCY_REDIS_ENABLED requires REDIS_ENABLED")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) InvoiceArchiveEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}

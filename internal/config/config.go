package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port       string `envconfig:"PORT" default:"8080"`
	DBUrl      string `envconfig:"DB_URL"`
	JWTSecret  string `envconfig:"JWT_SECRET"`
	AppEnv     string `envconfig:"APP_ENV" default:"production"`
	EnableDocs bool   `envconfig:"ENABLE_API_DOCS" default:"false"`

	LoginTokenTTL  time.Duration `envconfig:"LOGIN_TOKEN_TTL" default:"1h"`
	SignupTokenTTL time.Duration `envconfig:"SIGNUP_TOKEN_TTL" default:"168h"`

	RazorpayKeyID       string `envconfig:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret   string `envconfig:"RAZORPAY_KEY_SECRET"`
	PaymentCurrency     string `envconfig:"PAYMENT_CURRENCY" default:"INR"`
	PaymentVerifyRemote bool   `envconfig:"PAYMENT_VERIFY_REMOTE" default:"false"`

	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"60s"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"studio.events"`
	NotifierQueue  string `envconfig:"NOTIFIER_QUEUE" default:"studio.notifier"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"OTEL_SERVICE_NAME" default:"mindfulhaven-api"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return FromEnv()
}

// FromEnv reads the process environment without touching .env files.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.LoginTokenTTL <= 0 || cfg.SignupTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	cfg.AppEnv = normalizeEnv(cfg.AppEnv)
	cfg.PaymentCurrency = strings.ToUpper(strings.TrimSpace(cfg.PaymentCurrency))
	if cfg.PaymentCurrency == "" {
		cfg.PaymentCurrency = "INR"
	}
	return &cfg, nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

// PaymentsConfigured reports whether a gateway key pair is present.
func (c *Config) PaymentsConfigured() bool {
	return c != nil && c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}

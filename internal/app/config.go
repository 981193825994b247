package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string `usage:"PostgreSQL connection URL (CHECKOUT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	SessionSecret string `usage:"HMAC secret for session cookie verification" flag:"session-secret"`
	Pricing       PricingConfig
	Gateway       GatewayConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// PricingConfig controls the fixed charges applied to every order.
type PricingConfig struct {
	DeliveryFee    string `default:"40"  usage:"Flat delivery fee in major currency units" flag:"delivery-fee"`
	TaxRatePercent string `default:"5"   usage:"Tax rate applied to the subtotal, percent" flag:"tax-rate"`
}

// GatewayConfig holds the external payment provider settings.
type GatewayConfig struct {
	BaseURL       string        `default:"https://api.razorpay.com" usage:"Payment provider API base URL" flag:"gateway-url"`
	KeyID         string        `usage:"Payment provider key id" flag:"gateway-key-id"`
	KeySecret     string        `usage:"Payment provider key secret" flag:"gateway-key-secret"`
	WebhookSecret string        `usage:"Secret for callback signature verification" flag:"gateway-webhook-secret"`
	Currency      string        `default:"INR" usage:"Currency code sent with payment intents"`
	Timeout       time.Duration `default:"10s" usage:"Timeout for provider API calls" flag:"gateway-timeout"`
}

// RateLimitConfig controls the per-client request rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cookies)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CHECKOUT",
		Files:     []string{"config.yaml", "/etc/checkout/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set CHECKOUT_DATABASE_URL or DATABASE_URL")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret is required: set CHECKOUT_SESSION_SECRET")
	}
	if cfg.Gateway.WebhookSecret == "" {
		return nil, errors.New("gateway webhook secret is required: set CHECKOUT_GATEWAY_WEBHOOK_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the application's CHECKOUT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

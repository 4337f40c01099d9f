// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Policy engines accepted by POLICY_ENGINE.
const (
	PolicyEngineNative = "native"
	PolicyEngineOPA    = "opa"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the REST API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health server (e.g. :9090). Empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN. Required.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "1h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment (e.g. "development", "production"). Selects the zap preset.
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the minimum zap level (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// CORSAllowedOrigins is a comma-separated origin list; "*" allows any origin.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// RedisURL enables the login rate limiter when set (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`
	// LoginRateLimit is the number of login attempts allowed per client IP per minute.
	LoginRateLimit int `mapstructure:"LOGIN_RATE_LIMIT"`
	// TrustedProxies is a comma-separated list of proxy IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers the login limiter believes. Empty means the limiter keys on the peer address.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	// KafkaBrokers is a comma-separated list of Kafka brokers. Empty disables the event producer.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// EventsKafkaTopic is the topic domain events are written to.
	EventsKafkaTopic string `mapstructure:"EVENTS_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group of cmd/worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTelEndpoint is the OTLP gRPC collector. Empty keeps telemetry in-process.
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTelInsecure forces a plaintext connection to the collector.
	OTelInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// OTelServiceName is the service.name resource attribute.
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// PolicyEngine selects the user visibility decider: native or opa.
	PolicyEngine string `mapstructure:"POLICY_ENGINE"`
	// PolicyFile is an optional Rego module replacing the built-in policy when PolicyEngine is opa.
	PolicyFile string `mapstructure:"POLICY_FILE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "org-api")
	v.SetDefault("JWT_AUDIENCE", "org-api-clients")
	v.SetDefault("JWT_ACCESS_TTL", "1h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "org-api-events")
	v.SetDefault("KAFKA_GROUP_ID", "org-api-events-worker")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "org-api")
	v.SetDefault("POLICY_ENGINE", PolicyEngineNative)
	v.SetDefault("POLICY_FILE", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks fields that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.LoginRateLimit < 0 {
		return errors.New("config: LOGIN_RATE_LIMIT must not be negative")
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	c.PolicyEngine = strings.ToLower(strings.TrimSpace(c.PolicyEngine))
	switch c.PolicyEngine {
	case "", PolicyEngineNative:
		c.PolicyEngine = PolicyEngineNative
	case PolicyEngineOPA:
	default:
		return fmt.Errorf("config: POLICY_ENGINE must be %q or %q", PolicyEngineNative, PolicyEngineOPA)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil && c.LogLevel != "" {
		return fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	if d, err := time.ParseDuration(c.JWTAccessTTL); c.JWTAccessTTL != "" && (err != nil || d <= 0) {
		return errors.New("config: JWT_ACCESS_TTL must be a positive duration")
	}
	return nil
}

// RequireServing checks the fields cmd/server needs beyond what Validate checks.
func (c *Config) RequireServing() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("config: DATABASE_URL must be set"))
	}
	if c.JWTPrivateKey == "" || c.JWTPublicKey == "" {
		errs = append(errs, errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set"))
	}
	return errors.Join(errs...)
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// Level returns the configured zap level, or info when unset or invalid.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the event producer is enabled (non-empty list) and to create it.
func (c *Config) KafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.KafkaBrokers)
}

// CORSOrigins returns the allowed CORS origins.
func (c *Config) CORSOrigins() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSAllowedOrigins)
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES. A bare IP becomes a single-address prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	if c == nil {
		return nil, nil
	}
	var out []netip.Prefix
	for _, s := range splitList(c.TrustedProxies) {
		if strings.Contains(s, "/") {
			p, err := netip.ParsePrefix(s)
			if err != nil {
				return nil, fmt.Errorf("config: TRUSTED_PROXIES: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("config: TRUSTED_PROXIES: %w", err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

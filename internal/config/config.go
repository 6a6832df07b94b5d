// Package config loads the service configuration from environment variables.
// Every field is tagged with the variable it comes from; validation runs on
// the assembled struct and reports failures by variable name.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
}

type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" validate:"gte=0"`
	// ClientCacheMaxAge lets clients keep responses privately for this long;
	// zero sends no-store.
	ClientCacheMaxAge time.Duration `env:"CLIENT_CACHE_MAX_AGE" validate:"gte=0"`
}

// OTELConfig controls trace export.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" validate:"required_if=Enabled true"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" validate:"required"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" validate:"gte=0,lte=1"`
	Environment string  `env:"DEPLOY_ENV"`
}

// UpstreamConfig tunes the resilient client shared by every provider adapter.
type UpstreamConfig struct {
	Timeout           time.Duration `env:"UPSTREAM_TIMEOUT" validate:"gt=0"` // per attempt
	MaxRetries        int           `env:"UPSTREAM_MAX_RETRIES" validate:"gte=1"`
	BreakerThreshold  int           `env:"BREAKER_THRESHOLD" validate:"gte=1"`
	BreakerCooldown   time.Duration `env:"BREAKER_COOLDOWN" validate:"gt=0"`
	RetryAfterDefault time.Duration `env:"UPSTREAM_RETRY_AFTER" validate:"gt=0"` // used when a 429 carries no Retry-After
	UserAgent         string        `env:"UPSTREAM_USER_AGENT"`
}

// APIKeys holds provider credentials. Empty means "not configured".
type APIKeys struct {
	Congress    string `env:"CONGRESS_API_KEY"`
	FEC         string `env:"FEC_API_KEY"`
	GoogleCivic string `env:"GOOGLE_CIVIC_API_KEY"`
	News        string `env:"NEWS_API_KEY"`
	Anthropic   string `env:"ANTHROPIC_API_KEY"`
}

// CacheConfig selects the durable cache backend.
type CacheConfig struct {
	Backend        string `env:"CACHE_BACKEND" validate:"oneof=sqlite redis"`
	RedisURL       string `env:"REDIS_URL" validate:"required_if=Backend redis"`
	SweepThreshold int    `env:"CACHE_SWEEP_THRESHOLD" validate:"gte=1"` // in-process store size that triggers a sweep
}

// AccessConfig controls how caller tiers are resolved.
type AccessConfig struct {
	ForceTier   string `env:"FORCE_TIER" validate:"omitempty,oneof=free premium institutional"` // stub mode
	DefaultTier string `env:"DEFAULT_TIER" validate:"oneof=free premium institutional"`
}

type Config struct {
	Port              string        `env:"PORT" validate:"required,numeric"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" validate:"gt=0"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" validate:"gt=0"` // full profiles fan out to many providers
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" validate:"gt=0"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" validate:"gt=0"`
	GinMode           string        `env:"GIN_MODE"`

	// Proxies allowed to report the client address via X-Forwarded-For.
	TrustedProxies []string `env:"TRUSTED_PROXIES" validate:"omitempty,dive,cidr|ip"`

	LogLevel       string `env:"LOG_LEVEL" validate:"oneof=debug info warn error fatal panic"`
	LogPretty      bool   `env:"LOG_PRETTY"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED"`
	APIBasePath    string `env:"API_BASE_PATH" validate:"startswith=/"`

	DBPath string `env:"DB_PATH" validate:"required"` // usage metrics, and the cache when Backend is sqlite
	Cache  CacheConfig

	// Edge token bucket, ahead of the tier quota. Zero RPS disables it.
	RateRPS   float64 `env:"RATE_RPS" validate:"gte=0"`
	RateBurst int     `env:"RATE_BURST" validate:"gte=1"`

	CORS     CORSConfig
	Security SecurityConfig
	Upstream UpstreamConfig
	Keys     APIKeys
	Access   AccessConfig
	OTEL     OTELConfig
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Load reads the environment, applies defaults and normalization, and
// validates the result. All validation failures are reported together.
func Load() (Config, error) {
	cfg := Config{
		Port:              strings.TrimSpace(getenv("PORT", "8080")),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           ginMode(getenv("GIN_MODE", "release")),
		TrustedProxies:    splitCSV(getenv("TRUSTED_PROXIES", "")),

		LogLevel:       logLevel(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DBPath: strings.TrimSpace(getenv("DB_PATH", "civics.db")),
		Cache: CacheConfig{
			Backend:        strings.ToLower(getenv("CACHE_BACKEND", "sqlite")),
			RedisURL:       strings.TrimSpace(getenv("REDIS_URL", "")),
			SweepThreshold: getint("CACHE_SWEEP_THRESHOLD", 500),
		},

		RateRPS:   getfloat("RATE_RPS", 10.0),
		RateBurst: getint("RATE_BURST", 20),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS:        getbool("ENABLE_HSTS", false),
			HSTSMaxAge:        getdur("HSTS_MAX_AGE", 180*24*time.Hour),
			ClientCacheMaxAge: getdur("CLIENT_CACHE_MAX_AGE", 0),
		},

		Upstream: UpstreamConfig{
			Timeout:           getdur("UPSTREAM_TIMEOUT", 10*time.Second),
			MaxRetries:        getint("UPSTREAM_MAX_RETRIES", 3),
			BreakerThreshold:  getint("BREAKER_THRESHOLD", 3),
			BreakerCooldown:   getdur("BREAKER_COOLDOWN", 60*time.Second),
			RetryAfterDefault: getdur("UPSTREAM_RETRY_AFTER", 2*time.Second),
			UserAgent:         getenv("UPSTREAM_USER_AGENT", "civics-backend/1.0"),
		},
		Keys: APIKeys{
			Congress:    getenv("CONGRESS_API_KEY", ""),
			FEC:         getenv("FEC_API_KEY", ""),
			GoogleCivic: getenv("GOOGLE_CIVIC_API_KEY", ""),
			News:        getenv("NEWS_API_KEY", ""),
			Anthropic:   getenv("ANTHROPIC_API_KEY", ""),
		},

		Access: AccessConfig{
			ForceTier:   strings.ToLower(strings.TrimSpace(getenv("FORCE_TIER", ""))),
			DefaultTier: strings.ToLower(strings.TrimSpace(getenv("DEFAULT_TIER", "free"))),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "civics-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
			Environment: getenv("DEPLOY_ENV", ""),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks every `validate` tag and joins the failures.
func (c Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, errors.New(describe(fe)))
	}
	return errors.Join(msgs...)
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " must not be empty"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", name, strings.Replace(fe.Param(), " ", "=", 1))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "numeric":
		return name + " must be a number"
	case "startswith":
		return fmt.Sprintf("%s must start with %q", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", name, fe.Param())
	case "cidr|ip":
		return name + " must be an IP or CIDR"
	}
	return fmt.Sprintf("%s failed %s", name, fe.Tag())
}

func logLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return "warn"
	}
	return s
}

// ginMode falls back to release for anything gin would not recognise.
func ginMode(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "debug", "release", "test":
		return s
	}
	return "release"
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(getenv(k, ""), 64); err == nil {
		return f
	}
	return def
}

func getint(k string, def int) int {
	if i, err := strconv.Atoi(getenv(k, "")); err == nil {
		return i
	}
	return def
}

func getbool(k string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(getenv(k, ""))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getenv(k, "")); err == nil {
		return d
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath ensures a leading slash and drops trailing ones ("/"
// stays "/").
func normalizeBasePath(p string) string {
	p = "/" + strings.Trim(strings.TrimSpace(p), "/")
	return p
}

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMemory = "memory"
	DriverORM    = "orm"
	DriverHosted = "hosted"
)

// used only when APP_ENV is dev or test and JWT_SECRET is unset
const devJWTSecret = "dev-only-insecure-secret-change-me"

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`
	Port int    `env:"PORT" envDefault:"8080"`

	StorageDriver string `env:"STORAGE_DRIVER"`

	DBURL      string `env:"DATABASE_URL"`
	DBDialect  string `env:"DB_DIALECT" envDefault:"postgres"`
	DBMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`

	HostedURL        string        `env:"HOSTED_URL"`
	HostedServiceKey string        `env:"HOSTED_SERVICE_KEY"`
	HostedTimeout    time.Duration `env:"HOSTED_TIMEOUT" envDefault:"10s"`

	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"30s"`

	JWTSecret    string        `env:"JWT_SECRET"`
	JWTAccessTTL time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	CORSOrigins  []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:4200"`
	MaxBodyBytes int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"warehouse-api"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads an optional .env file (existing variables win) and parses the
// environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.DBDialect = strings.ToLower(strings.TrimSpace(cfg.DBDialect))
	cfg.CORSOrigins = trimCSV(cfg.CORSOrigins)

	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "test"
}

func (c Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required outside dev/test"))
	}

	switch c.StorageDriver {
	case "", DriverMemory, DriverORM, DriverHosted:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	switch c.DBDialect {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DIALECT %q", c.DBDialect))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}

	if c.JWTAccessTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be positive"))
	}

	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}

func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}

func trimCSV(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ServerConfig holds the HTTP gateway settings read from the environment.
type ServerConfig struct {
	Addr            string        `env:"TYPERUSH_ADDR" envDefault:":8080"`
	DBDriver        string        `env:"TYPERUSH_DB_DRIVER" envDefault:"sqlite"`
	DBDSN           string        `env:"TYPERUSH_DB_DSN"`
	Production      bool          `env:"TYPERUSH_PRODUCTION" envDefault:"false"`
	RateLimitRPS    int           `env:"TYPERUSH_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst  int           `env:"TYPERUSH_RATE_LIMIT_BURST" envDefault:"10"`
	RateLimiterTTL  time.Duration `env:"TYPERUSH_RATE_LIMITER_TTL" envDefault:"1h"`
	RequestTimeout  time.Duration `env:"TYPERUSH_REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"TYPERUSH_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	TrustedProxies  []string      `env:"TYPERUSH_TRUSTED_PROXIES" envSeparator:"," envDefault:"127.0.0.1"`
	OTelEndpoint    string        `env:"TYPERUSH_OTEL_ENDPOINT"`
	OTelEnabled     bool          `env:"TYPERUSH_OTEL_ENABLED" envDefault:"true"`
}

// LoadServerConfig loads dotenv files (missing files are skipped) and parses
// the environment. An empty DSN with the sqlite driver uses DefaultDBPath.
func LoadServerConfig(dotenvFiles ...string) (ServerConfig, error) {
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ServerConfig{}, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBDSN == "" && cfg.DBDriver == "sqlite" {
		cfg.DBDSN = DefaultDBPath()
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("TYPERUSH_ADDR must not be empty")
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "mysql" {
		return fmt.Errorf("TYPERUSH_DB_DRIVER must be sqlite or mysql, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("TYPERUSH_DB_DSN is required for %s", c.DBDriver)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit rps and burst must be > 0")
	}
	if c.RequestTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	return nil
}

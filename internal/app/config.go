package app

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers selectable with IGNITE_STORE_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	APIURL      string `env:"IGNITE_API_URL" envDefault:"http://localhost:3333"` // Base URL of the Ignite Gym API
	StoreDriver string `env:"IGNITE_STORE_DRIVER" envDefault:"sqlite"`          // sqlite, file, redis or memory

	DatabaseFile string `env:"IGNITE_DATABASE_FILE" envDefault:"ignite.db"`            // sqlite driver
	SessionFile  string `env:"IGNITE_SESSION_FILE" envDefault:"ignite-session.json"`   // file driver
	RedisURL     string `env:"IGNITE_REDIS_URL" envDefault:"redis://localhost:6379/0"` // redis driver
	RedisPrefix  string `env:"IGNITE_REDIS_PREFIX" envDefault:"ignite"`                // redis driver

	// Optional: seal persisted records. The file wins over the inline value.
	MasterKey     string `env:"IGNITE_MASTER_KEY"`
	MasterKeyPath string `env:"IGNITE_MASTER_KEY_PATH"`

	HTTPTimeout time.Duration `env:"IGNITE_HTTP_TIMEOUT" envDefault:"30s"`
	RateLimit   int           `env:"IGNITE_RATE_LIMIT" envDefault:"0"` // Requests per second, 0 disables
	RateBurst   int           `env:"IGNITE_RATE_BURST" envDefault:"5"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields LoadConfig cannot check by type alone.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("IGNITE_API_URL %q is not an absolute URL", c.APIURL)
	}

	switch c.StoreDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			return fmt.Errorf("IGNITE_DATABASE_FILE is required for the %s driver", c.StoreDriver)
		}
	case DriverFile:
		if c.SessionFile == "" {
			return fmt.Errorf("IGNITE_SESSION_FILE is required for the %s driver", c.StoreDriver)
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("IGNITE_REDIS_URL is required for the %s driver", c.StoreDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown IGNITE_STORE_DRIVER %q", c.StoreDriver)
	}

	if c.HTTPTimeout < 0 {
		return fmt.Errorf("IGNITE_HTTP_TIMEOUT must not be negative")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("IGNITE_RATE_LIMIT and IGNITE_RATE_BURST must not be negative")
	}
	return nil
}

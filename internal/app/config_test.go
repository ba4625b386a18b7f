package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"IGNITE_API_URL", "IGNITE_STORE_DRIVER", "IGNITE_HTTP_TIMEOUT", "IGNITE_RATE_LIMIT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:3333", cfg.APIURL)
	require.Equal(t, DriverSQLite, cfg.StoreDriver)
	require.Equal(t, "ignite.db", cfg.DatabaseFile)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Zero(t, cfg.RateLimit)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("IGNITE_API_URL", "https://gym.example.com")
	t.Setenv("IGNITE_STORE_DRIVER", "redis")
	t.Setenv("IGNITE_REDIS_URL", "redis://cache:6379/2")
	t.Setenv("IGNITE_HTTP_TIMEOUT", "5s")
	t.Setenv("IGNITE_RATE_LIMIT", "10")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "https://gym.example.com", cfg.APIURL)
	require.Equal(t, DriverRedis, cfg.StoreDriver)
	require.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 10, cfg.RateLimit)
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("IGNITE_HTTP_TIMEOUT", "soon")

	_, err := LoadConfig()
	require.ErrorContains(t, err, "parse env")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		APIURL:       "http://localhost:3333",
		StoreDriver:  DriverSQLite,
		DatabaseFile: "ignite.db",
		HTTPTimeout:  time.Second,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "memory driver", mutate: func(c *Config) { c.StoreDriver = DriverMemory }},
		{name: "relative url", mutate: func(c *Config) { c.APIURL = "/api" }, wantErr: "IGNITE_API_URL"},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "etcd" }, wantErr: "unknown IGNITE_STORE_DRIVER"},
		{name: "sqlite without file", mutate: func(c *Config) { c.DatabaseFile = "" }, wantErr: "IGNITE_DATABASE_FILE"},
		{
			name:    "file without path",
			mutate:  func(c *Config) { c.StoreDriver = DriverFile },
			wantErr: "IGNITE_SESSION_FILE",
		},
		{
			name:    "redis without url",
			mutate:  func(c *Config) { c.StoreDriver = DriverRedis },
			wantErr: "IGNITE_REDIS_URL",
		},
		{name: "negative timeout", mutate: func(c *Config) { c.HTTPTimeout = -time.Second }, wantErr: "IGNITE_HTTP_TIMEOUT"},
		{name: "negative rate", mutate: func(c *Config) { c.RateLimit = -1 }, wantErr: "IGNITE_RATE_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

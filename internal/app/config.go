package app

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the engine's entry points.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr      string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	DocStorePrefix string `envconfig:"DOCSTORE_PREFIX" default:"meridian:doc:"`

	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"5"`

	// AllocationTolerance relaxes the exact allocated-equals-quantity check.
	// Zero keeps exact equality.
	AllocationTolerance float64 `envconfig:"ALLOCATION_TOLERANCE" default:"0"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

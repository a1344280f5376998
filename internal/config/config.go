// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config is the full environment configuration of the service. REDIS_URL is
// optional; without it the service falls back to in-memory stores and
// disables event publishing.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR,default=:9000"`
	RedisURL   string `env:"REDIS_URL"`

	// UserTokenSecret verifies bearer tokens issued by the identity service.
	UserTokenSecret string `env:"USER_TOKEN_SECRET,required"`

	ProviderAuthURL string        `env:"PROVIDER_AUTH_URL,default=https://www.linkedin.com"`
	ProviderAPIURL  string        `env:"PROVIDER_API_URL,default=https://www.linkedin.com/voyager/api"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT,default=30s"`

	CheckpointTTL         time.Duration `env:"CHECKPOINT_TTL,default=15m"`
	MaxCheckpointAttempts int           `env:"MAX_CHECKPOINT_ATTEMPTS,default=3"`
}

// Load decodes the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

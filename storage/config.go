package storage

import (
	"fmt"
)

// Provider names.
const (
	ProviderMemory   = "memory"
	ProviderRedis    = "redis"
	ProviderPostgres = "postgres"
	ProviderS3       = "s3"
)

// Default configuration values.
const (
	DefaultProvider  = ProviderMemory
	DefaultKeyPrefix = "nodeflow"
)

// Config selects and scopes a storage backend. Backend specific settings
// are passed to New separately.
type Config struct {
	// Enabled controls whether run state is persisted at all.
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// Provider selects the backend: memory, redis, postgres or s3.
	Provider string `mapstructure:"provider" json:"provider" validate:"omitempty,oneof=memory redis postgres s3"`

	// KeyPrefix scopes all keys written by this process.
	KeyPrefix string `mapstructure:"key_prefix" json:"key_prefix"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
}

// Validate checks that the provider is known.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderMemory, ProviderRedis, ProviderPostgres, ProviderS3:
		return nil
	}
	return fmt.Errorf("storage: unsupported provider %q", c.Provider)
}

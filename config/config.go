package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kbukum/nodeflow/autorun"
	"github.com/kbukum/nodeflow/flow"
	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/observability"
	"github.com/kbukum/nodeflow/server"
	"github.com/kbukum/nodeflow/storage"
	"github.com/kbukum/nodeflow/storage/postgres"
	"github.com/kbukum/nodeflow/storage/redis"
	"github.com/kbukum/nodeflow/storage/s3"
)

// DefaultName is the service name used when the config sets none.
const DefaultName = "nodeflow"

var environments = []string{"development", "staging", "production"}

// AppConfig is the full configuration of the nodeflow binary.
type AppConfig struct {
	Name          string               `yaml:"name" mapstructure:"name"`
	Environment   string               `yaml:"environment" mapstructure:"environment"`
	Debug         bool                 `yaml:"debug" mapstructure:"debug"`
	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Flow          flow.Config          `yaml:"flow" mapstructure:"flow"`
	Autorun       autorun.Config       `yaml:"autorun" mapstructure:"autorun"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Storage       StorageConfig        `yaml:"storage" mapstructure:"storage"`
}

// StorageConfig selects the run store and carries every backend's settings.
// Only the section of the selected provider is used.
type StorageConfig struct {
	storage.Config `yaml:",inline" mapstructure:",squash"`
	Redis          redis.Config    `yaml:"redis" mapstructure:"redis"`
	Postgres       postgres.Config `yaml:"postgres" mapstructure:"postgres"`
	S3             s3.Config       `yaml:"s3" mapstructure:"s3"`
}

// ProviderConfig returns the backend settings for the selected provider,
// in the form storage.New expects.
func (c *StorageConfig) ProviderConfig() any {
	switch c.Provider {
	case storage.ProviderRedis:
		return &c.Redis
	case storage.ProviderPostgres:
		return &c.Postgres
	case storage.ProviderS3:
		return &c.S3
	}
	return nil
}

// ApplyDefaults fills unset values in every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
	c.Flow.ApplyDefaults()
	c.Autorun.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Storage.Redis.ApplyDefaults()
	c.Storage.Postgres.ApplyDefaults()
	c.Storage.S3.ApplyDefaults()
}

// Validate checks every section and reports all problems at once. Backend
// settings are only checked for the selected provider of an enabled store.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !slices.Contains(environments, c.Environment) {
		errs = append(errs, fmt.Errorf("environment must be one of %v (got: %s)", environments, c.Environment))
	}

	sections := []struct {
		name string
		fn   func() error
	}{
		{"logging", c.Logging.Validate},
		{"flow", c.Flow.Validate},
		{"autorun", c.Autorun.Validate},
		{"server", c.Server.Validate},
		{"observability", c.Observability.Validate},
		{"storage", c.Storage.Config.Validate},
	}
	for _, s := range sections {
		if err := s.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	if c.Storage.Enabled {
		var err error
		switch c.Storage.Provider {
		case storage.ProviderRedis:
			err = c.Storage.Redis.Validate()
		case storage.ProviderPostgres:
			err = c.Storage.Postgres.Validate()
		case storage.ProviderS3:
			err = c.Storage.S3.Validate()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("storage.%s: %w", c.Storage.Provider, err))
		}
	}
	return errors.Join(errs...)
}

// Load reads the nodeflow configuration, applies defaults and validates it.
func Load(opts ...LoaderOption) (*AppConfig, error) {
	var cfg AppConfig
	if err := LoadConfig(DefaultName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

package server

import (
	"net/http"
	"time"

	"github.com/kbukum/nodeflow/server/middleware"
	"github.com/kbukum/nodeflow/validation"
)

// Config holds the settings of the API listener.
type Config struct {
	Host string `yaml:"host" mapstructure:"host" json:"host"`
	Port int    `yaml:"port" mapstructure:"port" json:"port" validate:"gte=0,lte=65535"`

	// WriteTimeout must outlast the slowest run a client may start, since
	// POST /v1/runs answers only when the run finishes.
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" json:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" json:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" json:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" json:"shutdown_timeout" validate:"gte=0"`

	// MaxStreams caps concurrent HTTP/2 streams per cleartext connection.
	MaxStreams  uint32                `yaml:"max_streams" mapstructure:"max_streams" json:"max_streams"`
	MaxBodySize string                `yaml:"max_body_size" mapstructure:"max_body_size" json:"max_body_size"` // e.g. "10MB"
	CORS        middleware.CORSConfig `yaml:"cors" mapstructure:"cors" json:"cors"`
	// RateLimit is the per-client requests per minute. Zero disables limiting.
	RateLimit int `yaml:"rate_limit" mapstructure:"rate_limit" json:"rate_limit" validate:"gte=0"`
}

const (
	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = time.Minute
	DefaultIdleTimeout     = time.Minute
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMaxStreams      = 250
	DefaultMaxBodySize     = "10MB"
)

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.MaxStreams == 0 {
		c.MaxStreams = DefaultMaxStreams
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = DefaultMaxBodySize
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID}
	}
}

// Validate checks the listener limits.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c)
}

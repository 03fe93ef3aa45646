package observability

import (
	"fmt"
	"time"
)

// Config is the observability section of the application config.
type Config struct {
	// Tracing enables the OTLP trace exporter.
	Tracing bool `mapstructure:"tracing" json:"tracing"`

	// Metrics enables the OTLP metric exporter.
	Metrics bool `mapstructure:"metrics" json:"metrics"`

	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// Insecure allows plaintext connections to the collector.
	Insecure bool `mapstructure:"insecure" json:"insecure"`

	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" json:"sample_rate" validate:"gte=0,lte=1"`

	// MetricInterval is the metric export interval (e.g. "15s").
	MetricInterval string `mapstructure:"metric_interval" json:"metric_interval"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == "" {
		c.MetricInterval = "15s"
	}
}

// Validate checks ranges and durations.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("observability: sample_rate must be between 0 and 1, got %v", c.SampleRate)
	}
	if _, err := time.ParseDuration(c.MetricInterval); err != nil {
		return fmt.Errorf("observability: invalid metric_interval %q: %w", c.MetricInterval, err)
	}
	return nil
}

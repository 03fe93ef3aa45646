package flow

import (
	"time"

	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/validation"
)

// Config contains engine limits.
type Config struct {
	// DefaultTimeout bounds async operations whose type sets no timeout.
	DefaultTimeout time.Duration `yaml:"default_timeout" mapstructure:"default_timeout" json:"default_timeout" validate:"gte=0"`
	// MaxLoopIterations is used when a loop node sets no maxIterations.
	MaxLoopIterations int `yaml:"max_loop_iterations" mapstructure:"max_loop_iterations" json:"max_loop_iterations" validate:"gte=1,lte=10000"`
	// IterationFactor times the node count caps scheduler dequeues per pass.
	IterationFactor int `yaml:"iteration_factor" mapstructure:"iteration_factor" json:"iteration_factor" validate:"gte=1"`
	// MaxSignalDepth bounds nested loop passes.
	MaxSignalDepth int `yaml:"max_signal_depth" mapstructure:"max_signal_depth" json:"max_signal_depth" validate:"gte=1"`
}

const (
	DefaultIterationFactor = 2
	DefaultMaxSignalDepth  = 32
)

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = registry.DefaultTimeout
	}
	if c.MaxLoopIterations == 0 {
		c.MaxLoopIterations = registry.DefaultLoopIterations
	}
	if c.IterationFactor == 0 {
		c.IterationFactor = DefaultIterationFactor
	}
	if c.MaxSignalDepth == 0 {
		c.MaxSignalDepth = DefaultMaxSignalDepth
	}
}

// Validate checks the limits.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c)
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

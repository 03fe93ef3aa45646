package autorun

import (
	"github.com/kbukum/nodeflow/validation"
)

// Config overrides the policy tables. A nil list keeps the default table;
// an empty list disables the trigger.
type Config struct {
	OnCreate       []string `yaml:"on_create" mapstructure:"on_create" json:"on_create" validate:"dive,required"`
	OnConfigChange []string `yaml:"on_config_change" mapstructure:"on_config_change" json:"on_config_change" validate:"dive,required"`
	OnDataReceived []string `yaml:"on_data_received" mapstructure:"on_data_received" json:"on_data_received" validate:"dive,required"`
}

// ApplyDefaults fills unset tables from DefaultPolicy.
func (c *Config) ApplyDefaults() {
	if c.OnCreate == nil {
		c.OnCreate = append([]string(nil), defaultOnCreate...)
	}
	if c.OnConfigChange == nil {
		c.OnConfigChange = append([]string(nil), defaultOnConfigChange...)
	}
	if c.OnDataReceived == nil {
		c.OnDataReceived = append([]string(nil), defaultOnDataReceived...)
	}
}

// Validate rejects blank type names.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c)
}

// Policy builds the policy described by the config.
func (c *Config) Policy() Policy {
	return NewPolicy(c.OnCreate, c.OnConfigChange, c.OnDataReceived)
}

package s3

import (
	"fmt"

	"github.com/kbukum/nodeflow/validation"
)

// DefaultRegion is used when the config names none.
const DefaultRegion = "us-east-1"

// Config selects the bucket run state is written to. Credentials fall back
// to the AWS default chain when AccessKey is empty.
type Config struct {
	Bucket         string `yaml:"bucket" mapstructure:"bucket" json:"bucket" validate:"required"`
	Region         string `yaml:"region" mapstructure:"region" json:"region" validate:"required"`
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint" validate:"omitempty,url"`
	AccessKey      string `yaml:"access_key" mapstructure:"access_key" json:"access_key" validate:"required_with=SecretKey"`
	SecretKey      string `yaml:"secret_key" mapstructure:"secret_key" json:"-" validate:"required_with=AccessKey"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style" json:"force_path_style"`
}

func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate requires a bucket and both halves of a static key pair or
// neither. An endpoint, for S3 compatible servers, must be a URL.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("s3: %w", err)
	}
	return nil
}

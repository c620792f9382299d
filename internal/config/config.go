// Package config loads and validates the root YAML configuration. A
// config file declares the engine version it was written for; files
// written for a different major or minor version are rejected before
// anything else starts.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/controlplane"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/exchange"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/execution"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/feed"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/journal"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/risk"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/version"
	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

// DefaultFillTimeout bounds how long a placed limit order may sit
// unfilled before it is cancelled and the placement abandoned.
const DefaultFillTimeout = 30 * time.Second

// Config is the root configuration for the bot.
type Config struct {
	// Version is the engine version this file was written for.
	Version string `json:"version" yaml:"version" jsonschema:"title=Version,description=Engine version this file was written for" validate:"required"`
	// Symbols are the instruments the market feed subscribes to.
	Symbols []string `json:"symbols" yaml:"symbols" jsonschema:"title=Symbols,description=Instruments to stream" validate:"required,min=1,dive,required"`
	// FillTimeoutSeconds bounds how long a placed limit order may sit
	// unfilled. Zero uses DefaultFillTimeout.
	FillTimeoutSeconds int `json:"fillTimeoutSeconds,omitempty" yaml:"fillTimeoutSeconds,omitempty" jsonschema:"title=Fill Timeout Seconds,description=Seconds to wait for a fill before cancelling" validate:"gte=0"`

	Exchange exchange.BinanceConfig  `json:"exchange" yaml:"exchange" jsonschema:"title=Exchange"`
	Runtime  execution.RuntimeConfig `json:"runtime" yaml:"runtime" jsonschema:"title=Runtime"`
	Risk     risk.Config             `json:"risk" yaml:"risk" jsonschema:"title=Risk"`
	Journal  journal.Config          `json:"journal,omitempty" yaml:"journal,omitempty" jsonschema:"title=Journal"`
	Feed     feed.Config             `json:"feed,omitempty" yaml:"feed,omitempty" jsonschema:"title=Feed"`
	Server   controlplane.Config     `json:"server" yaml:"server" jsonschema:"title=Server"`
}

// Load reads, parses and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
	}

	return Parse(data)
}

// Parse parses and validates raw YAML config.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the Config struct, nested sections included, and
// checks the declared version against the running engine.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := version.CheckVersionCompatibility(version.GetVersion(), c.Version); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "config version incompatible", err)
	}

	return nil
}

// FillTimeout returns the configured fill timeout.
func (c *Config) FillTimeout() time.Duration {
	if c.FillTimeoutSeconds <= 0 {
		return DefaultFillTimeout
	}

	return time.Duration(c.FillTimeoutSeconds) * time.Second
}

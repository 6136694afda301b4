package main

import (
	"time"

	"github.com/kbukum/sleepy/config"
	"github.com/kbukum/sleepy/errors"
	"github.com/kbukum/sleepy/logger"
	"github.com/kbukum/sleepy/observability"
	"github.com/kbukum/sleepy/sleepy"
	"github.com/kbukum/sleepy/validation"
	"github.com/kbukum/sleepy/version"
)

const (
	appName   = "sleepy"
	envPrefix = "SLEEPY"
)

// AppConfig is the sleepy command's configuration file layout.
type AppConfig struct {
	config.BaseConfig `yaml:",inline" mapstructure:",squash"`

	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Client        sleepy.Config        `yaml:"client" mapstructure:"client"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills in zero-value fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = appName
	}
	if c.Version == "" {
		c.Version = version.Version
	}
	c.BaseConfig.ApplyDefaults()
	c.Logging.ApplyDefaults()
	if c.Client.Gateway.UserAgent == "" {
		c.Client.Gateway.UserAgent = version.UserAgent()
	}
	c.Client.ApplyDefaults()
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
}

// Validate checks the base fields and the struct tags.
func (c *AppConfig) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return errors.InvalidConfig(err.Error()).WithCause(err)
	}
	return validation.Validate(c)
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configFile string
	envFile    string
	gateway    string
	server     string
	timeout    time.Duration
	verbose    bool
	noColor    bool
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(f *globalFlags) (*AppConfig, error) {
	opts := []config.LoaderOption{config.WithEnvPrefix(envPrefix)}
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}

	var cfg AppConfig
	if err := config.LoadConfig(appName, &cfg, opts...); err != nil {
		return nil, errors.InvalidConfig(err.Error()).WithCause(err)
	}

	if f.gateway != "" {
		cfg.Client.Gateway.BaseURL = f.gateway
	}
	if f.server != "" {
		cfg.Client.Server = f.server
	}
	if f.timeout > 0 {
		cfg.Client.Gateway.Timeout = f.timeout
	}
	if f.verbose {
		cfg.Logging.Level = "debug"
	}
	if f.noColor {
		cfg.Logging.NoColor = true
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package httpclient

import (
	"fmt"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "sleepy-go"
)

// Config configures the gateway transport.
type Config struct {
	// BaseURL is the gateway root, e.g. http://localhost:27080.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Timeout bounds each request. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are applied to every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// UserAgent defaults to "sleepy-go".
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	TLS  *TLSConfig  `yaml:"tls" mapstructure:"tls"`

	// HTTP2 enables HTTP/2 on the transport for TLS gateways.
	HTTP2 bool `yaml:"http2" mapstructure:"http2"`

	// MaxInFlight caps concurrent requests. 0 disables the cap.
	MaxInFlight int `yaml:"max_in_flight" mapstructure:"max_in_flight" validate:"gte=0"`
	// MaxInFlightWait is how long a request waits for a slot. 0 fails
	// immediately, a negative value waits until the context is done.
	MaxInFlightWait time.Duration `yaml:"max_in_flight_wait" mapstructure:"max_in_flight_wait"`

	// RateLimit is the sustained requests per second. 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
	// RateBurst is the token bucket size. Defaults to RateLimit.
	RateBurst int `yaml:"rate_burst" mapstructure:"rate_burst" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("httpclient: max_in_flight must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("httpclient: rate_limit must not be negative")
	}
	return c.TLS.Validate()
}

// config.go: Plugin configuration, defaults and validation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultEndpoint is the public horoscope API.
	DefaultEndpoint = "https://api.vvhan.com/api/horoscope"

	// DefaultUserAgent identifies the plugin to the horoscope API.
	DefaultUserAgent = "astrbot-plugin-constellation/1.0"

	// PluginName is the name the plugin registers under.
	PluginName = "constellation"

	// PluginVersion is reported by Info.
	PluginVersion = "1.0.0"
)

// Config contains everything needed to build a ConstellationPlugin.
//
// Example YAML:
//
//	endpoint: https://api.vvhan.com/api/horoscope
//	template: summary
//	connection:
//	  request_timeout: 10s
//	  connection_timeout: 5s
//	logging:
//	  level: info
type Config struct {
	Endpoint   string           `json:"endpoint" yaml:"endpoint"`
	Template   string           `json:"template" yaml:"template"`
	UserAgent  string           `json:"user_agent" yaml:"user_agent"`
	Connection ConnectionConfig `json:"connection" yaml:"connection"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// ConnectionConfig controls the pooled HTTP client shared by all lookups.
type ConnectionConfig struct {
	MaxIdleConnections int      `json:"max_idle_connections" yaml:"max_idle_connections"`
	IdleTimeout        Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ConnectionTimeout  Duration `json:"connection_timeout" yaml:"connection_timeout"`
	RequestTimeout     Duration `json:"request_timeout" yaml:"request_timeout"`
	DisableCompression bool     `json:"disable_compression" yaml:"disable_compression"`
}

// LoggingConfig selects the log level of the zap logger built by the
// example host.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		Template:  string(TemplateFull),
		UserAgent: DefaultUserAgent,
		Connection: ConnectionConfig{
			MaxIdleConnections: 10,
			IdleTimeout:        Duration(90 * time.Second),
			ConnectionTimeout:  Duration(5 * time.Second),
			RequestTimeout:     Duration(10 * time.Second),
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks the configuration and returns the first problem found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return NewInvalidEndpointURLError(c.Endpoint, nil)
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return NewInvalidEndpointURLError(c.Endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewInvalidEndpointURLError(c.Endpoint, nil)
	}

	if _, err := ParseTemplate(c.Template); err != nil {
		return err
	}

	if c.Connection.RequestTimeout <= 0 {
		return NewInvalidRequestTimeoutError(c.Connection.RequestTimeout.String())
	}
	if c.Connection.ConnectionTimeout < 0 || c.Connection.IdleTimeout < 0 {
		return NewConfigValidationError("connection timeouts cannot be negative", nil)
	}
	if c.Connection.MaxIdleConnections < 0 {
		return NewConfigValidationError("max_idle_connections cannot be negative", nil)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return NewConfigValidationError(fmt.Sprintf("unknown log level %q", c.Logging.Level), nil)
	}
	return nil
}

// Duration is a time.Duration that reads "10s" style strings from JSON and
// YAML. Plain JSON numbers are taken as nanoseconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\" or nanoseconds: %w", err)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Package config loads the router configuration file.
//
// The file is YAML:
//
//	logLevel: info
//	eventLog: /var/log/iotdm/router.ilog
//	mdns:
//	  enabled: true
//	metrics:
//	  listen: 127.0.0.1:9464
//	defaultChannel:
//	  readTimeout: 10s
//	plugins:
//	  - name: lights
//	    kind: static
//	    response: {code: 200, contentType: text/plain, body: "on"}
//	    endpoints:
//	      - {protocol: http, port: 8282, mode: SharedPrefixMatch, uri: /home/light1}
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/manager"
	"gopkg.in/yaml.v3"
)

// Plugin kinds built into the router.
const (
	KindStatic = "static"
	KindEcho   = "echo"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the router configuration.
type Config struct {
	// LogLevel is the slog level name (debug, info, warn, error).
	LogLevel string `yaml:"logLevel"`

	// LogFormat selects text or json operational logs.
	LogFormat string `yaml:"logFormat"`

	// EventLog is the path of the CBOR event log. Empty disables it.
	EventLog string `yaml:"eventLog"`

	// Interactive starts the interactive shell.
	Interactive bool `yaml:"interactive"`

	// MDNS configures advertisement of server channels.
	MDNS MDNSConfig `yaml:"mdns"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// DefaultChannel is the configuration of channels registered without
	// one of their own.
	DefaultChannel *channel.Config `yaml:"defaultChannel"`

	// Plugins are the plugins registered at startup.
	Plugins []PluginConfig `yaml:"plugins"`
}

// MDNSConfig configures mDNS advertisement.
type MDNSConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Interface string        `yaml:"interface"`
	TTL       time.Duration `yaml:"ttl"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address serving /metrics. Empty disables metrics.
	Listen string `yaml:"listen"`
}

// PluginConfig describes one built-in plugin instance.
type PluginConfig struct {
	Name      string           `yaml:"name"`
	Kind      string           `yaml:"kind"`
	Response  ResponseConfig   `yaml:"response"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// ResponseConfig is the fixed answer of a static plugin.
type ResponseConfig struct {
	Code        int    `yaml:"code"`
	ContentType string `yaml:"contentType"`
	Body        string `yaml:"body"`
}

// EndpointConfig is one registration of a plugin.
type EndpointConfig struct {
	Protocol string          `yaml:"protocol"`
	Address  string          `yaml:"address"`
	Port     int             `yaml:"port"`
	Mode     channel.Mode    `yaml:"mode"`
	URI      string          `yaml:"uri"`
	Channel  *channel.Config `yaml:"channel"`
}

// Registration converts the endpoint to a manager registration.
func (e EndpointConfig) Registration() manager.Registration {
	return manager.Registration{
		Protocol: e.Protocol,
		Address:  e.Address,
		Port:     e.Port,
		Mode:     e.Mode,
		URI:      e.URI,
		Config:   e.Channel.Clone(),
	}
}

// LoadError describes a configuration that could not be loaded.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: FormatText,
		MDNS:      MDNSConfig{TTL: 120 * time.Second},
		DefaultChannel: &channel.Config{
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			MaxBodySize:  channel.DefaultMaxBodySize,
		},
	}
}

// Parse parses and validates YAML configuration data. Unset fields keep
// their Default values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Message: "invalid configuration", Cause: err}
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "", FormatText, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	names := make(map[string]bool)
	for i, p := range c.Plugins {
		where := fmt.Sprintf("plugins[%d]", i)
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", where))
		} else if names[p.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate plugin name %q", where, p.Name))
		}
		names[p.Name] = true

		switch p.Kind {
		case KindStatic, KindEcho:
		default:
			errs = append(errs, fmt.Errorf("%s: unknown kind %q", where, p.Kind))
		}
		if len(p.Endpoints) == 0 {
			errs = append(errs, fmt.Errorf("%s: at least one endpoint is required", where))
		}
		for j, e := range p.Endpoints {
			if err := e.validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s.endpoints[%d]: %w", where, j, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (e EndpointConfig) validate() error {
	if _, ok := channel.TransportFor(e.Protocol); !ok {
		return fmt.Errorf("unknown protocol %q", e.Protocol)
	}
	if e.Port <= 0 || e.Port > 65535 {
		return fmt.Errorf("port %d out of range", e.Port)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

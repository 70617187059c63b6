package channel

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// Channel errors.
var (
	ErrUnknownMode    = errors.New("unknown channel mode")
	ErrNoPlugin       = errors.New("no plugin registered for path")
	ErrAlreadyStarted = errors.New("channel already started")
	ErrClosed         = errors.New("channel closed")
	ErrTLSConfig      = errors.New("invalid TLS configuration")
)

// State is the lifecycle state of a channel.
type State uint8

const (
	// StateInit is the state of a channel that has not been started.
	StateInit State = iota
	// StateRunning is the state of a channel running its own configuration.
	StateRunning
	// StateRunningDefault is the state of a channel running the default
	// configuration.
	StateRunningDefault
	// StateWaitingDefault is the state of a channel configured to use the
	// default configuration while none is set.
	StateWaitingDefault
	// StateInitFailed is the state of a channel that failed to start.
	StateInitFailed
	// StateFailed is the state of a channel that stopped serving on error.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRunning:
		return "RUNNING"
	case StateRunningDefault:
		return "RUNNINGDEFAULT"
	case StateWaitingDefault:
		return "WAITINGDEFAULT"
	case StateInitFailed:
		return "INITFAILED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsRunning reports whether the channel is serving requests.
func (s State) IsRunning() bool {
	return s == StateRunning || s == StateRunningDefault
}

// Config holds the protocol independent channel settings.
type Config struct {
	// ReadTimeout bounds reading a whole request.
	ReadTimeout time.Duration `yaml:"readTimeout"`

	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration `yaml:"writeTimeout"`

	// MaxBodySize limits the request payload (default: 1 MiB).
	MaxBodySize int64 `yaml:"maxBodySize"`

	// CertFile and KeyFile hold the PEM encoded server certificate and key
	// used by secure protocols.
	CertFile string `yaml:"certFile"`
	KeyFile  string `yaml:"keyFile"`
}

// DefaultMaxBodySize is used when Config.MaxBodySize is zero.
const DefaultMaxBodySize = 1 << 20

// Equal reports whether c and other describe the same settings.
// Two nil configs are equal.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return *c == *other
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func (c *Config) maxBodySize() int64 {
	if c == nil || c.MaxBodySize <= 0 {
		return DefaultMaxBodySize
	}
	return c.MaxBodySize
}

// Lookup resolves a request path to the plugin responsible for it.
// A nil result means no plugin matches.
type Lookup interface {
	Lookup(path string) plugin.Plugin
}

// Channel is a transport endpoint dispatching requests to plugins.
type Channel interface {
	// ID returns the channel identifier.
	ID() ID

	// Start begins serving requests.
	Start(ctx context.Context) error

	// Close stops serving and releases the endpoint.
	Close() error

	// State returns the current lifecycle state.
	State() State

	// UsesDefaultConfig reports whether the channel runs on the router's
	// default configuration.
	UsesDefaultConfig() bool

	// CompareConfig reports whether the channel runs with cfg.
	CompareConfig(cfg *Config) bool

	// Addr returns the bound address, or nil when not running.
	Addr() net.Addr
}

// Factory creates channels of one protocol.
type Factory interface {
	// Type returns the type of the channels created.
	Type() Type

	// Transport returns the transport of the channels created.
	Transport() Transport

	// New creates a channel dispatching through lookup. The channel is
	// not started.
	New(id ID, cfg *Config, lookup Lookup, usesDefault bool) (Channel, error)
}

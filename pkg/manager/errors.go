package manager

import (
	"errors"
	"fmt"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
)

// Manager errors.
var (
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrInvalidAddress      = errors.New("invalid IPv4 address")
	ErrInvalidPort         = errors.New("invalid port")
	ErrAddressInUse        = errors.New("port in use on all interfaces")
	ErrProtocolMismatch    = errors.New("port used by another protocol")
	ErrModeMismatch        = errors.New("channel uses another registry mode")
	ErrConfigMismatch      = errors.New("channel uses another configuration")
	ErrLoaderExists        = errors.New("plugin loader already registered")
	ErrClosed              = errors.New("manager closed")
)

// RegistrationError describes a failed plugin registration.
type RegistrationError struct {
	// Plugin is the name of the plugin.
	Plugin string

	// Channel identifies the channel the plugin was registered on.
	Channel channel.ID

	// URI is the requested path.
	URI string

	// Err is the cause.
	Err error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register plugin %q at %q on %s: %v", e.Plugin, e.URI, e.Channel, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

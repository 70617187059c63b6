package channel

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Protocol names.
const (
	ProtocolHTTP      = "http"
	ProtocolHTTPS     = "https"
	ProtocolCoAP      = "coap"
	ProtocolCoAPS     = "coaps"
	ProtocolWebSocket = "websocket"
	ProtocolMQTT      = "mqtt"
)

// AllInterfaces is the address of a channel listening on every interface.
const AllInterfaces = "0.0.0.0"

// Type distinguishes channels that accept requests from channels that
// connect out to a remote endpoint.
type Type uint8

const (
	TypeServer Type = iota
	TypeClient
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeServer:
		return "SERVER"
	case TypeClient:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

// Transport is the transport layer protocol of a channel.
type Transport uint8

const (
	TransportTCP Transport = iota
	TransportUDP
)

// String returns the transport name.
func (t Transport) String() string {
	switch t {
	case TransportTCP:
		return "TCP"
	case TransportUDP:
		return "UDP"
	default:
		return "UNKNOWN"
	}
}

// TransportFor returns the transport a protocol runs on.
func TransportFor(protocol string) (Transport, bool) {
	switch protocol {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolWebSocket, ProtocolMQTT:
		return TransportTCP, true
	case ProtocolCoAP, ProtocolCoAPS:
		return TransportUDP, true
	}
	return 0, false
}

// Mode is the sharing discipline of a channel's registry.
type Mode uint8

const (
	// ModeExclusive lets a single plugin own every path of the channel.
	ModeExclusive Mode = iota
	// ModeSharedExactMatch shares the channel between plugins registered
	// at exact paths.
	ModeSharedExactMatch
	// ModeSharedPrefixMatch shares the channel between plugins registered
	// at path prefixes; lookups pick the longest registered prefix.
	ModeSharedPrefixMatch
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeExclusive:
		return "Exclusive"
	case ModeSharedExactMatch:
		return "SharedExactMatch"
	case ModeSharedPrefixMatch:
		return "SharedPrefixMatch"
	default:
		return "Unknown(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode parses a mode name, ignoring case. The short forms "exclusive",
// "exact" and "prefix" are accepted as well.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "exclusive":
		return ModeExclusive, nil
	case "sharedexactmatch", "exact":
		return ModeSharedExactMatch, nil
	case "sharedprefixmatch", "prefix":
		return ModeSharedPrefixMatch, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ID identifies a channel. IDs are values and never change once built.
type ID struct {
	Type      Type
	Transport Transport
	IP        string
	Port      int
	Protocol  string
	Mode      Mode
}

// AddrAndPort returns "ip:port", the key of the channel among channels of
// the same type and transport.
func (id ID) AddrAndPort() string {
	return net.JoinHostPort(id.IP, strconv.Itoa(id.Port))
}

// AllInterfacesAddrAndPort returns the key a channel on the same port would
// have when listening on all interfaces.
func (id ID) AllInterfacesAddrAndPort() string {
	return net.JoinHostPort(AllInterfaces, strconv.Itoa(id.Port))
}

// IsAllInterfaces reports whether the channel listens on every interface.
func (id ID) IsAllInterfaces() bool {
	return id.IP == AllInterfaces
}

// String returns the short debug form, e.g. "http 0.0.0.0:8282".
func (id ID) String() string {
	return id.Protocol + " " + id.AddrAndPort()
}

// DebugString returns every field of the ID.
func (id ID) DebugString() string {
	return fmt.Sprintf("%s/%s %s %s mode=%s", id.Type, id.Transport, id.Protocol, id.AddrAndPort(), id.Mode)
}

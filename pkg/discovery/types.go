package discovery

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
)

// Domain is the mDNS domain.
const Domain = "local"

// TXT record keys.
const (
	TXTKeyMode     = "mode"
	TXTKeyProtocol = "proto"
	TXTKeyPaths    = "paths"
)

// MaxTXTStringLen is the maximum length of one TXT string (key=value).
const MaxTXTStringLen = 255

// Discovery errors.
var (
	ErrNotFound       = errors.New("service not advertised")
	ErrInvalidService = errors.New("invalid service")
)

// Service describes one advertised channel.
type Service struct {
	// Instance is the service instance name. Empty means the default
	// "iotdm-<protocol>-<port>".
	Instance string

	// Protocol is the channel protocol name.
	Protocol string

	// Transport selects the _tcp or _udp service suffix.
	Transport channel.Transport

	// Port is the channel port.
	Port int

	// Mode is the sharing mode of the channel registry.
	Mode channel.Mode

	// Paths are the registered paths.
	Paths []string
}

// ServiceFor returns the service describing the channel identified by id.
func ServiceFor(id channel.ID, paths []string) *Service {
	return &Service{
		Protocol:  id.Protocol,
		Transport: id.Transport,
		Port:      id.Port,
		Mode:      id.Mode,
		Paths:     paths,
	}
}

// Key identifies the service among the advertised ones.
func (s *Service) Key() string {
	return s.Protocol + ":" + strconv.Itoa(s.Port)
}

// InstanceName returns the instance name to advertise.
func (s *Service) InstanceName() string {
	if s.Instance != "" {
		return s.Instance
	}
	return fmt.Sprintf("iotdm-%s-%d", s.Protocol, s.Port)
}

// ServiceType returns the DNS-SD service type, e.g. "_onem2m-http._tcp".
func (s *Service) ServiceType() string {
	return ServiceType(s.Protocol, s.Transport)
}

// Validate checks that the service can be advertised.
func (s *Service) Validate() error {
	if s.Protocol == "" {
		return fmt.Errorf("%w: protocol is required", ErrInvalidService)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidService, s.Port)
	}
	return nil
}

// ServiceType returns the DNS-SD service type of a protocol.
func ServiceType(protocol string, transport channel.Transport) string {
	suffix := "_tcp"
	if transport == channel.TransportUDP {
		suffix = "_udp"
	}
	return "_onem2m-" + protocol + "." + suffix
}

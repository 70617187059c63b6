package discovery

import (
	"context"
	"time"
)

// Advertiser publishes server channels.
type Advertiser interface {
	// Advertise starts advertising svc, replacing an advertisement with
	// the same key.
	Advertise(ctx context.Context, svc *Service) error

	// Update refreshes the TXT records of an advertised service.
	Update(svc *Service) error

	// Withdraw stops advertising the service with the given key.
	Withdraw(key string) error

	// StopAll stops all advertisements.
	StopAll()
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		TTL: 120 * time.Second,
	}
}

// NoopAdvertiser advertises nothing.
type NoopAdvertiser struct{}

func (NoopAdvertiser) Advertise(context.Context, *Service) error { return nil }
func (NoopAdvertiser) Update(*Service) error                     { return nil }
func (NoopAdvertiser) Withdraw(string) error                     { return nil }
func (NoopAdvertiser) StopAll()                                  {}

// Compile-time interface satisfaction checks.
var (
	_ Advertiser = NoopAdvertiser{}
	_ Advertiser = (*MDNSAdvertiser)(nil)
)

package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// MDNSAdvertiser implements the Advertiser interface using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu      sync.Mutex
	servers map[string]*zeroconf.Server // keyed by Service.Key
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{
		config:  config,
		servers: make(map[string]*zeroconf.Server),
	}
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise starts advertising svc.
func (a *MDNSAdvertiser) Advertise(ctx context.Context, svc *Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := svc.Key()
	if server, exists := a.servers[key]; exists {
		server.Shutdown()
		delete(a.servers, key)
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		svc.InstanceName(),
		svc.ServiceType(),
		Domain,
		svc.Port,
		TXTRecordsToStrings(EncodeServiceTXT(svc)),
		a.getInterfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register %s service: %w", svc.ServiceType(), err)
	}

	a.servers[key] = server
	return nil
}

// Update refreshes the TXT records of an advertised service.
func (a *MDNSAdvertiser) Update(svc *Service) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	server, exists := a.servers[svc.Key()]
	if !exists {
		return ErrNotFound
	}
	server.SetText(TXTRecordsToStrings(EncodeServiceTXT(svc)))
	return nil
}

// Withdraw stops advertising the service with the given key.
func (a *MDNSAdvertiser) Withdraw(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	server, exists := a.servers[key]
	if !exists {
		return ErrNotFound
	}
	server.Shutdown()
	delete(a.servers, key)
	return nil
}

// StopAll stops all advertisements.
func (a *MDNSAdvertiser) StopAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key, server := range a.servers {
		server.Shutdown()
		delete(a.servers, key)
	}
}

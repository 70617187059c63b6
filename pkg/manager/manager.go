package manager

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"sync"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/discovery"
	"github.com/opendaylight/iotdm-sub002/pkg/log"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
	"github.com/opendaylight/iotdm-sub002/pkg/registry"
)

// Registration describes where a plugin is registered.
type Registration struct {
	// Protocol is the channel protocol name (see channel.Protocol*).
	Protocol string

	// Address is the IPv4 address to listen on. Empty means all interfaces.
	Address string

	// Port is the channel port.
	Port int

	// Mode is the sharing mode of the channel registry.
	Mode channel.Mode

	// URI is the path the plugin is registered at.
	URI string

	// Config is the channel configuration. Nil selects the default
	// configuration of the manager.
	Config *channel.Config
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEvents sets the receiver of router events. The events are also
// handed to registries and to the built-in channel factories.
func WithEvents(events log.Logger) Option {
	return func(m *Manager) {
		m.events = events
	}
}

// WithFactory installs the channel factory of a protocol, replacing the
// built-in one.
func WithFactory(protocol string, f channel.Factory) Option {
	return func(m *Manager) {
		m.factories[protocol] = f
	}
}

// WithAdvertiser publishes server channels through a.
func WithAdvertiser(a discovery.Advertiser) Option {
	return func(m *Manager) {
		m.advertiser = a
	}
}

// WithDefaultConfig sets the initial default channel configuration.
func WithDefaultConfig(cfg *channel.Config) Option {
	return func(m *Manager) {
		m.defaultConfig = cfg.Clone()
	}
}

type tableKey struct {
	typ       channel.Type
	transport channel.Transport
}

// endpoint is one channel with its registry.
type endpoint struct {
	id      channel.ID
	reg     registry.Registry
	ch      channel.Channel
	factory channel.Factory
}

// Manager creates and owns channels and registers plugins on them.
type Manager struct {
	logger     *slog.Logger
	events     log.Logger
	advertiser discovery.Advertiser

	mu            sync.Mutex
	closed        bool
	factories     map[string]channel.Factory
	channels      map[tableKey]map[string]*endpoint
	loaders       map[string]plugin.Loader
	defaultConfig *channel.Config
}

// New creates a Manager. HTTP and HTTPS are supported out of the box;
// other protocols need WithFactory.
func New(opts ...Option) *Manager {
	m := &Manager{
		factories: make(map[string]channel.Factory),
		channels:  make(map[tableKey]map[string]*endpoint),
		loaders:   make(map[string]plugin.Loader),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	m.events = log.OrNoop(m.events)
	if m.advertiser == nil {
		m.advertiser = discovery.NoopAdvertiser{}
	}
	if _, ok := m.factories[channel.ProtocolHTTP]; !ok {
		m.factories[channel.ProtocolHTTP] = &channel.HTTPFactory{Logger: m.logger, Events: m.events}
	}
	if _, ok := m.factories[channel.ProtocolHTTPS]; !ok {
		m.factories[channel.ProtocolHTTPS] = &channel.HTTPFactory{TLS: true, Logger: m.logger, Events: m.events}
	}
	return m
}

// Register registers p as described by r, creating and starting the
// channel if none exists for the endpoint yet. Registering a plugin at a
// path it already owns succeeds. Failures are *RegistrationError.
func (m *Manager) Register(ctx context.Context, p plugin.Plugin, r Registration) error {
	if p == nil {
		return registry.ErrNilPlugin
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	id, factory, err := m.resolveLocked(r)
	if err != nil {
		return m.failed(p, id, r.URI, err)
	}

	table := m.channels[tableKey{id.Type, id.Transport}]
	if err := checkClash(table, id); err != nil {
		return m.failed(p, id, r.URI, err)
	}

	if ep, ok := table[id.AddrAndPort()]; ok {
		if err := m.joinLocked(ep, p, id, r); err != nil {
			return m.failed(p, id, r.URI, err)
		}
		return nil
	}

	if err := m.createLocked(ctx, p, id, factory, r); err != nil {
		return m.failed(p, id, r.URI, err)
	}
	return nil
}

// RegisterHTTP registers p on an HTTP channel.
func (m *Manager) RegisterHTTP(ctx context.Context, p plugin.Plugin, address string, port int, mode channel.Mode, uri string, cfg *channel.Config) error {
	return m.Register(ctx, p, Registration{
		Protocol: channel.ProtocolHTTP,
		Address:  address,
		Port:     port,
		Mode:     mode,
		URI:      uri,
		Config:   cfg,
	})
}

// RegisterHTTPS registers p on an HTTPS channel.
func (m *Manager) RegisterHTTPS(ctx context.Context, p plugin.Plugin, address string, port int, mode channel.Mode, uri string, cfg *channel.Config) error {
	return m.Register(ctx, p, Registration{
		Protocol: channel.ProtocolHTTPS,
		Address:  address,
		Port:     port,
		Mode:     mode,
		URI:      uri,
		Config:   cfg,
	})
}

// resolveLocked validates r and builds the channel ID it designates.
func (m *Manager) resolveLocked(r Registration) (channel.ID, channel.Factory, error) {
	id := channel.ID{IP: r.Address, Port: r.Port, Protocol: r.Protocol, Mode: r.Mode}

	factory, ok := m.factories[r.Protocol]
	if !ok {
		return id, nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, r.Protocol)
	}
	id.Type = factory.Type()
	id.Transport = factory.Transport()

	addr, err := normalizeAddress(r.Address)
	if err != nil {
		return id, nil, err
	}
	id.IP = addr

	if r.Port <= 0 || r.Port > 65535 {
		return id, nil, fmt.Errorf("%w: %d", ErrInvalidPort, r.Port)
	}
	return id, factory, nil
}

func normalizeAddress(address string) (string, error) {
	if address == "" {
		return channel.AllInterfaces, nil
	}
	ip := net.ParseIP(address)
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return ip.To4().String(), nil
}

// checkClash rejects channels overlapping an all-interfaces channel.
func checkClash(table map[string]*endpoint, id channel.ID) error {
	if !id.IsAllInterfaces() {
		if ep, ok := table[id.AllInterfacesAddrAndPort()]; ok {
			return fmt.Errorf("%w: %s", ErrAddressInUse, ep.id)
		}
		return nil
	}
	for _, ep := range table {
		if ep.id.Port == id.Port && !ep.id.IsAllInterfaces() {
			return fmt.Errorf("%w: %s already listens on port %d", ErrAddressInUse, ep.id, id.Port)
		}
	}
	return nil
}

// joinLocked registers p on an existing channel.
func (m *Manager) joinLocked(ep *endpoint, p plugin.Plugin, id channel.ID, r Registration) error {
	if ep.id.Protocol != id.Protocol {
		return fmt.Errorf("%w: %s", ErrProtocolMismatch, ep.id)
	}
	if ep.id.Mode != id.Mode {
		return fmt.Errorf("%w: %s uses %s", ErrModeMismatch, ep.id, ep.id.Mode)
	}
	if !sameConfig(ep.ch, r.Config) {
		return fmt.Errorf("%w: %s", ErrConfigMismatch, ep.id)
	}

	if ep.reg.HasPluginAt(p, r.URI) {
		m.logger.Warn("plugin already registered", "plugin", plugin.DebugString(p), "channel", ep.id.String(), "uri", r.URI)
		return nil
	}

	if owner := currentOwner(ep.reg, r.URI); owner != nil && !owner.IsPlugin(p) {
		return fmt.Errorf("%w: %q is owned by %s", registry.ErrConflict, r.URI, plugin.DebugString(owner))
	}

	if err := ep.reg.Register(p, r.URI); err != nil {
		return err
	}
	m.logger.Info("plugin registered", "plugin", plugin.DebugString(p), "channel", ep.id.String(), "uri", r.URI)
	m.refreshLocked(ep)
	return nil
}

// currentOwner returns the plugin a registration at uri would displace.
// Prefix registries detect conflicts themselves.
func currentOwner(reg registry.Registry, uri string) plugin.Plugin {
	switch reg.ID().Mode {
	case channel.ModeExclusive, channel.ModeSharedExactMatch:
		return reg.Lookup(uri)
	}
	return nil
}

func sameConfig(ch channel.Channel, cfg *channel.Config) bool {
	if cfg == nil {
		return ch.UsesDefaultConfig()
	}
	return !ch.UsesDefaultConfig() && ch.CompareConfig(cfg)
}

// createLocked builds, binds and starts a channel for p.
func (m *Manager) createLocked(ctx context.Context, p plugin.Plugin, id channel.ID, factory channel.Factory, r Registration) error {
	reg, err := registry.New(id, registry.WithLogger(m.logger), registry.WithEvents(m.events))
	if err != nil {
		return err
	}
	if err := reg.Register(p, r.URI); err != nil {
		return err
	}

	cfg, usesDefault := r.Config.Clone(), r.Config == nil
	if usesDefault {
		cfg = m.defaultConfig.Clone()
	}

	ch, err := factory.New(id, cfg, reg, usesDefault)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	if err := reg.Bind(ch); err != nil {
		return err
	}
	if err := ch.Start(ctx); err != nil {
		reg.Unbind(ch)
		return fmt.Errorf("failed to start channel: %w", err)
	}

	ep := &endpoint{id: id, reg: reg, ch: ch, factory: factory}
	key := tableKey{id.Type, id.Transport}
	if m.channels[key] == nil {
		m.channels[key] = make(map[string]*endpoint)
	}
	m.channels[key][id.AddrAndPort()] = ep

	m.logger.Info("channel created", "channel", id.String(), "mode", id.Mode.String(), "state", ch.State().String())
	m.logger.Info("plugin registered", "plugin", plugin.DebugString(p), "channel", id.String(), "uri", r.URI)
	m.advertiseLocked(ctx, ep)
	return nil
}

func (m *Manager) failed(p plugin.Plugin, id channel.ID, uri string, err error) error {
	rerr := &RegistrationError{Plugin: p.Name(), Channel: id, URI: uri, Err: err}
	m.logger.Error("plugin registration failed", "plugin", plugin.DebugString(p), "channel", id.String(), "uri", uri, "error", err)

	ev := log.NewEvent(log.CategoryError)
	ev.Channel = id.String()
	ev.Protocol = id.Protocol
	ev.Error = &log.ErrorEventData{Message: err.Error(), Context: "register " + p.Name()}
	m.events.Log(ev)
	return rerr
}

// Unregister removes p from every channel and reports whether it was
// registered anywhere.
func (m *Manager) Unregister(p plugin.Plugin) bool {
	return m.unregister(p, func(*endpoint) bool { return true })
}

// UnregisterProtocol removes p from the channels of one protocol.
func (m *Manager) UnregisterProtocol(p plugin.Plugin, protocol string) bool {
	return m.unregister(p, func(ep *endpoint) bool {
		return ep.id.Protocol == protocol
	})
}

// UnregisterPort removes p from the channels of one protocol and port.
func (m *Manager) UnregisterPort(p plugin.Plugin, protocol string, port int) bool {
	return m.unregister(p, func(ep *endpoint) bool {
		return ep.id.Protocol == protocol && ep.id.Port == port
	})
}

func (m *Manager) unregister(p plugin.Plugin, match func(*endpoint) bool) bool {
	if p == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for key, table := range m.channels {
		for addr, ep := range table {
			if !match(ep) || !ep.reg.HasPlugin(p) {
				continue
			}
			ep.reg.Remove(p)
			found = true
			m.logger.Info("plugin unregistered", "plugin", plugin.DebugString(p), "channel", ep.id.String())
			m.afterRemovalLocked(key, addr, ep)
		}
	}
	return found
}

// UnregisterAt removes the registration of p at r.URI on the channel
// designated by r. Mode and Config of r are ignored.
func (m *Manager) UnregisterAt(p plugin.Plugin, r Registration) error {
	if p == nil {
		return registry.ErrNilPlugin
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, _, err := m.resolveLocked(r)
	if err != nil {
		return err
	}
	key := tableKey{id.Type, id.Transport}
	ep, ok := m.channels[key][id.AddrAndPort()]
	if !ok || ep.id.Protocol != id.Protocol {
		return fmt.Errorf("%w: no channel %s", registry.ErrNotRegistered, id)
	}
	if err := ep.reg.RemoveAt(p, r.URI); err != nil {
		return err
	}
	m.logger.Info("plugin unregistered", "plugin", plugin.DebugString(p), "channel", ep.id.String(), "uri", r.URI)
	m.afterRemovalLocked(key, id.AddrAndPort(), ep)
	return nil
}

// afterRemovalLocked closes the channel of ep once its registry is empty.
func (m *Manager) afterRemovalLocked(key tableKey, addr string, ep *endpoint) {
	if !ep.reg.IsEmpty() {
		m.refreshLocked(ep)
		return
	}

	delete(m.channels[key], addr)
	if len(m.channels[key]) == 0 {
		delete(m.channels, key)
	}
	ep.reg.Unbind(ep.ch)
	if err := ep.ch.Close(); err != nil {
		m.logger.Warn("failed to close channel", "channel", ep.id.String(), "error", err)
	}
	m.withdrawLocked(ep)
	m.logger.Info("channel closed", "channel", ep.id.String())
}

// SetDefaultConfig replaces the default channel configuration. Running
// channels keep their configuration until HandleDefaultConfigUpdate.
func (m *Manager) SetDefaultConfig(cfg *channel.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = cfg.Clone()
}

// DefaultConfig returns a copy of the default channel configuration.
func (m *Manager) DefaultConfig() *channel.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaultConfig.Clone()
}

// HandleDefaultConfigUpdate restarts every channel running on the default
// configuration with the current one. Each channel is unbound from its
// registry, closed, recreated and bound again; registrations are kept.
func (m *Manager) HandleDefaultConfigUpdate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, table := range m.channels {
		for _, ep := range table {
			if !ep.ch.UsesDefaultConfig() {
				continue
			}
			if err := m.restartLocked(ctx, ep); err != nil {
				m.logger.Error("failed to restart channel", "channel", ep.id.String(), "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", ep.id, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) restartLocked(ctx context.Context, ep *endpoint) error {
	ep.reg.Unbind(ep.ch)
	if err := ep.ch.Close(); err != nil {
		m.logger.Warn("failed to close channel", "channel", ep.id.String(), "error", err)
	}

	ch, err := ep.factory.New(ep.id, m.defaultConfig.Clone(), ep.reg, true)
	if err != nil {
		return err
	}
	if err := ep.reg.Bind(ch); err != nil {
		return err
	}
	ep.ch = ch
	if err := ch.Start(ctx); err != nil {
		return err
	}
	m.logger.Info("channel restarted", "channel", ep.id.String(), "state", ch.State().String())
	return nil
}

// Close closes every channel and stops advertising.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	for key, table := range m.channels {
		for _, ep := range table {
			ep.reg.Unbind(ep.ch)
			if err := ep.ch.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", ep.id, err))
			}
		}
		delete(m.channels, key)
	}
	m.advertiser.StopAll()
	m.logger.Info("manager closed")
	return errors.Join(errs...)
}

// sortedEndpointsLocked returns all endpoints ordered by channel ID.
func (m *Manager) sortedEndpointsLocked() []*endpoint {
	var eps []*endpoint
	for _, table := range m.channels {
		for _, ep := range table {
			eps = append(eps, ep)
		}
	}
	slices.SortFunc(eps, func(a, b *endpoint) int {
		return cmp.Or(
			cmp.Compare(a.id.Protocol, b.id.Protocol),
			cmp.Compare(a.id.Port, b.id.Port),
			cmp.Compare(a.id.IP, b.id.IP),
		)
	})
	return eps
}

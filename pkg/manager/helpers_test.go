package manager

import (
	"context"
	"net"
	"sync"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/discovery"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
	"github.com/stretchr/testify/mock"
)

type fakeChannel struct {
	id          channel.ID
	cfg         *channel.Config
	lookup      channel.Lookup
	usesDefault bool
	startErr    error

	mu     sync.Mutex
	state  channel.State
	closed bool
}

func (c *fakeChannel) ID() channel.ID { return c.id }

func (c *fakeChannel) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		c.state = channel.StateInitFailed
		return c.startErr
	}
	if c.usesDefault {
		c.state = channel.StateRunningDefault
	} else {
		c.state = channel.StateRunning
	}
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.state = channel.StateInit
	return nil
}

func (c *fakeChannel) State() channel.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeChannel) UsesDefaultConfig() bool                { return c.usesDefault }
func (c *fakeChannel) CompareConfig(cfg *channel.Config) bool { return c.cfg.Equal(cfg) }
func (c *fakeChannel) Addr() net.Addr                         { return nil }

type fakeFactory struct {
	typ       channel.Type
	transport channel.Transport
	startErr  error

	mu      sync.Mutex
	created []*fakeChannel
}

func newFakeFactory(transport channel.Transport) *fakeFactory {
	return &fakeFactory{typ: channel.TypeServer, transport: transport}
}

func (f *fakeFactory) Type() channel.Type           { return f.typ }
func (f *fakeFactory) Transport() channel.Transport { return f.transport }

func (f *fakeFactory) New(id channel.ID, cfg *channel.Config, lookup channel.Lookup, usesDefault bool) (channel.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := &fakeChannel{id: id, cfg: cfg, lookup: lookup, usesDefault: usesDefault, startErr: f.startErr}
	f.created = append(f.created, ch)
	return ch, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeFactory) last() *fakeChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[len(f.created)-1]
}

type mockAdvertiser struct {
	mock.Mock
}

func (m *mockAdvertiser) Advertise(ctx context.Context, svc *discovery.Service) error {
	return m.Called(ctx, svc).Error(0)
}

func (m *mockAdvertiser) Update(svc *discovery.Service) error {
	return m.Called(svc).Error(0)
}

func (m *mockAdvertiser) Withdraw(key string) error {
	return m.Called(key).Error(0)
}

func (m *mockAdvertiser) StopAll() {
	m.Called()
}

// testLoader claims a fixed set of plugins.
type testLoader struct {
	name    string
	plugins []plugin.Plugin
}

func (l *testLoader) Name() string { return l.name }

func (l *testLoader) HasLoaded(p plugin.Plugin) bool {
	for _, q := range l.plugins {
		if q.IsPlugin(p) {
			return true
		}
	}
	return false
}

type fixture struct {
	m     *Manager
	http  *fakeFactory
	https *fakeFactory
	coap  *fakeFactory
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		http:  newFakeFactory(channel.TransportTCP),
		https: newFakeFactory(channel.TransportTCP),
		coap:  newFakeFactory(channel.TransportUDP),
	}
	opts = append([]Option{
		WithFactory(channel.ProtocolHTTP, f.http),
		WithFactory(channel.ProtocolHTTPS, f.https),
		WithFactory(channel.ProtocolCoAP, f.coap),
	}, opts...)
	f.m = New(opts...)
	return f
}

func newPlugin(name string) *plugin.Func {
	return plugin.NewFunc(name, nil)
}

func httpAt(address string, port int, mode channel.Mode, uri string) Registration {
	return Registration{
		Protocol: channel.ProtocolHTTP,
		Address:  address,
		Port:     port,
		Mode:     mode,
		URI:      uri,
	}
}

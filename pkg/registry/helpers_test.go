package registry

import (
	"context"
	"net"
	"sync"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/log"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

func newPlugin(name string) *plugin.Func {
	return plugin.NewFunc(name, nil)
}

func testID(mode channel.Mode) channel.ID {
	return channel.ID{
		Type:      channel.TypeServer,
		Transport: channel.TransportTCP,
		IP:        channel.AllInterfaces,
		Port:      8282,
		Protocol:  channel.ProtocolHTTP,
		Mode:      mode,
	}
}

// stubChannel satisfies channel.Channel for binding tests.
type stubChannel struct {
	id channel.ID
}

func (s *stubChannel) ID() channel.ID                     { return s.id }
func (s *stubChannel) Start(context.Context) error        { return nil }
func (s *stubChannel) Close() error                       { return nil }
func (s *stubChannel) State() channel.State               { return channel.StateRunning }
func (s *stubChannel) UsesDefaultConfig() bool            { return false }
func (s *stubChannel) CompareConfig(*channel.Config) bool { return true }
func (s *stubChannel) Addr() net.Addr                     { return nil }

type eventRecorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *eventRecorder) Log(ev log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) actions() []log.RegistryAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []log.RegistryAction
	for _, ev := range r.events {
		if ev.Registry != nil {
			out = append(out, ev.Registry.Action)
		}
	}
	return out
}

func (r *eventRecorder) last() log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

package manager

import (
	"slices"
	"strings"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// ChannelInfo describes a channel owned by the manager.
type ChannelInfo struct {
	ID                channel.ID
	State             channel.State
	Addr              string
	UsesDefaultConfig bool
	Plugins           int
}

// RegistrationInfo describes one path registration.
type RegistrationInfo struct {
	Channel channel.ID
	Path    string
	Plugin  plugin.Plugin

	// Loader is the name of the loader of Plugin; empty if unknown.
	Loader string
}

// Channels returns the channels ordered by protocol, port and address.
func (m *Manager) Channels() []ChannelInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	eps := m.sortedEndpointsLocked()
	out := make([]ChannelInfo, 0, len(eps))
	for _, ep := range eps {
		info := ChannelInfo{
			ID:                ep.id,
			State:             ep.ch.State(),
			UsesDefaultConfig: ep.ch.UsesDefaultConfig(),
			Plugins:           len(plugins(ep)),
		}
		if addr := ep.ch.Addr(); addr != nil {
			info.Addr = addr.String()
		}
		out = append(out, info)
	}
	return out
}

// Registrations returns every registration ordered by channel.
func (m *Manager) Registrations() []RegistrationInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []RegistrationInfo
	for _, ep := range m.sortedEndpointsLocked() {
		start := len(out)
		for path, p := range ep.reg.Entries() {
			info := RegistrationInfo{Channel: ep.id, Path: path, Plugin: p}
			if l := m.loaderOfLocked(p); l != nil {
				info.Loader = l.Name()
			}
			out = append(out, info)
		}
		sortByPath(out[start:])
	}
	return out
}

// Lookup resolves uri on the channel of protocol and port, as a request
// would. It returns nil if there is no such channel or no matching plugin.
func (m *Manager) Lookup(protocol string, port int, uri string) plugin.Plugin {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ep := range m.sortedEndpointsLocked() {
		if ep.id.Protocol != protocol || ep.id.Port != port {
			continue
		}
		if p := ep.reg.Lookup(uri); p != nil {
			return p
		}
	}
	return nil
}

// plugins returns the distinct plugins registered on ep.
func plugins(ep *endpoint) []plugin.Plugin {
	var out []plugin.Plugin
	for _, p := range ep.reg.Entries() {
		if !containsPlugin(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func sortByPath(infos []RegistrationInfo) {
	slices.SortFunc(infos, func(a, b RegistrationInfo) int {
		return strings.Compare(a.Path, b.Path)
	})
}

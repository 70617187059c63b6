package manager

import (
	"fmt"

	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// RegisterLoader adds a plugin loader. Loader names are unique.
func (m *Manager) RegisterLoader(l plugin.Loader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.loaders[l.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrLoaderExists, l.Name())
	}
	m.loaders[l.Name()] = l
	m.logger.Info("plugin loader registered", "loader", l.Name())
	return nil
}

// UnregisterLoader removes the named loader and unregisters every plugin
// it loaded. It reports whether the loader was registered.
func (m *Manager) UnregisterLoader(name string) bool {
	m.mu.Lock()
	l, exists := m.loaders[name]
	if !exists {
		m.mu.Unlock()
		return false
	}
	delete(m.loaders, name)

	var loaded []plugin.Plugin
	for _, ep := range m.sortedEndpointsLocked() {
		for _, p := range ep.reg.Entries() {
			if l.HasLoaded(p) && !containsPlugin(loaded, p) {
				loaded = append(loaded, p)
			}
		}
	}
	m.mu.Unlock()

	for _, p := range loaded {
		m.Unregister(p)
	}
	m.logger.Info("plugin loader unregistered", "loader", name, "plugins", len(loaded))
	return true
}

// LoaderOf returns the loader that loaded p, or nil.
func (m *Manager) LoaderOf(p plugin.Plugin) plugin.Loader {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaderOfLocked(p)
}

func (m *Manager) loaderOfLocked(p plugin.Plugin) plugin.Loader {
	for _, l := range m.loaders {
		if l.HasLoaded(p) {
			return l
		}
	}
	return nil
}

func containsPlugin(ps []plugin.Plugin, p plugin.Plugin) bool {
	for _, q := range ps {
		if q.IsPlugin(p) {
			return true
		}
	}
	return false
}

package registry

import (
	"fmt"
	"iter"
	"sync"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/log"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// ExclusivePath is the path reported by ExclusiveRegistry.Entries.
const ExclusivePath = "*"

// ExclusiveRegistry holds one plugin answering every path of its channel.
type ExclusiveRegistry struct {
	base

	mu     sync.RWMutex
	plugin plugin.Plugin
}

// NewExclusive creates an empty exclusive registry.
func NewExclusive(id channel.ID, opts ...Option) *ExclusiveRegistry {
	r := &ExclusiveRegistry{}
	r.init(id, opts)
	return r
}

// Register makes p the plugin of the channel, replacing any previous one.
// path is ignored.
func (r *ExclusiveRegistry) Register(p plugin.Plugin, path string) error {
	if p == nil {
		return ErrNilPlugin
	}

	r.mu.Lock()
	prev := r.plugin
	r.plugin = p
	r.mu.Unlock()

	if prev != nil && !prev.IsPlugin(p) {
		r.logger.Info("plugin replaced", "plugin", plugin.DebugString(p), "previous", plugin.DebugString(prev))
	}
	r.logEvent(log.ActionRegister, path, p, nil, 0)
	return nil
}

// Lookup returns the plugin of the channel for any path.
func (r *ExclusiveRegistry) Lookup(string) plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugin
}

// HasPlugin reports whether p is the plugin of the channel.
func (r *ExclusiveRegistry) HasPlugin(p plugin.Plugin) bool {
	if p == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugin != nil && r.plugin.IsPlugin(p)
}

// HasPluginAt is HasPlugin; path is ignored.
func (r *ExclusiveRegistry) HasPluginAt(p plugin.Plugin, _ string) bool {
	return r.HasPlugin(p)
}

// Remove clears the slot if it holds p.
func (r *ExclusiveRegistry) Remove(p plugin.Plugin) bool {
	if p == nil {
		return false
	}

	r.mu.Lock()
	ok := r.plugin != nil && r.plugin.IsPlugin(p)
	if ok {
		r.plugin = nil
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.logger.Debug("plugin unregistered", "plugin", plugin.DebugString(p))
	r.logEvent(log.ActionUnregisterAll, "", p, nil, 1)
	return true
}

// RemoveAt is Remove; path is ignored.
func (r *ExclusiveRegistry) RemoveAt(p plugin.Plugin, path string) error {
	if p == nil {
		return ErrNilPlugin
	}
	if !r.Remove(p) {
		return fmt.Errorf("%w: %s does not own %s", ErrNotRegistered, plugin.DebugString(p), r.id)
	}
	return nil
}

// IsEmpty reports whether the slot is unset.
func (r *ExclusiveRegistry) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugin == nil
}

// Entries yields (ExclusivePath, plugin) when a plugin is registered.
func (r *ExclusiveRegistry) Entries() iter.Seq2[string, plugin.Plugin] {
	return func(yield func(string, plugin.Plugin) bool) {
		r.mu.RLock()
		p := r.plugin
		r.mu.RUnlock()

		if p != nil {
			yield(ExclusivePath, p)
		}
	}
}

// Compile-time interface satisfaction check.
var _ Registry = (*ExclusiveRegistry)(nil)

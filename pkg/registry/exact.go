package registry

import (
	"fmt"
	"iter"
	"sync"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/log"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// ExactMatchRegistry maps path strings to plugins. Paths are compared as
// given: "/a/b" and "/a/b/" are different keys.
type ExactMatchRegistry struct {
	base

	mu      sync.RWMutex
	plugins map[string]plugin.Plugin
}

// NewExactMatch creates an empty exact-match registry.
func NewExactMatch(id channel.ID, opts ...Option) *ExactMatchRegistry {
	r := &ExactMatchRegistry{plugins: make(map[string]plugin.Plugin)}
	r.init(id, opts)
	return r
}

// Register sets p as the plugin of path, replacing any previous one.
func (r *ExactMatchRegistry) Register(p plugin.Plugin, path string) error {
	if p == nil {
		return ErrNilPlugin
	}

	r.mu.Lock()
	prev := r.plugins[path]
	r.plugins[path] = p
	r.mu.Unlock()

	if prev != nil && !prev.IsPlugin(p) {
		r.logger.Info("plugin replaced", "path", path, "plugin", plugin.DebugString(p), "previous", plugin.DebugString(prev))
	}
	r.logEvent(log.ActionRegister, path, p, nil, 0)
	return nil
}

// Lookup returns the plugin registered at exactly path, or nil.
func (r *ExactMatchRegistry) Lookup(path string) plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins[path]
}

// HasPlugin reports whether p is registered at any path.
func (r *ExactMatchRegistry) HasPlugin(p plugin.Plugin) bool {
	if p == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, q := range r.plugins {
		if q.IsPlugin(p) {
			return true
		}
	}
	return false
}

// HasPluginAt reports whether p is registered at path.
func (r *ExactMatchRegistry) HasPluginAt(p plugin.Plugin, path string) bool {
	if p == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.plugins[path]
	return ok && q.IsPlugin(p)
}

// Remove deletes every registration of p and reports whether there was any.
func (r *ExactMatchRegistry) Remove(p plugin.Plugin) bool {
	if p == nil {
		return false
	}

	r.mu.Lock()
	removed := 0
	for path, q := range r.plugins {
		if q.IsPlugin(p) {
			delete(r.plugins, path)
			removed++
		}
	}
	r.mu.Unlock()

	if removed == 0 {
		return false
	}
	r.logger.Debug("plugin unregistered", "plugin", plugin.DebugString(p), "occurrences", removed)
	r.logEvent(log.ActionUnregisterAll, "", p, nil, removed)
	return true
}

// RemoveAt deletes the registration at path if it belongs to p.
func (r *ExactMatchRegistry) RemoveAt(p plugin.Plugin, path string) error {
	if p == nil {
		return ErrNilPlugin
	}

	r.mu.Lock()
	q, ok := r.plugins[path]
	if ok && q.IsPlugin(p) {
		delete(r.plugins, path)
	}
	r.mu.Unlock()

	switch {
	case !ok:
		return fmt.Errorf("%w: no registration at %q", ErrNotRegistered, path)
	case !q.IsPlugin(p):
		return r.conflict(path, p, q)
	}
	r.logger.Debug("plugin unregistered", "path", path, "plugin", plugin.DebugString(p))
	r.logEvent(log.ActionUnregister, path, p, nil, 0)
	return nil
}

// IsEmpty reports whether no plugin is registered.
func (r *ExactMatchRegistry) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins) == 0
}

// Entries yields a snapshot of every registration.
func (r *ExactMatchRegistry) Entries() iter.Seq2[string, plugin.Plugin] {
	return func(yield func(string, plugin.Plugin) bool) {
		r.mu.RLock()
		snapshot := make([]entry, 0, len(r.plugins))
		for path, p := range r.plugins {
			snapshot = append(snapshot, entry{path: path, plugin: p})
		}
		r.mu.RUnlock()

		yieldAll(snapshot, yield)
	}
}

// Compile-time interface satisfaction check.
var _ Registry = (*ExactMatchRegistry)(nil)

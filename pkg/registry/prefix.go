package registry

import (
	"fmt"
	"iter"
	"sync"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/log"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// PrefixMatchRegistry resolves paths by longest registered prefix.
//
// Paths are split on "/" and empty segments are dropped, so "/a/b", "a/b"
// and "/a/b/" name the same node, and "" or "/" name the root.
type PrefixMatchRegistry struct {
	base

	mu   sync.RWMutex
	root pathNode
}

// NewPrefixMatch creates an empty prefix-match registry.
func NewPrefixMatch(id channel.ID, opts ...Option) *PrefixMatchRegistry {
	r := &PrefixMatchRegistry{}
	r.init(id, opts)
	return r
}

// Register adds p at path. Registering the plugin already owning path is a
// no-op; registering over a different plugin fails with ErrConflict.
func (r *PrefixMatchRegistry) Register(p plugin.Plugin, path string) error {
	if p == nil {
		return ErrNilPlugin
	}
	segs, err := splitPath(path)
	if err != nil {
		r.logger.Warn("rejected registration", "path", path, "plugin", plugin.DebugString(p), "error", err)
		r.logEvent(log.ActionReject, path, p, nil, 0)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	target := r.root.find(segs)
	if target != nil && target.plugin != nil {
		if target.plugin.IsPlugin(p) {
			r.logger.Debug("plugin already registered", "path", path, "plugin", plugin.DebugString(p))
			return nil
		}
		return r.conflict(path, p, target.plugin)
	}

	node := &r.root
	for _, seg := range segs {
		node = node.childOrCreate(seg)
	}
	node.plugin = p

	r.logger.Debug("plugin registered", "path", joinPath(segs), "plugin", plugin.DebugString(p))
	r.logEvent(log.ActionRegister, joinPath(segs), p, nil, 0)
	return nil
}

// Lookup returns the plugin registered at the longest prefix of path,
// including the root, or nil.
func (r *PrefixMatchRegistry) Lookup(path string) plugin.Plugin {
	segs := segments(path)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root.longestMatch(segs)
}

// HasPlugin reports whether p is registered anywhere in the tree.
func (r *PrefixMatchRegistry) HasPlugin(p plugin.Plugin) bool {
	if p == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root.contains(p)
}

// HasPluginAt reports whether p is registered at exactly path. Unlike
// Lookup it does not consider ancestors.
func (r *PrefixMatchRegistry) HasPluginAt(p plugin.Plugin, path string) bool {
	if p == nil {
		return false
	}
	segs := segments(path)

	r.mu.RLock()
	defer r.mu.RUnlock()
	node := r.root.find(segs)
	return node != nil && node.plugin != nil && node.plugin.IsPlugin(p)
}

// Remove clears every registration of p and prunes the nodes left empty.
func (r *PrefixMatchRegistry) Remove(p plugin.Plugin) bool {
	if p == nil {
		return true
	}

	r.mu.Lock()
	removed := r.root.removeAll(p)
	r.mu.Unlock()

	r.logger.Debug("plugin unregistered", "plugin", plugin.DebugString(p), "occurrences", removed)
	r.logEvent(log.ActionUnregisterAll, "", p, nil, removed)
	return true
}

// RemoveAt clears the registration of p at path and prunes the nodes left
// empty on the way up. A node with an empty slot is left as is. A path with
// no node fails with ErrNotRegistered, and a node owned by another plugin
// with ErrConflict.
func (r *PrefixMatchRegistry) RemoveAt(p plugin.Plugin, path string) error {
	if p == nil {
		return ErrNilPlugin
	}
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	nodes := r.root.trail(segs)
	if len(nodes) != len(segs)+1 {
		return fmt.Errorf("%w: no registration at %q", ErrNotRegistered, path)
	}
	node := nodes[len(nodes)-1]

	switch {
	case node.plugin == nil:
		r.logger.Debug("nothing registered at path", "path", path, "plugin", plugin.DebugString(p))
		return nil
	case !node.plugin.IsPlugin(p):
		return r.conflict(path, p, node.plugin)
	}

	node.plugin = nil
	pruneTrail(nodes, segs)

	r.logger.Debug("plugin unregistered", "path", joinPath(segs), "plugin", plugin.DebugString(p))
	r.logEvent(log.ActionUnregister, joinPath(segs), p, nil, 0)
	return nil
}

// IsEmpty reports whether no plugin is registered.
func (r *PrefixMatchRegistry) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root.isEmpty()
}

// Entries yields every registration as ("/seg1/seg2", plugin). The root is
// reported as "/". The snapshot is taken when iteration starts.
func (r *PrefixMatchRegistry) Entries() iter.Seq2[string, plugin.Plugin] {
	return func(yield func(string, plugin.Plugin) bool) {
		var snapshot []entry
		r.mu.RLock()
		r.root.walk(nil, func(path string, p plugin.Plugin) bool {
			snapshot = append(snapshot, entry{path: path, plugin: p})
			return true
		})
		r.mu.RUnlock()

		yieldAll(snapshot, yield)
	}
}

// Compile-time interface satisfaction check.
var _ Registry = (*PrefixMatchRegistry)(nil)

package registry

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/log"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// Registry errors.
var (
	ErrInvalidPath         = errors.New("invalid path")
	ErrConflict            = errors.New("path owned by another plugin")
	ErrNotRegistered       = errors.New("plugin not registered")
	ErrNilPlugin           = errors.New("plugin is nil")
	ErrChannelAlreadyBound = errors.New("registry already bound to a channel")
	ErrUnsupportedMode     = errors.New("unsupported registry mode")
)

// Registry is the dispatch table of one channel.
type Registry interface {
	// Lookup returns the plugin responsible for path, or nil.
	Lookup(path string) plugin.Plugin

	// Register adds p at path.
	Register(p plugin.Plugin, path string) error

	// HasPlugin reports whether p is registered at any path.
	HasPlugin(p plugin.Plugin) bool

	// HasPluginAt reports whether p is registered exactly at path.
	HasPluginAt(p plugin.Plugin, path string) bool

	// Remove removes every registration of p and reports whether the
	// registry no longer holds p.
	Remove(p plugin.Plugin) bool

	// RemoveAt removes the registration of p at path.
	RemoveAt(p plugin.Plugin, path string) error

	// IsEmpty reports whether no plugin is registered.
	IsEmpty() bool

	// Entries yields a snapshot of every (path, plugin) registration.
	Entries() iter.Seq2[string, plugin.Plugin]

	// ID returns the identifier of the channel the registry was built for.
	ID() channel.ID

	// Bind associates the registry with its channel. A registry is bound
	// at most once; later calls fail with ErrChannelAlreadyBound.
	Bind(ch channel.Channel) error

	// Unbind releases ch, so a replacement channel can be bound.
	Unbind(ch channel.Channel) bool

	// Channel returns the bound channel, or nil.
	Channel() channel.Channel
}

// Option configures a registry.
type Option func(*options)

type options struct {
	logger *slog.Logger
	events log.Logger
}

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEvents sets the receiver of registry events.
func WithEvents(events log.Logger) Option {
	return func(o *options) {
		o.events = events
	}
}

// New creates the registry variant selected by id.Mode.
func New(id channel.ID, opts ...Option) (Registry, error) {
	switch id.Mode {
	case channel.ModeExclusive:
		return NewExclusive(id, opts...), nil
	case channel.ModeSharedExactMatch:
		return NewExactMatch(id, opts...), nil
	case channel.ModeSharedPrefixMatch:
		return NewPrefixMatch(id, opts...), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, id.Mode)
}

// PluginMap returns the registrations of r as a map from path to plugin.
func PluginMap(r Registry) map[string]plugin.Plugin {
	m := make(map[string]plugin.Plugin)
	for path, p := range r.Entries() {
		m[path] = p
	}
	return m
}

// boundChannel boxes the channel interface for atomic.Pointer.
type boundChannel struct {
	ch channel.Channel
}

// base carries the state shared by all variants: the channel ID, the
// channel binding, and logging.
type base struct {
	id     channel.ID
	bound  atomic.Pointer[boundChannel]
	logger *slog.Logger
	events log.Logger
}

func (b *base) init(id channel.ID, opts []Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b.id = id
	b.logger = logger.With("channel", id.String(), "mode", id.Mode.String())
	b.events = log.OrNoop(o.events)
}

// ID returns the channel identifier.
func (b *base) ID() channel.ID {
	return b.id
}

// Bind associates the registry with ch.
func (b *base) Bind(ch channel.Channel) error {
	if ch == nil {
		return fmt.Errorf("bind: channel is nil")
	}
	if !b.bound.CompareAndSwap(nil, &boundChannel{ch: ch}) {
		b.logger.Error("registry already bound to a channel", "channel_id", ch.ID().DebugString())
		return fmt.Errorf("%w: %s", ErrChannelAlreadyBound, b.id)
	}
	return nil
}

// Unbind releases ch if it is the bound channel.
func (b *base) Unbind(ch channel.Channel) bool {
	cur := b.bound.Load()
	if cur == nil || cur.ch != ch {
		return false
	}
	return b.bound.CompareAndSwap(cur, nil)
}

// Channel returns the bound channel, or nil.
func (b *base) Channel() channel.Channel {
	if cur := b.bound.Load(); cur != nil {
		return cur.ch
	}
	return nil
}

func (b *base) logEvent(action log.RegistryAction, path string, p, owner plugin.Plugin, occurrences int) {
	ev := log.NewEvent(log.CategoryRegistry)
	ev.Channel = b.id.String()
	ev.Protocol = b.id.Protocol
	ev.Registry = &log.RegistryEvent{
		Action:      action,
		Mode:        b.id.Mode.String(),
		Path:        path,
		Occurrences: occurrences,
	}
	if p != nil {
		ev.Registry.Plugin = p.Name()
	}
	if owner != nil {
		ev.Registry.Owner = owner.Name()
	}
	b.events.Log(ev)
}

func (b *base) conflict(path string, p, owner plugin.Plugin) error {
	b.logger.Warn("path owned by another plugin",
		"path", path, "plugin", plugin.DebugString(p), "owner", plugin.DebugString(owner))
	b.logEvent(log.ActionConflict, path, p, owner, 0)
	return fmt.Errorf("%w: %q is owned by %s", ErrConflict, path, plugin.DebugString(owner))
}

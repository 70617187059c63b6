package plugin

import (
	"context"
	"fmt"
)

// Plugin handles requests received by a channel for the paths it registered.
type Plugin interface {
	// Name returns the plugin name, common for all instances of the plugin.
	Name() string

	// IsPlugin reports whether other refers to the same plugin instance.
	// Wrappers must delegate to the wrapped plugin.
	IsPlugin(other Plugin) bool

	// Handle processes a request. A nil response with a nil error is
	// answered with an empty 200 response by the channel.
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// Loader loads and owns plugin instances.
type Loader interface {
	// Name returns the unique loader name.
	Name() string

	// HasLoaded reports whether p was loaded by this loader.
	HasLoaded(p Plugin) bool
}

// Describer is implemented by plugins that provide a richer debug string.
type Describer interface {
	DebugString() string
}

// DebugString returns a short description of p for log messages.
func DebugString(p Plugin) string {
	if p == nil {
		return "<nil>"
	}
	if d, ok := p.(Describer); ok {
		return d.DebugString()
	}
	return fmt.Sprintf("plugin %q", p.Name())
}

// HandlerFunc is the signature of a function based plugin handler.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Func is a Plugin backed by a handler function.
// Two Func values are the same plugin when they are the same instance.
type Func struct {
	name    string
	handler HandlerFunc
}

// NewFunc creates a function backed plugin.
func NewFunc(name string, handler HandlerFunc) *Func {
	return &Func{name: name, handler: handler}
}

// Name returns the plugin name.
func (f *Func) Name() string {
	return f.name
}

// IsPlugin reports whether other is this instance, possibly wrapped.
func (f *Func) IsPlugin(other Plugin) bool {
	if other == nil {
		return false
	}
	if w, ok := other.(*Wrapper); ok {
		return f.IsPlugin(w.inner)
	}
	o, ok := other.(*Func)
	return ok && o == f
}

// Handle calls the handler function.
func (f *Func) Handle(ctx context.Context, req *Request) (*Response, error) {
	if f.handler == nil {
		return nil, ErrNoHandler
	}
	return f.handler(ctx, req)
}

// Wrapper proxies another plugin. Identity checks are delegated to the
// wrapped plugin so a wrapper and its target are the same plugin.
type Wrapper struct {
	inner  Plugin
	before func(ctx context.Context, req *Request)
}

// Wrap returns a proxy for p. before, if not nil, runs ahead of every Handle.
func Wrap(p Plugin, before func(ctx context.Context, req *Request)) *Wrapper {
	return &Wrapper{inner: p, before: before}
}

// Unwrap returns the proxied plugin.
func (w *Wrapper) Unwrap() Plugin {
	return w.inner
}

// Name returns the name of the proxied plugin.
func (w *Wrapper) Name() string {
	return w.inner.Name()
}

// IsPlugin delegates to the proxied plugin.
func (w *Wrapper) IsPlugin(other Plugin) bool {
	if o, ok := other.(*Wrapper); ok {
		other = o.inner
	}
	return w.inner.IsPlugin(other)
}

// Handle runs the before hook and forwards to the proxied plugin.
func (w *Wrapper) Handle(ctx context.Context, req *Request) (*Response, error) {
	if w.before != nil {
		w.before(ctx, req)
	}
	return w.inner.Handle(ctx, req)
}

// DebugString describes the wrapper and its target.
func (w *Wrapper) DebugString() string {
	return "wrapped " + DebugString(w.inner)
}

// Compile-time interface satisfaction checks.
var (
	_ Plugin = (*Func)(nil)
	_ Plugin = (*Wrapper)(nil)
)

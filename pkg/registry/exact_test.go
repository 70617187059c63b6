package registry

import (
	"errors"
	"testing"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

func newExact() *ExactMatchRegistry {
	return NewExactMatch(testID(channel.ModeSharedExactMatch))
}

func TestExactLookup(t *testing.T) {
	r := newExact()
	p := newPlugin("lights")

	if err := r.Register(p, "/a/b"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		path string
		want plugin.Plugin
	}{
		{"/a/b", p},
		{"/a/b/c", nil},
		{"/a/b/", nil},
		{"a/b", nil},
		{"/a", nil},
	}
	for _, tt := range tests {
		if got := r.Lookup(tt.path); got != tt.want {
			t.Errorf("Lookup(%q) = %s, want %s", tt.path, plugin.DebugString(got), plugin.DebugString(tt.want))
		}
	}
}

func TestExactLastWriterWins(t *testing.T) {
	r := newExact()
	a := newPlugin("A")
	b := newPlugin("B")

	_ = r.Register(a, "/x")
	if err := r.Register(b, "/x"); err != nil {
		t.Fatalf("Register over another plugin failed: %v", err)
	}
	if got := r.Lookup("/x"); got != plugin.Plugin(b) {
		t.Errorf("Lookup(/x) = %s, want B", plugin.DebugString(got))
	}
	if r.HasPlugin(a) {
		t.Error("replaced plugin should no longer be registered")
	}
}

func TestExactHasPlugin(t *testing.T) {
	r := newExact()
	p := newPlugin("lights")
	_ = r.Register(p, "/a")

	if !r.HasPluginAt(p, "/a") {
		t.Error("HasPluginAt(/a) = false after Register")
	}
	if !r.HasPluginAt(plugin.Wrap(p, nil), "/a") {
		t.Error("HasPluginAt should recognise a wrapped plugin")
	}
	if r.HasPluginAt(p, "/b") {
		t.Error("HasPluginAt(/b) = true")
	}
	if !r.HasPlugin(p) {
		t.Error("HasPlugin = false after Register")
	}
	if r.HasPlugin(newPlugin("lights")) {
		t.Error("HasPlugin matched another instance with the same name")
	}
}

func TestExactRemove(t *testing.T) {
	r := newExact()
	a := newPlugin("A")
	b := newPlugin("B")

	_ = r.Register(a, "/1")
	_ = r.Register(a, "/2")
	_ = r.Register(b, "/3")

	if !r.Remove(a) {
		t.Fatal("Remove(A) = false")
	}
	if r.HasPlugin(a) {
		t.Error("A still registered after Remove")
	}
	if r.Remove(a) {
		t.Error("second Remove(A) = true, want false")
	}
	if got := PluginMap(r); len(got) != 1 || got["/3"] != plugin.Plugin(b) {
		t.Errorf("PluginMap() = %v, want only /3", got)
	}
}

func TestExactRemoveAt(t *testing.T) {
	r := newExact()
	a := newPlugin("A")
	b := newPlugin("B")
	_ = r.Register(a, "/1")

	if err := r.RemoveAt(b, "/1"); !errors.Is(err, ErrConflict) {
		t.Errorf("RemoveAt(B, /1) error = %v, want ErrConflict", err)
	}
	if err := r.RemoveAt(a, "/2"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("RemoveAt(A, /2) error = %v, want ErrNotRegistered", err)
	}
	if err := r.RemoveAt(a, "/1"); err != nil {
		t.Errorf("RemoveAt(A, /1) error = %v", err)
	}
	if !r.IsEmpty() {
		t.Error("IsEmpty() = false after removing the only entry")
	}
}

package interactive

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/manager"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRouter struct {
	channels      []manager.ChannelInfo
	registrations []manager.RegistrationInfo
	lookup        map[string]plugin.Plugin

	unregistered []string
	cfg          *channel.Config
	restarts     int
	restartErr   error
}

func (f *fakeRouter) Channels() []manager.ChannelInfo           { return f.channels }
func (f *fakeRouter) Registrations() []manager.RegistrationInfo { return f.registrations }

func (f *fakeRouter) Lookup(_ string, _ int, uri string) plugin.Plugin {
	return f.lookup[uri]
}

func (f *fakeRouter) Unregister(p plugin.Plugin) bool {
	f.unregistered = append(f.unregistered, p.Name())
	return true
}

func (f *fakeRouter) UnregisterProtocol(p plugin.Plugin, protocol string) bool {
	f.unregistered = append(f.unregistered, p.Name()+"@"+protocol)
	return protocol == channel.ProtocolHTTP
}

func (f *fakeRouter) UnregisterPort(p plugin.Plugin, protocol string, port int) bool {
	f.unregistered = append(f.unregistered, p.Name()+"@"+protocol)
	return port == 8282
}

func (f *fakeRouter) DefaultConfig() *channel.Config      { return f.cfg }
func (f *fakeRouter) SetDefaultConfig(cfg *channel.Config) { f.cfg = cfg }

func (f *fakeRouter) HandleDefaultConfigUpdate(context.Context) error {
	f.restarts++
	return f.restartErr
}

func newTestShell() (*Shell, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Shell{out: &buf}, &buf
}

func newRouter() (*fakeRouter, plugin.Plugin) {
	lights := plugin.NewFunc("lights", nil)
	id := channel.ID{
		Type:      channel.TypeServer,
		Transport: channel.TransportTCP,
		IP:        channel.AllInterfaces,
		Port:      8282,
		Protocol:  channel.ProtocolHTTP,
		Mode:      channel.ModeSharedPrefixMatch,
	}
	return &fakeRouter{
		channels: []manager.ChannelInfo{{ID: id, State: channel.StateRunning, Addr: "0.0.0.0:8282", Plugins: 1}},
		registrations: []manager.RegistrationInfo{
			{Channel: id, Path: "/home", Plugin: lights, Loader: "builtin"},
		},
		lookup: map[string]plugin.Plugin{"/home/light1": lights},
		cfg:    &channel.Config{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxBodySize: 1024},
	}, lights
}

func TestExecQuit(t *testing.T) {
	s, buf := newTestShell()
	router, _ := newRouter()

	assert.True(t, s.exec(context.Background(), router, "   "))
	assert.False(t, s.exec(context.Background(), router, "quit"))
	assert.Contains(t, buf.String(), "Exiting...")
}

func TestExecUnknown(t *testing.T) {
	s, buf := newTestShell()
	router, _ := newRouter()

	assert.True(t, s.exec(context.Background(), router, "frobnicate"))
	assert.Contains(t, buf.String(), "Unknown command: frobnicate")
}

func TestExecChannels(t *testing.T) {
	s, buf := newTestShell()
	router, _ := newRouter()

	s.exec(context.Background(), router, "channels")
	out := buf.String()
	assert.Contains(t, out, "Channels (1):")
	assert.Contains(t, out, "SERVER/TCP http 0.0.0.0:8282 mode=SharedPrefixMatch")
	assert.Contains(t, out, "State: RUNNING")
	assert.Contains(t, out, "Listening: 0.0.0.0:8282")
}

func TestExecList(t *testing.T) {
	s, buf := newTestShell()
	router, _ := newRouter()

	s.exec(context.Background(), router, "list")
	assert.Contains(t, buf.String(), "/home")
	assert.Contains(t, buf.String(), "loader=builtin")

	buf.Reset()
	s.exec(context.Background(), router, "list heating")
	assert.Contains(t, buf.String(), "No registrations")
}

func TestExecLookup(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"match", "lookup http 8282 /home/light1", `/home/light1 -> plugin "lights"`},
		{"no match", "lookup http 8282 /garage", "No plugin for /garage"},
		{"usage", "lookup http", "Usage: lookup"},
		{"bad port", "lookup http x /home", "Invalid port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, buf := newTestShell()
			router, _ := newRouter()
			s.exec(context.Background(), router, tt.line)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestExecUnregister(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		want     string
		wantCall []string
	}{
		{"all", "unregister lights", "Plugin unregistered", []string{"lights"}},
		{"protocol", "unregister lights http", "Plugin unregistered", []string{"lights@http"}},
		{"protocol nothing", "unregister lights coap", "Nothing to unregister", []string{"lights@coap"}},
		{"port", "unregister lights http 8282", "Plugin unregistered", []string{"lights@http"}},
		{"unknown plugin", "unregister heating", "Plugin not found: heating", nil},
		{"usage", "unregister", "Usage: unregister", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, buf := newTestShell()
			router, _ := newRouter()
			s.exec(context.Background(), router, tt.line)
			assert.Contains(t, buf.String(), tt.want)
			assert.Equal(t, tt.wantCall, router.unregistered)
		})
	}
}

func TestExecDefault(t *testing.T) {
	s, buf := newTestShell()
	router, _ := newRouter()

	s.exec(context.Background(), router, "default")
	assert.Contains(t, buf.String(), "read=10s write=10s maxbody=1.0KiB")
	assert.Equal(t, 0, router.restarts)

	buf.Reset()
	s.exec(context.Background(), router, "default read=5s maxbody=2KiB")
	assert.Contains(t, buf.String(), "Default configuration updated")
	assert.Equal(t, 1, router.restarts)
	require.NotNil(t, router.cfg)
	assert.Equal(t, 5*time.Second, router.cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, router.cfg.WriteTimeout)
	assert.Equal(t, int64(2048), router.cfg.MaxBodySize)

	buf.Reset()
	router.restartErr = errors.New("address in use")
	s.exec(context.Background(), router, "default write=1s")
	assert.Contains(t, buf.String(), "Restart failed: address in use")
}

func TestParseConfigArgs(t *testing.T) {
	base := &channel.Config{ReadTimeout: time.Second}

	cfg, err := parseConfigArgs(base, []string{"write=2s"})
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.ReadTimeout)
	assert.Equal(t, 2*time.Second, cfg.WriteTimeout)
	assert.Equal(t, time.Duration(0), base.WriteTimeout, "base must not change")

	cfg, err = parseConfigArgs(nil, []string{"READ=3s", "maxbody=4096"})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, int64(4096), cfg.MaxBodySize)

	assert.Equal(t, "default", formatBytes(0))
	assert.Equal(t, "1.0MiB", formatBytes(1<<20))

	for _, bad := range []string{"read", "read=fast", "maxbody=big", "colour=red"} {
		_, err := parseConfigArgs(base, []string{bad})
		assert.Error(t, err, bad)
	}
}

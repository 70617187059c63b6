package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/config"
	"github.com/opendaylight/iotdm-sub002/pkg/manager"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

func TestBuildStaticPlugin(t *testing.T) {
	p, err := buildPlugin(config.PluginConfig{
		Name:     "lights",
		Kind:     config.KindStatic,
		Response: config.ResponseConfig{Code: 201, ContentType: "text/plain", Body: "on"},
	}, discard)
	require.NoError(t, err)
	assert.Equal(t, "lights", p.Name())

	resp, err := p.Handle(context.Background(), &plugin.Request{URI: "/home/light1"})
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode())
	assert.Equal(t, "text/plain", resp.ContentType)
	assert.Equal(t, "on", string(resp.Payload))
}

func TestBuildStaticPluginDefaultsTo200(t *testing.T) {
	p, err := buildPlugin(config.PluginConfig{Name: "empty", Kind: config.KindStatic}, discard)
	require.NoError(t, err)

	resp, err := p.Handle(context.Background(), &plugin.Request{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Empty(t, resp.Payload)
}

func TestBuildEchoPlugin(t *testing.T) {
	p, err := buildPlugin(config.PluginConfig{Name: "echo", Kind: config.KindEcho}, discard)
	require.NoError(t, err)

	resp, err := p.Handle(context.Background(), &plugin.Request{
		ContentType: "application/json",
		Payload:     []byte(`{"m2m:cin":{}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.Equal(t, `{"m2m:cin":{}}`, string(resp.Payload))
}

func TestBuildUnknownKind(t *testing.T) {
	_, err := buildPlugin(config.PluginConfig{Name: "x", Kind: "lua"}, discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown kind "lua"`)
}

func TestBuiltinLoader(t *testing.T) {
	a, err := buildPlugin(config.PluginConfig{Name: "a", Kind: config.KindEcho}, discard)
	require.NoError(t, err)
	b, err := buildPlugin(config.PluginConfig{Name: "a", Kind: config.KindEcho}, discard)
	require.NoError(t, err)

	l := &builtinLoader{plugins: []plugin.Plugin{a}}
	assert.Equal(t, builtinLoaderName, l.Name())
	assert.True(t, l.HasLoaded(a))
	assert.True(t, l.HasLoaded(plugin.Wrap(a, nil)), "wrapper of a loaded plugin")
	assert.False(t, l.HasLoaded(b), "same name, different instance")
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestRegisterPlugins(t *testing.T) {
	port := freePort(t)
	m := manager.New(manager.WithDefaultConfig(&channel.Config{}))
	defer m.Close()

	cfgs := []config.PluginConfig{
		{
			Name:     "lights",
			Kind:     config.KindStatic,
			Response: config.ResponseConfig{ContentType: "text/plain", Body: "on"},
			Endpoints: []config.EndpointConfig{
				{Protocol: channel.ProtocolHTTP, Address: "127.0.0.1", Port: port, Mode: channel.ModeSharedPrefixMatch, URI: "/home"},
				// No CoAP factory is installed.
				{Protocol: channel.ProtocolCoAP, Port: 5683, Mode: channel.ModeSharedPrefixMatch, URI: "/home"},
			},
		},
		{
			Name: "echo",
			Kind: config.KindEcho,
			Endpoints: []config.EndpointConfig{
				{Protocol: channel.ProtocolHTTP, Address: "127.0.0.1", Port: port, Mode: channel.ModeSharedPrefixMatch, URI: "/echo"},
			},
		},
	}

	err := registerPlugins(context.Background(), m, cfgs, discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, manager.ErrUnsupportedProtocol)

	regs := m.Registrations()
	require.Len(t, regs, 2)
	for _, r := range regs {
		assert.Equal(t, builtinLoaderName, r.Loader, r.Path)
	}

	channels := m.Channels()
	require.Len(t, channels, 1)
	base := "http://" + channels[0].Addr

	resp, err := http.Get(base + "/home/light1")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "on", string(body))

	resp, err = http.Post(base+"/echo", "text/plain", strings.NewReader("ping"))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ping", string(body))

	assert.True(t, m.UnregisterLoader(builtinLoaderName))
	assert.Empty(t, m.Channels())
}

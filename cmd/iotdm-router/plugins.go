package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/opendaylight/iotdm-sub002/pkg/config"
	"github.com/opendaylight/iotdm-sub002/pkg/manager"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// builtinLoaderName is the loader name of plugins declared in the
// configuration file.
const builtinLoaderName = "builtin"

// builtinLoader owns the plugins built from configuration.
type builtinLoader struct {
	plugins []plugin.Plugin
}

func (l *builtinLoader) Name() string {
	return builtinLoaderName
}

func (l *builtinLoader) HasLoaded(p plugin.Plugin) bool {
	for _, own := range l.plugins {
		if own.IsPlugin(p) {
			return true
		}
	}
	return false
}

// buildPlugin creates the plugin described by cfg. Every request is
// logged at debug level before it is handled.
func buildPlugin(cfg config.PluginConfig, logger *slog.Logger) (plugin.Plugin, error) {
	var handler plugin.HandlerFunc
	switch cfg.Kind {
	case config.KindStatic:
		handler = staticHandler(cfg.Response)
	case config.KindEcho:
		handler = echoHandler
	default:
		return nil, fmt.Errorf("plugin %q: unknown kind %q", cfg.Name, cfg.Kind)
	}

	logger = logger.With(slog.String("plugin", cfg.Name))
	return plugin.Wrap(plugin.NewFunc(cfg.Name, handler), func(_ context.Context, req *plugin.Request) {
		logger.Debug("handling request",
			slog.String("request_id", req.ID),
			slog.String("method", req.Method),
			slog.String("uri", req.URI))
	}), nil
}

func staticHandler(rc config.ResponseConfig) plugin.HandlerFunc {
	code := rc.Code
	if code == 0 {
		code = http.StatusOK
	}
	body := []byte(rc.Body)
	return func(context.Context, *plugin.Request) (*plugin.Response, error) {
		return plugin.NewResponse(code, rc.ContentType, body), nil
	}
}

func echoHandler(_ context.Context, req *plugin.Request) (*plugin.Response, error) {
	return plugin.NewResponse(http.StatusOK, req.ContentType, req.Payload), nil
}

// registerPlugins builds the configured plugins and registers them at
// their endpoints. Registration failures of one endpoint do not stop the
// others; all failures are returned joined.
func registerPlugins(ctx context.Context, m *manager.Manager, cfgs []config.PluginConfig, logger *slog.Logger) error {
	loader := &builtinLoader{}
	var errs []error

	for _, pc := range cfgs {
		p, err := buildPlugin(pc, logger)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		loader.plugins = append(loader.plugins, p)

		for _, ec := range pc.Endpoints {
			if err := m.Register(ctx, p, ec.Registration()); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if err := m.RegisterLoader(loader); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

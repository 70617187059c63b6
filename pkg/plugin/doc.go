// Package plugin defines the request handlers that IoTDM channels dispatch to.
//
// A Plugin is registered against one or more resource paths on a channel.
// The registry never compares plugins with ==: identity is asked of the
// plugin itself through IsPlugin, because plugins are often wrapped or
// proxied by loaders and instrumentation.
//
//	lights := plugin.NewFunc("lights", func(ctx context.Context, req *plugin.Request) (*plugin.Response, error) {
//	    return plugin.NewResponse(200, "application/json", []byte(`{"on":true}`)), nil
//	})
//
// Requests and responses are protocol neutral. Each channel translates its
// own wire format into a Request and writes the Response back.
package plugin

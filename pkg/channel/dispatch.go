package channel

import (
	"context"
	"fmt"

	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// Dispatch resolves req.URI with lookup and invokes the matching plugin.
// It returns the plugin that handled the request, or ErrNoPlugin when no
// plugin matches. A plugin returning neither a response nor an error is
// answered with an empty response.
func Dispatch(ctx context.Context, lookup Lookup, req *plugin.Request) (plugin.Plugin, *plugin.Response, error) {
	p := lookup.Lookup(req.URI)
	if p == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoPlugin, req.URI)
	}

	resp, err := p.Handle(ctx, req)
	if err != nil {
		return p, nil, err
	}
	if resp == nil {
		resp = &plugin.Response{}
	}
	return p, resp, nil
}

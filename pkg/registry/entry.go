package registry

import "github.com/opendaylight/iotdm-sub002/pkg/plugin"

type entry struct {
	path   string
	plugin plugin.Plugin
}

func yieldAll(entries []entry, yield func(string, plugin.Plugin) bool) {
	for _, e := range entries {
		if !yield(e.path, e.plugin) {
			return
		}
	}
}

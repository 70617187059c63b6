package manager

import (
	"context"
	"errors"
	"slices"

	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/discovery"
)

func (m *Manager) serviceFor(ep *endpoint) *discovery.Service {
	var paths []string
	for path := range ep.reg.Entries() {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return discovery.ServiceFor(ep.id, paths)
}

func (m *Manager) advertiseLocked(ctx context.Context, ep *endpoint) {
	if ep.id.Type != channel.TypeServer {
		return
	}
	if err := m.advertiser.Advertise(ctx, m.serviceFor(ep)); err != nil {
		m.logger.Warn("failed to advertise channel", "channel", ep.id.String(), "error", err)
	}
}

func (m *Manager) refreshLocked(ep *endpoint) {
	if ep.id.Type != channel.TypeServer {
		return
	}
	err := m.advertiser.Update(m.serviceFor(ep))
	if err != nil && !errors.Is(err, discovery.ErrNotFound) {
		m.logger.Warn("failed to update advertisement", "channel", ep.id.String(), "error", err)
	}
}

func (m *Manager) withdrawLocked(ep *endpoint) {
	if ep.id.Type != channel.TypeServer {
		return
	}
	err := m.advertiser.Withdraw(m.serviceFor(ep).Key())
	if err != nil && !errors.Is(err, discovery.ErrNotFound) {
		m.logger.Warn("failed to withdraw advertisement", "channel", ep.id.String(), "error", err)
	}
}

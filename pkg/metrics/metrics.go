// Package metrics exports router events as Prometheus metrics.
//
// A Collector is a log.Logger: add it to the event sinks of the manager
// and serve Handler on a metrics listener.
package metrics

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/opendaylight/iotdm-sub002/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "iotdm"

// noPlugin labels requests no plugin matched.
const noPlugin = "none"

// Collector counts dispatches, registry changes, channel states and errors.
type Collector struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	registrations *prometheus.CounterVec
	states        *prometheus.GaugeVec
	errors        *prometheus.CounterVec
}

// New creates a Collector and registers its metrics with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests dispatched by channels, by plugin and status.",
		}, []string{"protocol", "channel", "plugin", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from request receipt to response.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"protocol"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_changes_total",
			Help:      "Registry changes by action.",
		}, []string{"channel", "action"}),
		states: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_state",
			Help:      "1 for the current state of each channel.",
		}, []string{"channel", "state"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Error events by channel.",
		}, []string{"channel"}),
	}

	var errs []error
	for _, col := range []prometheus.Collector{c.requests, c.duration, c.registrations, c.states, c.errors} {
		if err := reg.Register(col); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// Log updates the metrics for one event.
func (c *Collector) Log(event log.Event) {
	switch {
	case event.Dispatch != nil:
		d := event.Dispatch
		plugin := d.Plugin
		if plugin == "" {
			plugin = noPlugin
		}
		c.requests.WithLabelValues(event.Protocol, event.Channel, plugin, strconv.Itoa(d.Status)).Inc()
		if d.ProcessingTime != nil {
			c.duration.WithLabelValues(event.Protocol).Observe(d.ProcessingTime.Seconds())
		}
	case event.Registry != nil:
		c.registrations.WithLabelValues(event.Channel, event.Registry.Action.String()).Inc()
	case event.StateChange != nil:
		sc := event.StateChange
		if sc.OldState != "" && sc.OldState != sc.NewState {
			c.states.WithLabelValues(event.Channel, sc.OldState).Set(0)
		}
		c.states.WithLabelValues(event.Channel, sc.NewState).Set(1)
	case event.Error != nil:
		c.errors.WithLabelValues(event.Channel).Inc()
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Compile-time interface satisfaction check.
var _ log.Logger = (*Collector)(nil)

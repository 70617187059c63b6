package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/opendaylight/iotdm-sub002/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// metricsServer serves /metrics for the router events.
type metricsServer struct {
	collector *metrics.Collector
	srv       *http.Server
	ln        net.Listener
}

func startMetricsServer(addr string, logger *slog.Logger) (*metricsServer, error) {
	registry := prometheus.NewRegistry()
	collector, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("metrics: register collectors: %w", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", slog.Any("error", err))
		}
	}()
	logger.Info("metrics enabled", slog.String("listen", ln.Addr().String()))
	return &metricsServer{collector: collector, srv: srv, ln: ln}, nil
}

// Addr returns the listen address.
func (s *metricsServer) Addr() string {
	return s.ln.Addr().String()
}

// Close stops the server.
func (s *metricsServer) Close() error {
	return s.srv.Close()
}

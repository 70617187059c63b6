package channel

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opendaylight/iotdm-sub002/pkg/log"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// HeaderRequestID carries the oneM2M request identifier.
const HeaderRequestID = "X-M2M-RI"

// HTTPOptions configures an HTTP channel.
type HTTPOptions struct {
	// TLS serves HTTPS using Config.CertFile and Config.KeyFile.
	TLS bool

	// UsesDefaultConfig marks the channel as running the default config.
	UsesDefaultConfig bool

	// Logger for operational logging (optional).
	Logger *slog.Logger

	// Events receives dispatch and state events (optional).
	Events log.Logger
}

// HTTPChannel is a server channel speaking HTTP or HTTPS.
type HTTPChannel struct {
	id      ID
	cfg     *Config
	lookup  Lookup
	opts    HTTPOptions
	logger  *slog.Logger
	events  log.Logger
	tlsConf *tls.Config

	mu       sync.Mutex
	state    State
	server   *http.Server
	listener net.Listener
	wg       sync.WaitGroup
}

// NewHTTPChannel creates an HTTP channel. cfg may be nil only when the
// channel uses the default configuration, in which case the channel waits
// for one and Start does nothing.
func NewHTTPChannel(id ID, cfg *Config, lookup Lookup, opts HTTPOptions) (*HTTPChannel, error) {
	if lookup == nil {
		return nil, fmt.Errorf("lookup is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &HTTPChannel{
		id:     id,
		cfg:    cfg.Clone(),
		lookup: lookup,
		opts:   opts,
		logger: logger.With("channel", id.String()),
		events: log.OrNoop(opts.Events),
		state:  StateInit,
	}
	if cfg == nil && opts.UsesDefaultConfig {
		c.state = StateWaitingDefault
	}
	return c, nil
}

// ID returns the channel identifier.
func (c *HTTPChannel) ID() ID {
	return c.id
}

// State returns the current lifecycle state.
func (c *HTTPChannel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UsesDefaultConfig reports whether the channel runs the default config.
func (c *HTTPChannel) UsesDefaultConfig() bool {
	return c.opts.UsesDefaultConfig
}

// CompareConfig reports whether the channel runs with cfg.
func (c *HTTPChannel) CompareConfig(cfg *Config) bool {
	return c.cfg.Equal(cfg)
}

// Addr returns the listener address, or nil when not running.
func (c *HTTPChannel) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener == nil {
		return nil
	}
	return c.listener.Addr()
}

// Start binds the listener and serves requests in the background.
func (c *HTTPChannel) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateWaitingDefault:
		c.logger.Info("waiting for default configuration")
		return nil
	case StateRunning, StateRunningDefault:
		return ErrAlreadyStarted
	}

	if c.opts.TLS {
		tlsConf, err := c.serverTLSConfig()
		if err != nil {
			c.setStateLocked(StateInitFailed, err.Error())
			return err
		}
		c.tlsConf = tlsConf
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", c.id.AddrAndPort())
	if err != nil {
		c.setStateLocked(StateInitFailed, err.Error())
		return fmt.Errorf("failed to listen: %w", err)
	}
	if c.tlsConf != nil {
		listener = tls.NewListener(listener, c.tlsConf)
	}
	c.listener = listener

	var readTimeout, writeTimeout time.Duration
	if c.cfg != nil {
		readTimeout, writeTimeout = c.cfg.ReadTimeout, c.cfg.WriteTimeout
	}
	c.server = &http.Server{
		Handler:      c,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		ErrorLog:     slog.NewLogLogger(c.logger.Handler(), slog.LevelWarn),
	}

	if c.opts.UsesDefaultConfig {
		c.setStateLocked(StateRunningDefault, "")
	} else {
		c.setStateLocked(StateRunning, "")
	}
	c.logger.Info("channel started", "addr", listener.Addr().String(), "mode", c.id.Mode.String())

	server := c.server
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("channel failed", "error", err)
			c.mu.Lock()
			c.setStateLocked(StateFailed, err.Error())
			c.mu.Unlock()
		}
	}()
	return nil
}

// Close stops the server. Closing a channel that is not running is a no-op.
func (c *HTTPChannel) Close() error {
	c.mu.Lock()
	server := c.server
	c.server = nil
	c.listener = nil
	if server != nil {
		c.setStateLocked(StateInit, "closed")
	}
	c.mu.Unlock()

	if server == nil {
		return nil
	}
	err := server.Close()
	c.wg.Wait()
	c.logger.Info("channel closed")
	return err
}

// ServeHTTP dispatches one request to the plugin owning its path.
func (c *HTTPChannel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, c.cfg.maxBodySize()))
	if err != nil {
		c.logger.Warn("failed to read request body", "request_id", requestID, "error", err)
		w.Header().Set(HeaderRequestID, requestID)
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		c.logDispatch(requestID, r, nil, http.StatusRequestEntityTooLarge, start)
		return
	}

	req := &plugin.Request{
		ID:          requestID,
		Protocol:    c.id.Protocol,
		Method:      r.Method,
		URI:         r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Payload:     body,
		Header:      r.Header,
		RemoteAddr:  r.RemoteAddr,
	}

	w.Header().Set(HeaderRequestID, requestID)

	p, resp, err := Dispatch(r.Context(), c.lookup, req)
	switch {
	case errors.Is(err, ErrNoPlugin):
		c.logger.Debug("no plugin for path", "request_id", requestID, "uri", req.URI)
		http.Error(w, "not found", http.StatusNotFound)
		c.logDispatch(requestID, r, nil, http.StatusNotFound, start)
		return
	case err != nil:
		c.logger.Error("plugin failed", "request_id", requestID, "uri", req.URI, "plugin", plugin.DebugString(p), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		c.logDispatch(requestID, r, p, http.StatusInternalServerError, start)
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	status := resp.StatusCode()
	w.WriteHeader(status)
	if len(resp.Payload) > 0 {
		if _, err := w.Write(resp.Payload); err != nil {
			c.logger.Debug("failed to write response", "request_id", requestID, "error", err)
		}
	}
	c.logDispatch(requestID, r, p, status, start)
}

func (c *HTTPChannel) logDispatch(requestID string, r *http.Request, p plugin.Plugin, status int, start time.Time) {
	elapsed := time.Since(start)
	ev := log.NewEvent(log.CategoryDispatch)
	ev.Channel = c.id.String()
	ev.Protocol = c.id.Protocol
	ev.Dispatch = &log.DispatchEvent{
		RequestID:      requestID,
		Method:         r.Method,
		URI:            r.URL.Path,
		Status:         status,
		RemoteAddr:     r.RemoteAddr,
		ProcessingTime: &elapsed,
	}
	if p != nil {
		ev.Dispatch.Plugin = p.Name()
	}
	c.events.Log(ev)
}

func (c *HTTPChannel) setStateLocked(state State, reason string) {
	if c.state == state {
		return
	}
	old := c.state
	c.state = state

	ev := log.NewEvent(log.CategoryState)
	ev.Channel = c.id.String()
	ev.Protocol = c.id.Protocol
	ev.StateChange = &log.StateChangeEvent{
		OldState: old.String(),
		NewState: state.String(),
		Reason:   reason,
	}
	c.events.Log(ev)
}

func (c *HTTPChannel) serverTLSConfig() (*tls.Config, error) {
	if c.cfg == nil || c.cfg.CertFile == "" || c.cfg.KeyFile == "" {
		return nil, fmt.Errorf("%w: certificate and key files are required", ErrTLSConfig)
	}
	cert, err := tls.LoadX509KeyPair(c.cfg.CertFile, c.cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTLSConfig, err)
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}, nil
}

// HTTPFactory creates HTTP or HTTPS server channels.
type HTTPFactory struct {
	// TLS selects HTTPS.
	TLS bool

	// Logger and Events are handed to every channel created.
	Logger *slog.Logger
	Events log.Logger
}

// Type returns TypeServer.
func (f *HTTPFactory) Type() Type {
	return TypeServer
}

// Transport returns TransportTCP.
func (f *HTTPFactory) Transport() Transport {
	return TransportTCP
}

// New creates an HTTP channel.
func (f *HTTPFactory) New(id ID, cfg *Config, lookup Lookup, usesDefault bool) (Channel, error) {
	return NewHTTPChannel(id, cfg, lookup, HTTPOptions{
		TLS:               f.TLS,
		UsesDefaultConfig: usesDefault,
		Logger:            f.Logger,
		Events:            f.Events,
	})
}

// Compile-time interface satisfaction checks.
var (
	_ Channel      = (*HTTPChannel)(nil)
	_ Factory      = (*HTTPFactory)(nil)
	_ http.Handler = (*HTTPChannel)(nil)
)

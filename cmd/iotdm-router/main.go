// Command iotdm-router runs the IoTDM plugin router.
//
// The router opens protocol channels on demand and dispatches received
// requests to the plugins registered at matching paths. Plugins are
// declared in the YAML configuration file.
//
// Usage:
//
//	iotdm-router [flags]
//
// Flags:
//
//	-config string      Configuration file path
//	-log-level string   Log level: debug, info, warn, error (overrides config)
//	-log-format string  Log format: text, json (overrides config)
//	-event-log string   Event log file path (overrides config)
//	-mdns               Advertise server channels via mDNS (overrides config)
//	-metrics string     Prometheus listen address (overrides config)
//	-interactive        Start the interactive shell (overrides config)
//
// Examples:
//
//	# Start with a configuration file
//	iotdm-router -config /etc/iotdm/router.yaml
//
//	# Debug run with an event log and the shell
//	iotdm-router -config router.yaml -log-level debug -event-log router.ilog -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/opendaylight/iotdm-sub002/cmd/iotdm-router/interactive"
	"github.com/opendaylight/iotdm-sub002/pkg/config"
	"github.com/opendaylight/iotdm-sub002/pkg/discovery"
	"github.com/opendaylight/iotdm-sub002/pkg/log"
	"github.com/opendaylight/iotdm-sub002/pkg/manager"
)

// flags holds the command line.
type flags struct {
	ConfigFile  string
	LogLevel    string
	LogFormat   string
	EventLog    string
	MDNS        bool
	Metrics     string
	Interactive bool
}

func parseFlags(fs *flag.FlagSet, args []string) (flags, map[string]bool, error) {
	var f flags
	fs.StringVar(&f.ConfigFile, "config", "", "Configuration file path")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.LogFormat, "log-format", "", "Log format: text, json")
	fs.StringVar(&f.EventLog, "event-log", "", "Event log file path")
	fs.BoolVar(&f.MDNS, "mdns", false, "Advertise server channels via mDNS")
	fs.StringVar(&f.Metrics, "metrics", "", "Prometheus listen address (e.g. 127.0.0.1:9464)")
	fs.BoolVar(&f.Interactive, "interactive", false, "Start the interactive shell")

	if err := fs.Parse(args); err != nil {
		return flags{}, nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

// loadConfig reads the configuration file, if any, and applies the
// flags given on the command line on top of it.
func loadConfig(f flags, set map[string]bool) (*config.Config, error) {
	cfg := config.Default()
	if f.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(f.ConfigFile); err != nil {
			return nil, err
		}
	}

	if set["log-level"] {
		cfg.LogLevel = f.LogLevel
	}
	if set["log-format"] {
		cfg.LogFormat = f.LogFormat
	}
	if set["event-log"] {
		cfg.EventLog = f.EventLog
	}
	if set["mdns"] {
		cfg.MDNS.Enabled = f.MDNS
	}
	if set["metrics"] {
		cfg.Metrics.Listen = f.Metrics
	}
	if set["interactive"] {
		cfg.Interactive = f.Interactive
	}

	if err := cfg.Validate(); err != nil {
		return nil, &config.LoadError{File: f.ConfigFile, Message: "invalid configuration", Cause: err}
	}
	return cfg, nil
}

// newLogger creates the operational logger writing to w.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newEvents creates the event sink: router events go to the operational
// log at debug level, to extra (such as the metrics collector) and, when
// configured, to the CBOR event file. The returned close function closes
// the file.
func newEvents(cfg *config.Config, logger *slog.Logger, extra ...log.Logger) (log.Logger, func() error, error) {
	sinks := append([]log.Logger{log.NewSlogAdapter(logger)}, extra...)
	if cfg.EventLog == "" {
		return log.NewMultiLogger(sinks...), func() error { return nil }, nil
	}

	file, err := log.NewFileLogger(cfg.EventLog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open event log: %w", err)
	}
	return log.NewMultiLogger(append(sinks, file)...), file.Close, nil
}

func main() {
	f, set, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := loadConfig(f, set)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var out io.Writer = os.Stderr
	var shell *interactive.Shell
	if cfg.Interactive {
		var err error
		if shell, err = interactive.New(); err != nil {
			return err
		}
		out = shell.Stdout()
	}

	logger := newLogger(cfg, out)
	slog.SetDefault(logger)

	var extra []log.Logger
	if cfg.Metrics.Listen != "" {
		ms, err := startMetricsServer(cfg.Metrics.Listen, logger)
		if err != nil {
			return err
		}
		defer ms.Close()
		extra = append(extra, ms.collector)
	}

	events, closeEvents, err := newEvents(cfg, logger, extra...)
	if err != nil {
		return err
	}
	defer closeEvents()

	opts := []manager.Option{
		manager.WithLogger(logger),
		manager.WithEvents(events),
		manager.WithDefaultConfig(cfg.DefaultChannel),
	}
	if cfg.MDNS.Enabled {
		adv := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{
			Interface: cfg.MDNS.Interface,
			TTL:       cfg.MDNS.TTL,
		})
		opts = append(opts, manager.WithAdvertiser(adv))
	}

	m := manager.New(opts...)
	defer func() {
		if err := m.Close(); err != nil {
			logger.Error("failed to close channels", slog.Any("error", err))
		}
	}()

	if err := registerPlugins(ctx, m, cfg.Plugins, logger); err != nil {
		// Endpoints that registered keep serving.
		logger.Error("plugin registration incomplete", slog.Any("error", err))
	}

	logger.Info("router started",
		slog.Int("plugins", len(cfg.Plugins)),
		slog.Int("channels", len(m.Channels())))

	if shell != nil {
		go shell.Run(ctx, cancel, m)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

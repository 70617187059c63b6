// Package interactive provides the interactive command-line interface
// for the IoTDM router.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/opendaylight/iotdm-sub002/pkg/channel"
	"github.com/opendaylight/iotdm-sub002/pkg/manager"
	"github.com/opendaylight/iotdm-sub002/pkg/plugin"
)

// Router is the part of the plugin manager the shell operates on.
// *manager.Manager implements it.
type Router interface {
	Channels() []manager.ChannelInfo
	Registrations() []manager.RegistrationInfo
	Lookup(protocol string, port int, uri string) plugin.Plugin
	Unregister(p plugin.Plugin) bool
	UnregisterProtocol(p plugin.Plugin, protocol string) bool
	UnregisterPort(p plugin.Plugin, protocol string, port int) bool
	DefaultConfig() *channel.Config
	SetDefaultConfig(cfg *channel.Config)
	HandleDefaultConfigUpdate(ctx context.Context) error
}

// Shell handles interactive mode for iotdm-router.
type Shell struct {
	rl  *readline.Instance
	out io.Writer
}

// New creates a new interactive shell.
func New() (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "iotdm> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop. cancel is called when the
// user quits.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc, router Router) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if !s.exec(ctx, router, line) {
			cancel()
			return
		}
	}
}

// exec runs one command line. It returns false when the shell should exit.
func (s *Shell) exec(ctx context.Context, router Router, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "channels", "ch":
		s.cmdChannels(router)

	case "list", "ls":
		s.cmdList(router, args)

	case "lookup", "l":
		s.cmdLookup(router, args)

	case "unregister", "unreg":
		s.cmdUnregister(router, args)

	case "default":
		s.cmdDefault(ctx, router, args)

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
IoTDM Router Commands:
  Inspection:
    channels                         - List channels and their state
    list [plugin]                    - List registrations (optionally of one plugin)
    lookup <protocol> <port> <uri>   - Show which plugin a request would reach

  Management:
    unregister <plugin> [protocol [port]]
                                     - Remove the registrations of a plugin
    default                          - Show the default channel configuration
    default read=<d> write=<d> maxbody=<size>
                                     - Change it and restart dependent channels

  General:
    help                             - Show this help
    quit                             - Exit router`)
}

func (s *Shell) cmdChannels(router Router) {
	chans := router.Channels()
	if len(chans) == 0 {
		fmt.Fprintln(s.out, "No channels")
		return
	}

	fmt.Fprintf(s.out, "\nChannels (%d):\n", len(chans))
	fmt.Fprintln(s.out, "-------------------------------------------")
	for _, c := range chans {
		fmt.Fprintf(s.out, "  %s\n", c.ID.DebugString())
		fmt.Fprintf(s.out, "      State: %s\n", c.State)
		if c.Addr != "" {
			fmt.Fprintf(s.out, "      Listening: %s\n", c.Addr)
		}
		fmt.Fprintf(s.out, "      Plugins: %d  Default config: %t\n", c.Plugins, c.UsesDefaultConfig)
	}
}

func (s *Shell) cmdList(router Router, args []string) {
	regs := router.Registrations()
	var name string
	if len(args) > 0 {
		name = args[0]
	}

	shown := 0
	for _, r := range regs {
		if name != "" && r.Plugin.Name() != name {
			continue
		}
		loader := r.Loader
		if loader == "" {
			loader = "-"
		}
		fmt.Fprintf(s.out, "  %-24s %-24s %-12s loader=%s\n", r.Channel, r.Path, r.Plugin.Name(), loader)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(s.out, "No registrations")
	}
}

func (s *Shell) cmdLookup(router Router, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "Usage: lookup <protocol> <port> <uri>")
		fmt.Fprintln(s.out, "  Example: lookup http 8282 /home/light1")
		return
	}

	port, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid port: %v\n", err)
		return
	}

	p := router.Lookup(args[0], port, args[2])
	if p == nil {
		fmt.Fprintf(s.out, "No plugin for %s\n", args[2])
		return
	}
	fmt.Fprintf(s.out, "%s -> %s\n", args[2], plugin.DebugString(p))
}

// findPlugin returns the registered plugin with the given name.
func findPlugin(router Router, name string) plugin.Plugin {
	for _, r := range router.Registrations() {
		if r.Plugin.Name() == name {
			return r.Plugin
		}
	}
	return nil
}

func (s *Shell) cmdUnregister(router Router, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: unregister <plugin> [protocol [port]]")
		fmt.Fprintln(s.out, "  Use 'list' to show registered plugins")
		return
	}

	p := findPlugin(router, args[0])
	if p == nil {
		fmt.Fprintf(s.out, "Plugin not found: %s\n", args[0])
		return
	}

	var removed bool
	switch len(args) {
	case 1:
		removed = router.Unregister(p)
	case 2:
		removed = router.UnregisterProtocol(p, args[1])
	default:
		port, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Fprintf(s.out, "Invalid port: %v\n", err)
			return
		}
		removed = router.UnregisterPort(p, args[1], port)
	}

	if !removed {
		fmt.Fprintln(s.out, "Nothing to unregister")
		return
	}
	fmt.Fprintln(s.out, "Plugin unregistered")
}

func (s *Shell) cmdDefault(ctx context.Context, router Router, args []string) {
	if len(args) == 0 {
		cfg := router.DefaultConfig()
		if cfg == nil {
			fmt.Fprintln(s.out, "No default configuration")
			return
		}
		fmt.Fprintf(s.out, "  read=%s write=%s maxbody=%s\n", cfg.ReadTimeout, cfg.WriteTimeout, formatBytes(cfg.MaxBodySize))
		return
	}

	cfg, err := parseConfigArgs(router.DefaultConfig(), args)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid configuration: %v\n", err)
		return
	}

	router.SetDefaultConfig(cfg)
	if err := router.HandleDefaultConfigUpdate(ctx); err != nil {
		fmt.Fprintf(s.out, "Restart failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Default configuration updated")
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "default"
	}
	return strings.ReplaceAll(humanize.IBytes(uint64(n)), " ", "")
}

// parseConfigArgs applies key=value arguments to a copy of base.
func parseConfigArgs(base *channel.Config, args []string) (*channel.Config, error) {
	cfg := base.Clone()
	if cfg == nil {
		cfg = &channel.Config{}
	}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}

		var err error
		switch strings.ToLower(key) {
		case "read":
			cfg.ReadTimeout, err = time.ParseDuration(value)
		case "write":
			cfg.WriteTimeout, err = time.ParseDuration(value)
		case "maxbody":
			var n uint64
			if n, err = humanize.ParseBytes(value); err == nil {
				cfg.MaxBodySize = int64(n)
			}
		default:
			return nil, fmt.Errorf("unknown key %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}
	return cfg, nil
}

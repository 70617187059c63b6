// Command iotdm-log is a tool for viewing and analyzing IoTDM router event logs.
//
// Event logs are written by iotdm-router when eventLog is set in its
// configuration or the -event-log flag is given.
//
// Usage:
//
//	iotdm-log <command> [flags] <file.ilog>
//
// Commands:
//
//	view     View log file in human-readable format
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	iotdm-log view router.ilog
//
//	# View dispatch decisions of one plugin
//	iotdm-log view -category dispatch -plugin lights router.ilog
//
//	# Show statistics for the HTTP channels
//	iotdm-log stats -protocol http router.ilog
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/opendaylight/iotdm-sub002/cmd/iotdm-log/commands"
	"github.com/opendaylight/iotdm-sub002/pkg/log"
)

const usage = `iotdm-log - IoTDM Router Event Log Analyzer

Usage:
  iotdm-log <command> [flags] <file.ilog>

Commands:
  view     View log file in human-readable format
  stats    Show statistics about the log file

Use "iotdm-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		run("view", "View log file in human-readable format", args, commands.RunView)
	case "stats":
		run("stats", "Show statistics about the log file", args, commands.RunStats)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func run(name, summary string, args []string, fn func(string, log.Filter, io.Writer) error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `iotdm-log %s - %s

Usage:
  iotdm-log %s [flags] <file.ilog>

Flags:
`, name, summary, name)
		fs.PrintDefaults()
	}

	var opts commands.FilterOptions
	fs.StringVar(&opts.Category, "category", "", "Filter by category (registry, dispatch, state, error)")
	fs.StringVar(&opts.Protocol, "protocol", "", "Filter by protocol (http, https, coap, ...)")
	fs.StringVar(&opts.Channel, "channel", "", `Filter by channel (e.g. "http 0.0.0.0:8282")`)
	fs.StringVar(&opts.Plugin, "plugin", "", "Filter by plugin name")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	filter, err := opts.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := fn(fs.Arg(0), filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

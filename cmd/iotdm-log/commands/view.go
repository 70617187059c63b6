// Package commands implements the iotdm-log CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/opendaylight/iotdm-sub002/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [channel] CATEGORY detail
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [%s] %s\n", ts, event.Channel, event.Category)

	switch {
	case event.Registry != nil:
		formatRegistryDetails(w, event.Registry)
	case event.Dispatch != nil:
		formatDispatchDetails(w, event.Dispatch)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

func formatRegistryDetails(w io.Writer, ev *log.RegistryEvent) {
	fmt.Fprintf(w, "  Action: %s\n", ev.Action)
	fmt.Fprintf(w, "  Plugin: %s\n", ev.Plugin)
	if ev.Path != "" {
		fmt.Fprintf(w, "  Path: %s\n", ev.Path)
	}
	if ev.Mode != "" {
		fmt.Fprintf(w, "  Mode: %s\n", ev.Mode)
	}
	if ev.Owner != "" {
		fmt.Fprintf(w, "  Owner: %s\n", ev.Owner)
	}
	if ev.Occurrences > 0 {
		fmt.Fprintf(w, "  Occurrences: %d\n", ev.Occurrences)
	}
}

func formatDispatchDetails(w io.Writer, ev *log.DispatchEvent) {
	fmt.Fprintf(w, "  Request: %s %s (%s)\n", ev.Method, ev.URI, ev.RequestID)
	plugin := ev.Plugin
	if plugin == "" {
		plugin = "-"
	}
	fmt.Fprintf(w, "  Plugin: %s  Status: %d\n", plugin, ev.Status)
	if ev.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", ev.RemoteAddr)
	}
	if ev.ProcessingTime != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*ev.ProcessingTime))
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// RunView prints the events of path that match filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}

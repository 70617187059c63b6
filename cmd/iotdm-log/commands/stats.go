package commands

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/opendaylight/iotdm-sub002/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Channels         map[string]*ChannelStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// ChannelStats holds statistics for a single channel.
type ChannelStats struct {
	FirstSeen     time.Time
	LastSeen      time.Time
	Events        int
	Registrations int
	Removals      int
	Conflicts     int
	Requests      int
	NotFound      int
	Plugins       map[string]int
}

// Collect reads the events of path that match filter and aggregates them.
func Collect(path string, filter log.Filter) (*Stats, error) {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Channels:         make(map[string]*ChannelStats),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	ch, ok := s.Channels[event.Channel]
	if !ok {
		ch = &ChannelStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
			Plugins:   make(map[string]int),
		}
		s.Channels[event.Channel] = ch
	}
	ch.Events++
	if event.Timestamp.After(ch.LastSeen) {
		ch.LastSeen = event.Timestamp
	}

	switch {
	case event.Registry != nil:
		switch event.Registry.Action {
		case log.ActionRegister:
			ch.Registrations++
		case log.ActionUnregister, log.ActionUnregisterAll:
			ch.Removals++
		case log.ActionConflict, log.ActionReject:
			ch.Conflicts++
		}
	case event.Dispatch != nil:
		ch.Requests++
		if event.Dispatch.Plugin == "" {
			ch.NotFound++
		} else {
			ch.Plugins[event.Dispatch.Plugin]++
		}
	case event.Error != nil:
		s.Errors++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, filter log.Filter, w io.Writer) error {
	stats, err := Collect(path, filter)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== IoTDM Router Event Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryRegistry, log.CategoryDispatch, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Channels: %d\n", len(stats.Channels))
	names := make([]string, 0, len(stats.Channels))
	for name := range stats.Channels {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cs := stats.Channels[name]
		label := name
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(w, "  [%s] %d events\n", label, cs.Events)
		if cs.Registrations+cs.Removals+cs.Conflicts > 0 {
			fmt.Fprintf(w, "           Registrations: %d  Removals: %d  Conflicts: %d\n",
				cs.Registrations, cs.Removals, cs.Conflicts)
		}
		if cs.Requests > 0 {
			fmt.Fprintf(w, "           Requests: %d  Not found: %d\n", cs.Requests, cs.NotFound)
			plugins := make([]string, 0, len(cs.Plugins))
			for p := range cs.Plugins {
				plugins = append(plugins, p)
			}
			slices.Sort(plugins)
			for _, p := range plugins {
				fmt.Fprintf(w, "             %s: %d\n", p, cs.Plugins[p])
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

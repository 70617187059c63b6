// Package log provides structured event capture for the IoTDM router.
//
// This package defines the Logger interface and Event types for recording
// what the dispatch layer does: plugin registrations and removals on channel
// registries, request dispatch decisions, and channel state changes. It is
// separate from operational logging (slog) - event capture produces a
// machine-readable trace that can be replayed and filtered afterwards.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	opts.Events = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	opts.Events, _ = log.NewFileLogger("/var/log/iotdm/router.ilog")
//
//	// Both: use MultiLogger
//	opts.Events = log.NewMultiLogger(console, file)
//
// # File Format
//
// Event files are a stream of CBOR encoded events with integer keys
// (.ilog extension). The iotdm-log command views and summarises them.
package log

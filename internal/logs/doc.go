// Package logs provides file tailing helpers for the daemon log.
//
// It reads log files with bounded memory usage, supports negative offsets
// for "tail last N lines" operations, and powers follow-mode updates for
// `torrup logs --follow`. Callers supply context deadlines so polling shuts
// down cleanly when the CLI exits.
package logs

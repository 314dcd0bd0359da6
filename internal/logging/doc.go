// Package logging provides slog construction helpers and a compact console
// handler shared by the daemon and CLI.
package logging

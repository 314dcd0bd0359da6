// Package queue persists upload queue items, library roots, and runtime
// settings in SQLite.
//
// The store serializes all access through database/sql with WAL journaling
// and a busy timeout. Item timestamps are stored as RFC 3339 UTC strings so
// window queries (monthly activity, trailing pace) can compare
// lexicographically.
package queue

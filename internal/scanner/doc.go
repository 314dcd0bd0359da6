// Package scanner discovers new releases under the configured media roots
// and enqueues the ones the tracker does not have yet.
package scanner

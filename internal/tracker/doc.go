// Package tracker wraps the remote tracker's search, upload, and download
// API behind a small client interface.
package tracker

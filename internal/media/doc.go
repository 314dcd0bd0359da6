// Package media defines the supported media types, their tracker category
// tables, and best-effort metadata extraction from tags and NFO sidecars.
package media

// Package release turns extracted metadata into tracker-safe release names
// and natural search queries.
package release

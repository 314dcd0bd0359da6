package release

import (
	"path/filepath"
	"strings"

	"torrup/internal/media"
)

// SearchQuery builds a natural-language query for remote duplicate checks.
// Tracker search wants plain terms such as "Pink Floyd Animals", not a
// formatted release name, so raw metadata is used with a folder name
// fallback.
func SearchQuery(meta media.Metadata, mediaType media.Type, path string, isDir bool) string {
	if mediaType == media.TypeMusic {
		artist := strings.TrimSpace(meta.Artist)
		album := strings.TrimSpace(meta.Album)
		switch {
		case artist != "" && album != "":
			return artist + " " + album
		case album != "":
			return album
		case artist != "":
			return artist
		}
	} else if title := strings.TrimSpace(meta.Title); title != "" {
		return title
	}

	base := filepath.Base(path)
	if !isDir {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.TrimSpace(base)
}

// IsExcluded reports whether any path element matches an excluded directory
// name, compared case-insensitively.
func IsExcluded(path string, excludes []string) bool {
	parts := map[string]struct{}{}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "" {
			parts[strings.ToLower(part)] = struct{}{}
		}
	}
	for _, exclude := range excludes {
		exclude = strings.ToLower(strings.TrimSpace(exclude))
		if exclude == "" {
			continue
		}
		if _, ok := parts[exclude]; ok {
			return true
		}
	}
	return false
}

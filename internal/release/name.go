package release

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"torrup/internal/media"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_\s]`)

// Sanitize cleans a release name for torrent naming. Path separators and
// traversal sequences are collapsed, unsafe characters stripped, and spaces
// replaced with dots.
func Sanitize(name string) string {
	if name == "" {
		return "unnamed"
	}
	name = strings.ReplaceAll(name, "/", ".")
	name = strings.ReplaceAll(name, "\\", ".")
	name = strings.ReplaceAll(name, "..", ".")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", ".")
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	if name == "" {
		return "unnamed"
	}
	return name
}

// Generate builds a formatted release name from extracted metadata.
//
// Music follows Artist-Album-Year-Source-Format-Bitrate-Group with missing
// artist and album defaulting to Unknown and a missing year omitted. Other
// types use Title.Year-Group. Segments are individually sanitized so the
// result is safe for torrent and file naming.
func Generate(meta media.Metadata, mediaType media.Type, group string) string {
	group = strings.TrimSpace(group)
	if group == "" {
		group = "torrup"
	}

	if mediaType == media.TypeMusic {
		artist := firstNonEmpty(meta.Artist, meta.AlbumArtist, "Unknown Artist")
		album := firstNonEmpty(meta.Album, "Unknown Album")
		source := firstNonEmpty(meta.Source, "WEB")
		format := firstNonEmpty(meta.Format, "MP3")
		bitrate := firstNonEmpty(meta.Bitrate, "320")

		segments := []string{Sanitize(artist), Sanitize(album)}
		if year := strings.TrimSpace(meta.Year); year != "" {
			segments = append(segments, Sanitize(year))
		}
		segments = append(segments, Sanitize(source), Sanitize(format), Sanitize(bitrate), Sanitize(group))
		return strings.Join(segments, "-")
	}

	title := firstNonEmpty(meta.Title, "Unknown")
	name := Sanitize(title)
	if year := strings.TrimSpace(meta.Year); year != "" {
		name += "." + Sanitize(year)
	}
	return name + "-" + Sanitize(group)
}

// Suggest derives a release name from the path itself, used when metadata is
// too sparse for Generate to produce anything meaningful. Separator runs in
// the base name become spaces and each word is title cased before the
// standard sanitization.
func Suggest(path string, isDir bool) string {
	base := filepath.Base(path)
	if !isDir {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "unnamed"
	}
	return Sanitize(cases.Title(language.Und).String(title))
}

// NeedsFallback reports whether a generated name is too weak to publish and
// the path-derived suggestion should be used instead.
func NeedsFallback(name string) bool {
	return name == "" || name == "unnamed" || strings.Contains(name, "Unknown")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

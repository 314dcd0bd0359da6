package media

import (
	"fmt"
	"strings"
)

// Type identifies the media category a queue item belongs to. It drives
// directory scanning depth, metadata extraction, release naming, and the
// tracker category tables.
type Type string

const (
	TypeMusic     Type = "music"
	TypeMovies    Type = "movies"
	TypeTV        Type = "tv"
	TypeBooks     Type = "books"
	TypeMagazines Type = "magazines"
)

// Types lists every supported media type in display order.
func Types() []Type {
	return []Type{TypeMusic, TypeMovies, TypeTV, TypeBooks, TypeMagazines}
}

// ParseType validates a media type string.
func ParseType(value string) (Type, error) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case TypeMusic, TypeMovies, TypeTV, TypeBooks, TypeMagazines:
		return normalized, nil
	default:
		return "", fmt.Errorf("unknown media type %q", value)
	}
}

// IsVideo reports whether the type carries video content.
func (t Type) IsVideo() bool {
	return t == TypeMovies || t == TypeTV
}

// Metadata holds everything harvested from tags, NFO sidecars, and probes.
// Fields are left empty when nothing could be extracted; consumers treat
// every field as best effort.
type Metadata struct {
	// Shared.
	Title       string
	Year        string
	Description string

	// Movies and TV cross references.
	IMDB       string
	TVMazeID   string
	TVMazeType string
	Show       string
	Season     string
	Episode    string

	// Music.
	Artist      string
	AlbumArtist string
	Album       string
	Track       string
	Genre       string
	Label       string
	Catalog     string
	Composer    string
	Format      string
	Bitrate     string
	Channels    string
	SampleRate  string
	BitDepth    string
	Source      string
	Encoder     string

	// Extracted album art, filled in after preview extraction.
	AlbumArtName string
	AlbumArtSize string

	// Books and magazines.
	Author    string
	Publisher string
	ISBN      string
}

// IsZero reports whether nothing at all was extracted.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Merge fills empty fields of m from other without overwriting values that
// are already present.
func (m *Metadata) Merge(other Metadata) {
	fields := []struct {
		dst *string
		src string
	}{
		{&m.Title, other.Title},
		{&m.Year, other.Year},
		{&m.Description, other.Description},
		{&m.IMDB, other.IMDB},
		{&m.TVMazeID, other.TVMazeID},
		{&m.TVMazeType, other.TVMazeType},
		{&m.Show, other.Show},
		{&m.Season, other.Season},
		{&m.Episode, other.Episode},
		{&m.Artist, other.Artist},
		{&m.AlbumArtist, other.AlbumArtist},
		{&m.Album, other.Album},
		{&m.Track, other.Track},
		{&m.Genre, other.Genre},
		{&m.Label, other.Label},
		{&m.Catalog, other.Catalog},
		{&m.Composer, other.Composer},
		{&m.Format, other.Format},
		{&m.Bitrate, other.Bitrate},
		{&m.Channels, other.Channels},
		{&m.SampleRate, other.SampleRate},
		{&m.BitDepth, other.BitDepth},
		{&m.Source, other.Source},
		{&m.Encoder, other.Encoder},
		{&m.AlbumArtName, other.AlbumArtName},
		{&m.AlbumArtSize, other.AlbumArtSize},
		{&m.Author, other.Author},
		{&m.Publisher, other.Publisher},
		{&m.ISBN, other.ISBN},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.dst) == "" && strings.TrimSpace(field.src) != "" {
			*field.dst = field.src
		}
	}
}

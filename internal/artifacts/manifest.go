package artifacts

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"torrup/internal/media"
)

// ManifestInput carries everything recorded in the XML sidecar.
type ManifestInput struct {
	ReleaseName string
	MediaType   media.Type
	SourcePath  string
	SizeBytes   int64
	TorrentPath string
	NFOPath     string
	ThumbPath   string
	Tags        string
	Metadata    media.Metadata
}

type manifestDoc struct {
	XMLName     xml.Name `xml:"tlt"`
	ReleaseName string   `xml:"release_name"`
	MediaType   string   `xml:"media_type"`
	Path        string   `xml:"path"`
	SizeBytes   int64    `xml:"size_bytes"`
	SizeHuman   string   `xml:"size_human"`
	TorrentPath string   `xml:"torrent_path"`
	NFOPath     string   `xml:"nfo_path"`
	ThumbPath   string   `xml:"thumb_path,omitempty"`
	Tags        string   `xml:"tags"`
	CreatedAt   string   `xml:"created_at"`

	Metadata *manifestMetadata `xml:"metadata,omitempty"`
}

type manifestMetadata struct {
	Title      string `xml:"title,omitempty"`
	Year       string `xml:"year,omitempty"`
	IMDB       string `xml:"imdb,omitempty"`
	TVMazeID   string `xml:"tvmazeid,omitempty"`
	Artist     string `xml:"artist,omitempty"`
	Album      string `xml:"album,omitempty"`
	Genre      string `xml:"genre,omitempty"`
	Format     string `xml:"format,omitempty"`
	Bitrate    string `xml:"bitrate,omitempty"`
	SampleRate string `xml:"sample_rate,omitempty"`
	BitDepth   string `xml:"bit_depth,omitempty"`
	Author     string `xml:"author,omitempty"`
	Publisher  string `xml:"publisher,omitempty"`
	ISBN       string `xml:"isbn,omitempty"`
}

// BuildManifest writes the XML sidecar describing a prepared upload and
// returns the written path.
func (b *Builder) BuildManifest(input ManifestInput, outDir string) (string, error) {
	doc := manifestDoc{
		ReleaseName: input.ReleaseName,
		MediaType:   string(input.MediaType),
		Path:        input.SourcePath,
		SizeBytes:   input.SizeBytes,
		SizeHuman:   HumanSize(input.SizeBytes),
		TorrentPath: input.TorrentPath,
		NFOPath:     input.NFOPath,
		ThumbPath:   input.ThumbPath,
		Tags:        input.Tags,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if !input.Metadata.IsZero() {
		doc.Metadata = &manifestMetadata{
			Title:      input.Metadata.Title,
			Year:       input.Metadata.Year,
			IMDB:       input.Metadata.IMDB,
			TVMazeID:   input.Metadata.TVMazeID,
			Artist:     input.Metadata.Artist,
			Album:      input.Metadata.Album,
			Genre:      input.Metadata.Genre,
			Format:     input.Metadata.Format,
			Bitrate:    input.Metadata.Bitrate,
			SampleRate: input.Metadata.SampleRate,
			BitDepth:   input.Metadata.BitDepth,
			Author:     input.Metadata.Author,
			Publisher:  input.Metadata.Publisher,
			ISBN:       input.Metadata.ISBN,
		}
	}

	payload, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	payload = append([]byte(xml.Header), payload...)

	outPath := filepath.Join(outDir, input.ReleaseName+".xml")
	if err := os.WriteFile(outPath, payload, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return outPath, nil
}

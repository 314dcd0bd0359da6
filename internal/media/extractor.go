package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"torrup/internal/logging"
)

// Extractor harvests metadata from a release path. Implementations are best
// effort: a failed probe yields partial or empty metadata, never an error
// that should fail the item.
type Extractor interface {
	Extract(ctx context.Context, path string, mediaType Type) (Metadata, error)
}

var commandContext = exec.CommandContext

var (
	imdbPattern   = regexp.MustCompile(`tt\d{7,9}`)
	tvmazePattern = regexp.MustCompile(`tvmaze\.com/shows/(\d+)`)
)

// ExifTool extracts tags with the exiftool binary and fills audio details
// from ffprobe when exiftool leaves gaps. NFO sidecars are scanned for
// IMDB and TVMaze ids before any probe runs.
type ExifTool struct {
	Binary        string
	FFProbeBinary string

	logger *slog.Logger
}

// NewExifTool builds an extractor with default binary names.
func NewExifTool(logger *slog.Logger) *ExifTool {
	return &ExifTool{
		Binary:        "exiftool",
		FFProbeBinary: "ffprobe",
		logger:        logging.WithComponent(logger, "metadata"),
	}
}

// Extract implements Extractor.
func (e *ExifTool) Extract(ctx context.Context, path string, mediaType Type) (Metadata, error) {
	var meta Metadata
	meta.Merge(harvestNFOIDs(path))

	target := PrimaryFile(path, mediaType)
	if target == "" {
		return meta, nil
	}

	binary := e.Binary
	if strings.TrimSpace(binary) == "" {
		binary = "exiftool"
	}
	if _, err := exec.LookPath(binary); err != nil {
		e.logger.Warn("exiftool not installed, metadata extraction limited")
		return meta, nil
	}

	raw, err := e.runExifTool(ctx, binary, target)
	if err != nil {
		e.logger.Warn("exiftool probe failed", logging.Error(err), logging.String("path", target))
	} else {
		meta.Merge(normalizeTags(raw, mediaType))
		if mediaType == TypeMusic {
			meta.Merge(audioPropsFromTags(raw))
		}
	}

	if mediaType == TypeMusic {
		meta.Merge(e.audioPropsFromFFProbe(ctx, target))
	}

	return meta, nil
}

func (e *ExifTool) runExifTool(ctx context.Context, binary, target string) (map[string]any, error) {
	cmd := commandContext(ctx, binary, "-json", "-n", target) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	var payload []map[string]any
	if err := json.Unmarshal(output, &payload); err != nil {
		return nil, fmt.Errorf("exiftool parse: %w", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("exiftool: empty result")
	}
	return payload[0], nil
}

// harvestNFOIDs scans sidecar .nfo files for IMDB and TVMaze references.
func harvestNFOIDs(path string) Metadata {
	var nfoFiles []string
	if info, err := os.Stat(path); err == nil {
		switch {
		case info.Mode().IsRegular() && strings.EqualFold(filepath.Ext(path), ".nfo"):
			nfoFiles = append(nfoFiles, path)
		case info.IsDir():
			entries, err := os.ReadDir(path)
			if err == nil {
				for _, entry := range entries {
					if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".nfo") {
						nfoFiles = append(nfoFiles, filepath.Join(path, entry.Name()))
					}
				}
			}
		}
	}

	var meta Metadata
	for _, nfo := range nfoFiles {
		content, err := os.ReadFile(nfo)
		if err != nil {
			continue
		}
		if meta.IMDB == "" {
			if match := imdbPattern.FindString(string(content)); match != "" {
				meta.IMDB = match
			}
		}
		if meta.TVMazeID == "" {
			if match := tvmazePattern.FindStringSubmatch(string(content)); match != nil {
				meta.TVMazeID = match[1]
			}
		}
	}
	return meta
}

func normalizeTags(raw map[string]any, mediaType Type) Metadata {
	var meta Metadata
	switch mediaType {
	case TypeMovies, TypeTV:
		meta.Title = tagString(raw, "Title", "MovieName")
		meta.Year = tagYear(raw)
		meta.Description = tagString(raw, "Description", "Comment")
		meta.IMDB = tagString(raw, "IMDB", "IMDB_ID")
		meta.TVMazeID = tagString(raw, "TVMAZE_ID", "TVMazeID")
		if mediaType == TypeTV {
			meta.Show = tagString(raw, "TVShow", "Album")
			meta.Season = tagString(raw, "TVSeason", "SeasonNumber")
			meta.Episode = tagString(raw, "TVEpisode", "EpisodeNumber")
		}
	case TypeMusic:
		meta.Artist = tagString(raw, "Artist", "AlbumArtist")
		meta.AlbumArtist = tagString(raw, "AlbumArtist", "Band")
		meta.Album = tagString(raw, "Album")
		meta.Track = tagString(raw, "Title", "Track")
		meta.Year = tagString(raw, "Year")
		meta.Genre = tagString(raw, "Genre")
		meta.Label = tagString(raw, "RecordLabel", "Label", "Publisher")
		meta.Catalog = tagString(raw, "CatalogNumber", "CatalogNo")
		meta.Composer = tagString(raw, "Composer")
	case TypeBooks, TypeMagazines:
		meta.Title = tagString(raw, "Title")
		meta.Author = tagString(raw, "Author", "Creator")
		meta.Publisher = tagString(raw, "Publisher")
		meta.ISBN = tagString(raw, "ISBN")
		if created := tagString(raw, "CreateDate"); len(created) >= 4 {
			meta.Year = created[:4]
		}
	}
	return meta
}

// audioPropsFromTags derives release-relevant audio properties from exiftool
// output. Defaults assume a web-sourced stereo MP3 when tags are silent.
func audioPropsFromTags(raw map[string]any) Metadata {
	meta := Metadata{Format: "MP3", Bitrate: "320", Channels: "2.0", Source: "WEB"}

	fileType := strings.ToUpper(tagString(raw, "FileType"))
	switch fileType {
	case "FLAC", "MP3", "OGG", "OPUS", "M4A", "WAV":
		meta.Format = fileType
	}

	if meta.Format == "FLAC" {
		bits := tagInt(raw, 16, "BitsPerSample", "BitDepth")
		if bits > 16 {
			meta.Bitrate = "24bit"
		} else {
			meta.Bitrate = "16bit"
		}
	} else {
		rate := tagInt(raw, 320000, "AudioBitrate", "BitRate")
		switch {
		case rate >= 320000:
			meta.Bitrate = "320"
		case rate >= 256000:
			meta.Bitrate = "V0"
		default:
			meta.Bitrate = "V2"
		}
	}

	switch tagInt(raw, 2, "Channels") {
	case 1:
		meta.Channels = "1.0"
	case 2:
		meta.Channels = "2.0"
	case 6:
		meta.Channels = "5.1"
	case 8:
		meta.Channels = "7.1"
	default:
		meta.Channels = strconv.Itoa(tagInt(raw, 2, "Channels"))
	}

	if rate := tagFloat(raw, "SampleRate", "AudioSampleRate"); rate > 0 {
		if rate >= 1000 {
			meta.SampleRate = strconv.FormatFloat(rate/1000, 'f', 1, 64) + " kHz"
		} else {
			meta.SampleRate = strconv.FormatFloat(rate, 'f', 0, 64) + " Hz"
		}
	}
	if bits := tagInt(raw, 0, "BitsPerSample", "BitDepth"); bits > 0 {
		meta.BitDepth = strconv.Itoa(bits)
	}
	meta.Encoder = tagString(raw, "Encoder", "EncodedBy", "Tool")

	return meta
}

// audioPropsFromFFProbe fills gaps exiftool missed by probing the audio
// stream directly. Failures are silent.
func (e *ExifTool) audioPropsFromFFProbe(ctx context.Context, target string) Metadata {
	binary := e.FFProbeBinary
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return Metadata{}
	}

	cmd := commandContext(ctx, binary, "-v", "error", "-show_streams", "-select_streams", "a:0", "-of", "json", "--", target) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return Metadata{}
	}

	var probe struct {
		Streams []struct {
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			BitRate    string `json:"bit_rate"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(output, &probe); err != nil || len(probe.Streams) == 0 {
		return Metadata{}
	}

	stream := probe.Streams[0]
	var meta Metadata
	if codec := strings.ToUpper(stream.CodecName); codec != "" {
		meta.Format = codec
	}
	if stream.Channels == 1 {
		meta.Channels = "1.0"
	} else if stream.Channels == 2 {
		meta.Channels = "2.0"
	}
	if rate, err := strconv.ParseFloat(stream.SampleRate, 64); err == nil && rate >= 1000 {
		meta.SampleRate = strconv.FormatFloat(rate/1000, 'f', 1, 64) + " kHz"
	}
	return meta
}

func tagYear(raw map[string]any) string {
	if year := tagString(raw, "Year"); year != "" {
		return year
	}
	if created := tagString(raw, "ContentCreateDate", "CreateDate"); len(created) >= 4 {
		return created[:4]
	}
	return ""
}

func tagString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key]; ok {
			switch v := value.(type) {
			case string:
				if trimmed := strings.TrimSpace(v); trimmed != "" {
					return trimmed
				}
			case float64:
				if v == float64(int64(v)) {
					return strconv.FormatInt(int64(v), 10)
				}
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
	}
	return ""
}

func tagInt(raw map[string]any, fallback int, keys ...string) int {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			return int(v)
		case string:
			digits := strings.Map(func(r rune) rune {
				if r >= '0' && r <= '9' {
					return r
				}
				return -1
			}, v)
			if parsed, err := strconv.Atoi(digits); err == nil {
				return parsed
			}
		}
	}
	return fallback
}

func tagFloat(raw map[string]any, keys ...string) float64 {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			return v
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

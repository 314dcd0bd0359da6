package artifacts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"torrup/internal/logging"
	"torrup/internal/media"
	"torrup/internal/services"
)

const lineWidth = 80

var mediaInfoExtensions = map[string]bool{
	".flac": true, ".mp3": true, ".m4a": true,
	".mkv": true, ".mp4": true, ".avi": true, ".m4v": true,
}

// BuildDescription writes the NFO text file for a release and returns the
// written path. Technical details come from mediainfo when available.
func (b *Builder) BuildDescription(ctx context.Context, sourcePath, releaseName string, mediaType media.Type, group string, meta media.Metadata, outDir string) (string, error) {
	size, err := PathSize(sourcePath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "artifacts", "nfo", "measure source", err)
	}
	fileCount, err := countFiles(sourcePath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "artifacts", "nfo", "count files", err)
	}

	var body strings.Builder
	rule := strings.Repeat("=", lineWidth)
	body.WriteString(rule + "\n")
	body.WriteString(center(releaseName) + "\n")
	body.WriteString(rule + "\n\n")

	writeField(&body, "Release Name", releaseName)
	writeField(&body, "Release Group", group)
	writeField(&body, "Media Type", string(mediaType))
	writeField(&body, "Files", fmt.Sprintf("%d", fileCount))
	writeField(&body, "Total Size", HumanSize(size))
	writeField(&body, "Created", time.Now().Format("2006-01-02 15:04:05"))

	if section := metadataSection(mediaType, meta); section != "" {
		writeSection(&body, "METADATA", section)
	}
	if mediaType == media.TypeMusic {
		if art := albumArtSection(meta); art != "" {
			writeSection(&body, "ALBUM ART", art)
		}
	}

	mediaInfo := b.mediaInfoReport(ctx, sourcePath)
	if mediaInfo == "" {
		mediaInfo = "  No media info available"
	}
	writeSection(&body, "MEDIA INFO", mediaInfo)

	outPath := filepath.Join(outDir, releaseName+".nfo")
	if err := os.WriteFile(outPath, []byte(body.String()), 0o644); err != nil {
		return "", fmt.Errorf("write nfo: %w", err)
	}
	return outPath, nil
}

func center(text string) string {
	if len(text) >= lineWidth {
		return text
	}
	pad := (lineWidth - len(text)) / 2
	return strings.Repeat(" ", pad) + text
}

func writeField(body *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(body, "  %-15s: %s\n", label, value)
}

func writeSection(body *strings.Builder, title, content string) {
	rule := strings.Repeat("-", lineWidth)
	body.WriteString("\n" + rule + "\n")
	body.WriteString(center(title) + "\n")
	body.WriteString(rule + "\n")
	body.WriteString(strings.TrimRight(content, "\n") + "\n")
}

// metadataSection renders the extracted metadata fields relevant to the
// media type, skipping everything that was not populated.
func metadataSection(mediaType media.Type, meta media.Metadata) string {
	var section strings.Builder

	switch mediaType {
	case media.TypeMusic:
		writeField(&section, "Artist", meta.Artist)
		if meta.AlbumArtist != "" && meta.AlbumArtist != meta.Artist {
			writeField(&section, "Album Artist", meta.AlbumArtist)
		}
		writeField(&section, "Album", meta.Album)
		writeField(&section, "Track", meta.Track)
		writeField(&section, "Year", meta.Year)
		writeField(&section, "Genre", meta.Genre)
		writeField(&section, "Label", meta.Label)
		writeField(&section, "Catalog", meta.Catalog)
		writeField(&section, "Composer", meta.Composer)
		writeField(&section, "Format", meta.Format)
		writeField(&section, "Bitrate", meta.Bitrate)
		writeField(&section, "Sample Rate", meta.SampleRate)
		if meta.BitDepth != "" {
			writeField(&section, "Bit Depth", meta.BitDepth+" bit")
		}
		writeField(&section, "Channels", meta.Channels)
		writeField(&section, "Encoder", meta.Encoder)
	case media.TypeMovies, media.TypeTV:
		writeField(&section, "Title", meta.Title)
		writeField(&section, "Year", meta.Year)
		if desc := meta.Description; desc != "" {
			if len(desc) > 100 {
				desc = desc[:100] + "..."
			}
			writeField(&section, "Description", desc)
		}
		if mediaType == media.TypeTV {
			writeField(&section, "Show", meta.Show)
			writeField(&section, "Season", meta.Season)
			writeField(&section, "Episode", meta.Episode)
		}
		writeField(&section, "IMDB", meta.IMDB)
		writeField(&section, "TVMaze ID", meta.TVMazeID)
	case media.TypeBooks, media.TypeMagazines:
		writeField(&section, "Title", meta.Title)
		writeField(&section, "Author", meta.Author)
		writeField(&section, "Publisher", meta.Publisher)
		writeField(&section, "Year", meta.Year)
		writeField(&section, "ISBN", meta.ISBN)
	}
	return section.String()
}

// albumArtSection reports the artwork file extracted alongside the release.
func albumArtSection(meta media.Metadata) string {
	if meta.AlbumArtName == "" {
		return ""
	}
	value := meta.AlbumArtName
	if meta.AlbumArtSize != "" {
		value += ", " + meta.AlbumArtSize
	}
	var section strings.Builder
	writeField(&section, "Extracted Art", value)
	return section.String()
}

// mediaInfoReport runs mediainfo against the first media file found and
// strips lines that would leak local filesystem paths. Any failure yields
// an empty report.
func (b *Builder) mediaInfoReport(ctx context.Context, sourcePath string) string {
	target := firstMediaFile(sourcePath)
	if target == "" {
		return ""
	}
	if _, err := exec.LookPath(b.mediaInfoBinary); err != nil {
		b.logger.Debug("mediainfo not installed, skipping report")
		return ""
	}

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := commandContext(runCtx, b.mediaInfoBinary, target) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		b.logger.Warn("mediainfo failed", logging.Error(err))
		return ""
	}
	return filterPathLines(output)
}

func firstMediaFile(sourcePath string) string {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return ""
	}
	if !info.IsDir() {
		if mediaInfoExtensions[strings.ToLower(filepath.Ext(sourcePath))] {
			return sourcePath
		}
		return ""
	}

	var found string
	filepath.WalkDir(sourcePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if found != "" {
			return filepath.SkipAll
		}
		if entry.Type().IsRegular() && mediaInfoExtensions[strings.ToLower(filepath.Ext(path))] {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func filterPathLines(output []byte) string {
	var kept []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 64<<10), 64<<10)
	for scanner.Scan() {
		line := scanner.Text()
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, "complete name") ||
			strings.HasPrefix(lower, "file name") ||
			strings.HasPrefix(lower, "folder name") {
			continue
		}
		if strings.Contains(line, " : /") || strings.Contains(line, ` : C:\`) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func countFiles(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 1, nil
	}
	count := 0
	err = filepath.WalkDir(path, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() {
			count++
		}
		return nil
	})
	return count, err
}

package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"torrup/internal/logging"
	"torrup/internal/media"
)

// ExtractPreview pulls a preview image for the release: a frame roughly ten
// percent into the video for movies and tv, or the embedded album art for
// music. Extraction is best effort; any failure returns an empty path.
func (b *Builder) ExtractPreview(ctx context.Context, sourcePath, releaseName string, mediaType media.Type, outDir string) string {
	target := media.PrimaryFile(sourcePath, mediaType)
	if target == "" {
		return ""
	}
	if _, err := exec.LookPath(b.ffmpegBinary); err != nil {
		b.logger.Debug("ffmpeg not installed, skipping preview")
		return ""
	}

	outPath := filepath.Join(outDir, releaseName+".jpg")
	switch {
	case mediaType.IsVideo():
		b.extractFrame(ctx, target, outPath)
	case mediaType == media.TypeMusic:
		b.extractAlbumArt(ctx, target, outPath)
	default:
		return ""
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return ""
	}
	return outPath
}

func (b *Builder) extractFrame(ctx context.Context, videoPath, outPath string) {
	seek := b.seekOffset(ctx, videoPath)

	runCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	cmd := commandContext(runCtx, b.ffmpegBinary, "-y",
		"-ss", seek,
		"-i", videoPath,
		"-vframes", "1",
		"-vf", "scale=320:-1",
		"-q:v", "2",
		outPath,
	) //nolint:gosec
	if err := cmd.Run(); err != nil {
		b.logger.Debug("frame extraction failed", logging.Error(err))
	}
}

// seekOffset probes the duration and targets ten percent in, falling back
// to thirty seconds when the probe fails.
func (b *Builder) seekOffset(ctx context.Context, videoPath string) string {
	const fallback = "00:00:30"

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := commandContext(runCtx, b.ffprobeBinary, "-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath,
	) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return fallback
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		return fallback
	}
	var duration float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &duration); err != nil || duration <= 0 {
		return fallback
	}

	seconds := int(duration * 0.1)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

func (b *Builder) extractAlbumArt(ctx context.Context, audioPath, outPath string) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := commandContext(runCtx, b.ffmpegBinary, "-y",
		"-i", audioPath,
		"-an",
		"-vcodec", "mjpeg",
		"-vframes", "1",
		outPath,
	) //nolint:gosec
	if err := cmd.Run(); err != nil {
		b.logger.Debug("album art extraction failed", logging.Error(err))
	}
}

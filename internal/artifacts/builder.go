package artifacts

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"torrup/internal/config"
	"torrup/internal/logging"
)

// sourceTag is embedded in the info dictionary so the tracker can attribute
// the torrent.
const sourceTag = "TorrentLeech.org"

var commandContext = exec.CommandContext

// Builder produces the per-release artifacts in a staging directory.
type Builder struct {
	announceURL string
	announceKey string

	mediaInfoBinary string
	ffmpegBinary    string
	ffprobeBinary   string

	logger *slog.Logger
}

// NewBuilder wires a Builder from configuration.
func NewBuilder(cfg *config.Config, logger *slog.Logger) *Builder {
	return &Builder{
		announceURL:     cfg.Tracker.AnnounceURL,
		announceKey:     cfg.Tracker.AnnounceKey,
		mediaInfoBinary: "mediainfo",
		ffmpegBinary:    "ffmpeg",
		ffprobeBinary:   "ffprobe",
		logger:          logging.WithComponent(logger, "artifacts"),
	}
}

// announce returns the personalized announce endpoint. Without a key the
// bare tracker base is used, which the tracker rejects at seed time but
// keeps test-mode artifacts valid.
func (b *Builder) announce() string {
	base := strings.TrimRight(b.announceURL, "/")
	if strings.TrimSpace(b.announceKey) == "" {
		return base
	}
	return fmt.Sprintf("%s/a/%s/announce", base, b.announceKey)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"torrup/internal/artifacts"
	"torrup/internal/logging"
	"torrup/internal/media"
	"torrup/internal/notifications"
	"torrup/internal/queue"
	"torrup/internal/release"
	"torrup/internal/seeding"
	"torrup/internal/services"
	"torrup/internal/tracker"
)

// Processor drives one queue item through preparation and submission.
type Processor struct {
	store     *queue.Store
	tracker   tracker.Client
	extractor media.Extractor
	builder   *artifacts.Builder
	seeder    seeding.Sink
	notifier  notifications.Service
	outputDir string
	logger    *slog.Logger
}

// NewProcessor wires a Processor. The seeder and notifier may be nil when
// seeding or notifications are not configured.
func NewProcessor(store *queue.Store, trackerClient tracker.Client, extractor media.Extractor, builder *artifacts.Builder, seeder seeding.Sink, notifier notifications.Service, outputDir string, logger *slog.Logger) *Processor {
	if seeder == nil {
		seeder = seeding.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	return &Processor{
		store:     store,
		tracker:   trackerClient,
		extractor: extractor,
		builder:   builder,
		seeder:    seeder,
		notifier:  notifier,
		outputDir: outputDir,
		logger:    logging.WithComponent(logger, "pipeline"),
	}
}

// Process runs the upload pipeline for one item. Item-level failures are
// recorded on the item and do not return an error; only store failures
// propagate so the worker can back off.
func (p *Processor) Process(ctx context.Context, item *queue.Item) error {
	releaseName := release.Sanitize(item.ReleaseName)
	logger := p.logger.With(slog.Int64("item", item.ID), slog.String("release", releaseName))
	logger.Info("processing queue item")

	if _, err := os.Stat(item.SourcePath); err != nil {
		logger.Warn("source path missing", slog.String("path", item.SourcePath))
		return p.store.UpdateStatus(ctx, item.ID, queue.StatusFailed, "Path not found")
	}

	testMode, err := p.store.SettingBool(ctx, queue.SettingTestMode)
	if err != nil {
		return err
	}

	if err := p.store.UpdateStatus(ctx, item.ID, queue.StatusPreparing, "Generating NFO + torrent"); err != nil {
		return err
	}

	if !testMode && p.tracker.Exists(ctx, releaseName, true) {
		logger.Info("exact duplicate on tracker")
		return p.store.UpdateStatus(ctx, item.ID, queue.StatusDuplicate, "Exact match found on TorrentLeech")
	}

	meta, err := p.prepare(ctx, item, releaseName, logger)
	if err != nil {
		logger.Error("preparation failed", logging.Error(err))
		message := "Prepare failed: " + services.SanitizeMessage(err.Error())
		if notifyErr := p.notifier.NotifyUploadFailed(ctx, releaseName, message); notifyErr != nil {
			logger.Warn("failure notification failed", logging.Error(notifyErr))
		}
		return p.store.UpdateStatus(ctx, item.ID, queue.StatusFailed, message)
	}

	if testMode {
		logger.Info("test mode, skipping upload")
		return p.store.UpdateStatus(ctx, item.ID, queue.StatusSuccess, "Test mode - upload skipped")
	}

	if err := p.store.UpdateStatus(ctx, item.ID, queue.StatusUploading, "Uploading to TorrentLeech"); err != nil {
		return err
	}
	return p.upload(ctx, item, meta, logger)
}

// prepare extracts metadata and builds every artifact, persisting the
// artifact paths on the item so a later retry can reuse them.
func (p *Processor) prepare(ctx context.Context, item *queue.Item, releaseName string, logger *slog.Logger) (media.Metadata, error) {
	var meta media.Metadata

	extractMeta, err := p.store.SettingBool(ctx, queue.SettingExtractMetadata)
	if err != nil {
		return meta, err
	}
	if extractMeta {
		extracted, err := p.extractor.Extract(ctx, item.SourcePath, item.MediaType)
		if err != nil {
			logger.Warn("metadata extraction failed", logging.Error(err))
		} else {
			meta = extracted
		}
	}

	extractThumbs, err := p.store.SettingBool(ctx, queue.SettingExtractThumbnails)
	if err != nil {
		return meta, err
	}
	thumbPath := ""
	if extractThumbs {
		thumbPath = p.builder.ExtractPreview(ctx, item.SourcePath, releaseName, item.MediaType, p.outputDir)
	}
	applyAlbumArt(&meta, item.MediaType, thumbPath)

	group, err := p.store.Setting(ctx, queue.SettingReleaseGroup)
	if err != nil {
		return meta, err
	}
	if group == "" {
		group = "torrup"
	}

	nfoPath, err := p.builder.BuildDescription(ctx, item.SourcePath, releaseName, item.MediaType, group, meta, p.outputDir)
	if err != nil {
		return meta, err
	}
	torrentPath, err := p.builder.BuildContainer(ctx, item.SourcePath, releaseName, p.outputDir)
	if err != nil {
		return meta, err
	}
	size, err := artifacts.PathSize(item.SourcePath)
	if err != nil {
		return meta, err
	}
	xmlPath, err := p.builder.BuildManifest(artifacts.ManifestInput{
		ReleaseName: releaseName,
		MediaType:   item.MediaType,
		SourcePath:  item.SourcePath,
		SizeBytes:   size,
		TorrentPath: torrentPath,
		NFOPath:     nfoPath,
		ThumbPath:   thumbPath,
		Tags:        item.Tags,
		Metadata:    meta,
	}, p.outputDir)
	if err != nil {
		return meta, err
	}

	item.TorrentPath = torrentPath
	item.NFOPath = nfoPath
	item.XMLPath = xmlPath
	item.ThumbPath = thumbPath
	if err := p.store.Update(ctx, item); err != nil {
		return meta, err
	}
	logger.Info("preparation complete")
	return meta, nil
}

func (p *Processor) upload(ctx context.Context, item *queue.Item, meta media.Metadata, logger *slog.Logger) error {
	req := tracker.SubmitRequest{
		TorrentPath: item.TorrentPath,
		NFOPath:     item.NFOPath,
		Category:    item.Category,
		Tags:        item.Tags,
	}
	if item.MediaType.IsVideo() {
		req.IMDB = firstNonEmpty(item.IMDB, meta.IMDB)
		req.TVMazeID = firstNonEmpty(item.TVMazeID, meta.TVMazeID)
		req.TVMazeType = firstNonEmpty(item.TVMazeType, meta.TVMazeType)
		if req.TVMazeID != "" && req.TVMazeType == "" {
			// Boxsets are directories, single episodes are files.
			if info, err := os.Stat(item.SourcePath); err == nil && info.IsDir() {
				req.TVMazeType = "1"
			} else {
				req.TVMazeType = "2"
			}
		}
	}

	torrentID, err := p.tracker.Submit(ctx, req)
	if err != nil {
		var message string
		if errors.Is(err, services.ErrExternalTool) {
			logger.Warn("tracker rejected upload", logging.Error(err))
			message = fmt.Sprintf("Upload failed: %v", err)
		} else {
			logger.Error("upload error", logging.Error(err))
			message = "Upload error: " + services.SanitizeMessage(err.Error())
		}
		if notifyErr := p.notifier.NotifyUploadFailed(ctx, item.ReleaseName, message); notifyErr != nil {
			logger.Warn("failure notification failed", logging.Error(notifyErr))
		}
		return p.store.UpdateStatus(ctx, item.ID, queue.StatusFailed, message)
	}

	logger.Info("upload successful", slog.Int64("torrent_id", torrentID))
	item.Status = queue.StatusSuccess
	item.Message = fmt.Sprintf("Uploaded: %d", torrentID)
	if err := p.store.UpdateStatus(ctx, item.ID, item.Status, item.Message); err != nil {
		return err
	}
	if notifyErr := p.notifier.NotifyUploadComplete(ctx, item.ReleaseName, torrentID); notifyErr != nil {
		logger.Warn("success notification failed", logging.Error(notifyErr))
	}

	if err := p.seed(ctx, item, torrentID, logger); err != nil {
		return err
	}

	p.cleanupStaging(item, logger)
	item.ClearArtifacts()
	return p.store.Update(ctx, item)
}

// seed mirrors the tracker's canonical torrent back into qBittorrent. The
// local torrent is a fallback because the tracker may rewrite the info
// dictionary and change the hash.
func (p *Processor) seed(ctx context.Context, item *queue.Item, torrentID int64, logger *slog.Logger) error {
	enabled, err := p.store.SettingBool(ctx, queue.SettingQBTEnabled)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}
	tag, err := p.store.Setting(ctx, queue.SettingQBTTag)
	if err != nil {
		return err
	}

	releaseName := release.Sanitize(item.ReleaseName)
	seedTorrent := item.TorrentPath
	data, err := p.tracker.FetchCanonical(ctx, torrentID)
	if err != nil {
		logger.Warn("canonical torrent download failed, seeding local copy", logging.Error(err))
	} else {
		canonicalPath := filepath.Join(p.outputDir, releaseName+".tl.torrent")
		if writeErr := os.WriteFile(canonicalPath, data, 0o644); writeErr != nil {
			logger.Warn("canonical torrent write failed, seeding local copy", logging.Error(writeErr))
		} else {
			seedTorrent = canonicalPath
		}
	}

	if !p.seeder.Add(ctx, seedTorrent, item.SourcePath, tag) {
		logger.Warn("qbittorrent did not accept the torrent")
	}
	return nil
}

// cleanupStaging removes the per-item artifacts. The output directory is a
// cache, not permanent storage.
func (p *Processor) cleanupStaging(item *queue.Item, logger *slog.Logger) {
	for _, path := range []string{item.TorrentPath, item.NFOPath, item.XMLPath, item.ThumbPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("could not remove staging file",
				slog.String("file", filepath.Base(path)), logging.Error(err))
		}
	}
}

// applyAlbumArt feeds the extracted artwork's name and size back into the
// metadata so the description artifact can report it.
func applyAlbumArt(meta *media.Metadata, mediaType media.Type, thumbPath string) {
	if thumbPath == "" || mediaType != media.TypeMusic {
		return
	}
	meta.AlbumArtName = filepath.Base(thumbPath)
	if info, err := os.Stat(thumbPath); err == nil {
		meta.AlbumArtSize = artifacts.HumanSize(info.Size())
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

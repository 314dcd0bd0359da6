package scanner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"torrup/internal/certainty"
	"torrup/internal/config"
	"torrup/internal/logging"
	"torrup/internal/media"
	"torrup/internal/queue"
	"torrup/internal/release"
	"torrup/internal/tracker"
)

// Scanner periodically walks the configured media roots and enqueues
// releases that are not yet on the tracker.
type Scanner struct {
	store     *queue.Store
	tracker   tracker.Client
	extractor media.Extractor
	logger    *slog.Logger

	searchDelay   time.Duration
	disabledPause time.Duration
	errorPause    time.Duration
	threshold     int
}

// New wires a Scanner from configuration.
func New(cfg *config.Config, store *queue.Store, trackerClient tracker.Client, extractor media.Extractor, logger *slog.Logger) *Scanner {
	searchDelay := time.Duration(cfg.Worker.SearchDelayMillis) * time.Millisecond
	if searchDelay <= 0 {
		searchDelay = 1500 * time.Millisecond
	}
	disabledPause := time.Duration(cfg.Worker.DisabledScanPause) * time.Second
	if disabledPause <= 0 {
		disabledPause = time.Minute
	}
	errorPause := time.Duration(cfg.Worker.ScanErrorInterval) * time.Second
	if errorPause <= 0 {
		errorPause = 5 * time.Minute
	}
	return &Scanner{
		store:         store,
		tracker:       trackerClient,
		extractor:     extractor,
		logger:        logging.WithComponent(logger, "scanner"),
		searchDelay:   searchDelay,
		disabledPause: disabledPause,
		errorPause:    errorPause,
		threshold:     cfg.Policy.ApprovalThreshold,
	}
}

// Run loops until the context is cancelled. The auto-upload toggle and scan
// interval are settings, re-read every cycle, so they can change while the
// daemon is up.
func (s *Scanner) Run(ctx context.Context) {
	s.logger.Info("auto-scan worker started")
	defer s.logger.Info("auto-scan worker stopped")

	for {
		pause, err := s.cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("scan cycle failed", logging.Error(err))
			pause = s.errorPause
		}
		if !sleep(ctx, pause) {
			return
		}
	}
}

// cycle runs one pass over every auto-scan root and returns how long to
// sleep before the next pass.
func (s *Scanner) cycle(ctx context.Context) (time.Duration, error) {
	enabled, err := s.store.SettingBool(ctx, queue.SettingEnableAutoUpload)
	if err != nil {
		return 0, err
	}
	if !enabled {
		return s.disabledPause, nil
	}

	intervalMins, err := s.store.SettingInt(ctx, queue.SettingAutoScanInterval, 60)
	if err != nil {
		return 0, err
	}
	excludes, err := s.store.Excludes(ctx)
	if err != nil {
		return 0, err
	}
	roots, err := s.store.MediaRoots(ctx)
	if err != nil {
		return 0, err
	}

	for _, root := range roots {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if !root.AutoScan {
			continue
		}
		s.logger.Info("scanning media root",
			slog.String("type", string(root.MediaType)), slog.String("path", root.Path))
		if err := s.ScanRoot(ctx, root, excludes); err != nil {
			return 0, err
		}
		if err := s.store.TouchMediaRoot(ctx, root.MediaType, time.Now().UTC()); err != nil {
			return 0, err
		}
	}
	return time.Duration(intervalMins) * time.Minute, nil
}

// ScanRoot walks one media root and enqueues new candidates. A missing root
// directory is not an error; libraries come and go with mounts.
func (s *Scanner) ScanRoot(ctx context.Context, root queue.MediaRoot, excludes []string) error {
	if _, err := os.Stat(root.Path); err != nil {
		return nil
	}

	group, err := s.store.Setting(ctx, queue.SettingReleaseGroup)
	if err != nil {
		return err
	}
	if group == "" {
		group = "torrup"
	}

	for _, entry := range s.candidates(root, excludes) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.processEntry(ctx, root, entry, group); err != nil {
			s.logger.Error("entry failed", slog.String("path", entry), logging.Error(err))
		}
	}
	return nil
}

// candidates lists the directories to consider. Music roots are laid out
// artist/album, so they are walked two levels deep; every other type uses
// the immediate children.
func (s *Scanner) candidates(root queue.MediaRoot, excludes []string) []string {
	entries, err := os.ReadDir(root.Path)
	if err != nil {
		return nil
	}

	var candidates []string
	for _, entry := range entries {
		path := filepath.Join(root.Path, entry.Name())
		if release.IsExcluded(path, excludes) {
			continue
		}
		if root.MediaType != media.TypeMusic {
			candidates = append(candidates, path)
			continue
		}
		if !entry.IsDir() {
			continue
		}
		albums, err := os.ReadDir(path)
		if err != nil {
			continue
		}
		for _, album := range albums {
			albumPath := filepath.Join(path, album.Name())
			if album.IsDir() && !release.IsExcluded(albumPath, excludes) {
				candidates = append(candidates, albumPath)
			}
		}
	}
	return candidates
}

func (s *Scanner) processEntry(ctx context.Context, root queue.MediaRoot, entry, group string) error {
	known, err := s.store.ExistsSourcePath(ctx, entry)
	if err != nil {
		return err
	}
	if known {
		return nil
	}

	meta, err := s.extractor.Extract(ctx, entry, root.MediaType)
	if err != nil {
		s.logger.Warn("metadata extraction failed", slog.String("path", entry), logging.Error(err))
	}

	info, statErr := os.Stat(entry)
	isDir := statErr == nil && info.IsDir()
	query := release.SearchQuery(meta, root.MediaType, entry, isDir)
	if query == "" {
		return nil
	}

	name := release.Generate(meta, root.MediaType, group)
	if release.NeedsFallback(name) {
		name = release.Suggest(entry, isDir)
	}

	if s.tracker.Exists(ctx, query, false) {
		s.logger.Info("release already on tracker", slog.String("query", query))
		_, err := s.store.Insert(ctx, &queue.Item{
			MediaType:   root.MediaType,
			SourcePath:  entry,
			ReleaseName: name,
			Category:    root.DefaultCategory,
			IMDB:        meta.IMDB,
			TVMazeID:    meta.TVMazeID,
			TVMazeType:  meta.TVMazeType,
			Status:      queue.StatusDuplicate,
			Message:     "tracker match for: " + query,
		})
		if err != nil {
			return err
		}
		sleep(ctx, s.searchDelay)
		return nil
	}
	sleep(ctx, s.searchDelay)

	score := certainty.Score(meta, root.MediaType)
	approval := queue.ApprovalApproved
	if !certainty.Approved(score, s.threshold) {
		approval = queue.ApprovalPending
	}

	s.logger.Info("queuing release",
		slog.String("query", query), slog.String("release", name), slog.Int("certainty", score))
	_, err = s.store.Insert(ctx, &queue.Item{
		MediaType:      root.MediaType,
		SourcePath:     entry,
		ReleaseName:    name,
		Category:       root.DefaultCategory,
		IMDB:           meta.IMDB,
		TVMazeID:       meta.TVMazeID,
		TVMazeType:     meta.TVMazeType,
		Status:         queue.StatusQueued,
		CertaintyScore: score,
		ApprovalStatus: approval,
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

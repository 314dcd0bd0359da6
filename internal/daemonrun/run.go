package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"torrup/internal/activity"
	"torrup/internal/artifacts"
	"torrup/internal/config"
	"torrup/internal/deps"
	"torrup/internal/logging"
	"torrup/internal/media"
	"torrup/internal/notifications"
	"torrup/internal/pipeline"
	"torrup/internal/queue"
	"torrup/internal/scanner"
	"torrup/internal/seeding"
	"torrup/internal/tracker"
	"torrup/internal/worker"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the torrup daemon: the upload worker and the discovery scanner
// against a single-instance locked queue store. It blocks until the context
// is cancelled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "torrup.log")},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String("run_id", uuid.NewString()))

	logDependencySnapshot(logger, cfg)

	lockPath := filepath.Join(cfg.Paths.LogDir, "torrupd.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another torrup daemon instance is already running")
	}
	defer lock.Unlock()

	pidPath := filepath.Join(cfg.Paths.LogDir, "torrup.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	trackerClient := tracker.NewClient(cfg, logger)
	extractor := media.NewExifTool(logger)
	builder := artifacts.NewBuilder(cfg, logger)
	seeder := seeding.NewQBittorrent(cfg, logger)
	monitor := activity.NewMonitor(store, notifier, logger)
	processor := pipeline.NewProcessor(store, trackerClient, extractor, builder, seeder, notifier, cfg.Paths.OutputDir, logger)

	uploadWorker := worker.New(cfg, store, processor, monitor, logger)
	discovery := scanner.New(cfg, store, trackerClient, extractor, logger)

	if err := notifier.NotifyDaemonStarted(signalCtx); err != nil {
		logger.Warn("start notification failed", logging.Error(err))
	}
	logger.Info("torrup daemon started", logging.String("lock", lockPath))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		uploadWorker.Run(signalCtx)
	}()
	go func() {
		defer wg.Done()
		discovery.Run(signalCtx)
	}()

	<-signalCtx.Done()
	logger.Info("torrup daemon shutting down")
	wg.Wait()

	if err := notifier.NotifyDaemonStopped(context.Background()); err != nil {
		logger.Warn("stop notification failed", logging.Error(err))
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	attrs := []any{
		logging.Bool("announce_key_present", strings.TrimSpace(cfg.Tracker.AnnounceKey) != ""),
	}
	for _, status := range deps.CheckBinaries(deps.Torrup()) {
		attrs = append(attrs, logging.Bool(strings.ToLower(status.Name)+"_available", status.Available))
	}
	logger.Info("dependency snapshot", attrs...)
}

package worker

import (
	"context"
	"log/slog"
	"time"

	"torrup/internal/activity"
	"torrup/internal/config"
	"torrup/internal/logging"
	"torrup/internal/pipeline"
	"torrup/internal/queue"
)

// Worker drains the queue one item at a time. Items are processed strictly
// in insertion order and never concurrently, so the tracker sees at most
// one upload in flight.
type Worker struct {
	store     *queue.Store
	processor *pipeline.Processor
	monitor   *activity.Monitor
	logger    *slog.Logger

	pollInterval time.Duration
	backoffBase  time.Duration
	backoffMax   time.Duration
}

// New wires a Worker from configuration.
func New(cfg *config.Config, store *queue.Store, processor *pipeline.Processor, monitor *activity.Monitor, logger *slog.Logger) *Worker {
	return &Worker{
		store:        store,
		processor:    processor,
		monitor:      monitor,
		logger:       logging.WithComponent(logger, "worker"),
		pollInterval: secondsOrDefault(cfg.Worker.PollInterval, 2*time.Second),
		backoffBase:  secondsOrDefault(cfg.Worker.BackoffBase, 2*time.Second),
		backoffMax:   secondsOrDefault(cfg.Worker.BackoffMax, 60*time.Second),
	}
}

func secondsOrDefault(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Second
}

// Run processes queue items until the context is cancelled. Errors from the
// store back the loop off exponentially; item-level failures are recorded on
// the items themselves and do not slow the loop down.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("queue worker started")
	defer w.logger.Info("queue worker stopped")

	backoff := w.backoffBase
	for {
		if err := w.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("worker iteration failed", logging.Error(err))
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, w.backoffMax)
			continue
		}
		backoff = w.backoffBase
		if !sleep(ctx, w.pollInterval) {
			return
		}
	}
}

// runOnce picks up the oldest approved item, runs it through the pipeline,
// and refreshes the activity health check afterwards.
func (w *Worker) runOnce(ctx context.Context) error {
	item, err := w.store.NextQueuedApproved(ctx)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}

	if err := w.processor.Process(ctx, item); err != nil {
		return err
	}

	if w.monitor != nil {
		if err := w.monitor.CheckAndNotify(ctx); err != nil {
			w.logger.Warn("activity check failed", logging.Error(err))
		}
	}
	return nil
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

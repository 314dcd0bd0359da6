package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"torrup/internal/logging"
	"torrup/internal/notifications"
	"torrup/internal/queue"
)

const defaultMinimumUploads = 10

// Health is a snapshot of upload activity for the current month.
type Health struct {
	Uploads       int
	Queued        int
	Minimum       int
	Projected     int
	Needed        int
	Critical      bool
	Enforce       bool
	DaysRemaining int

	// Pace is the average uploads per day over the trailing seven days,
	// nil when nothing was uploaded in that window.
	Pace *float64
}

// MonthCount pairs a month in YYYY-MM form with its upload count.
type MonthCount struct {
	Month   string
	Uploads int
}

// MonthBounds returns the UTC half-open interval [start, end) covering the
// month containing now.
func MonthBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// DaysRemaining returns how many days of the month are left, counting today.
func DaysRemaining(now time.Time) int {
	_, end := MonthBounds(now)
	lastDay := end.AddDate(0, 0, -1).Day()
	return lastDay - now.UTC().Day() + 1
}

// Monitor derives activity health from the queue store and raises a
// notification when the month's projection first turns critical.
type Monitor struct {
	store    *queue.Store
	notifier notifications.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewMonitor builds a Monitor. A nil notifier disables notifications.
func NewMonitor(store *queue.Store, notifier notifications.Service, logger *slog.Logger) *Monitor {
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	return &Monitor{
		store:    store,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "activity"),
		now:      time.Now,
	}
}

// uploadStatuses are the terminal states that count toward tracker activity.
// A duplicate means the release already exists, which the tracker still
// credits as participation.
var uploadStatuses = []queue.Status{queue.StatusSuccess, queue.StatusDuplicate}

// Health computes the current month's activity snapshot.
func (m *Monitor) Health(ctx context.Context) (*Health, error) {
	now := m.now()
	start, end := MonthBounds(now)

	uploads, err := m.store.CountByStatusCreatedBetween(ctx, uploadStatuses, start, end)
	if err != nil {
		return nil, fmt.Errorf("count monthly uploads: %w", err)
	}
	queued, err := m.store.CountByStatus(ctx, queue.StatusQueued)
	if err != nil {
		return nil, fmt.Errorf("count queued: %w", err)
	}
	minimum, err := m.store.SettingInt(ctx, queue.SettingMinUploadsPerMonth, defaultMinimumUploads)
	if err != nil {
		return nil, fmt.Errorf("read minimum uploads: %w", err)
	}
	enforce, err := m.store.SettingBool(ctx, queue.SettingEnforceActivity)
	if err != nil {
		return nil, fmt.Errorf("read enforce flag: %w", err)
	}

	projected := uploads + queued
	needed := minimum - projected
	if needed < 0 {
		needed = 0
	}

	pace, err := m.estimatePace(ctx, now)
	if err != nil {
		return nil, err
	}

	return &Health{
		Uploads:       uploads,
		Queued:        queued,
		Minimum:       minimum,
		Projected:     projected,
		Needed:        needed,
		Critical:      enforce && projected < minimum,
		Enforce:       enforce,
		DaysRemaining: DaysRemaining(now),
		Pace:          pace,
	}, nil
}

func (m *Monitor) estimatePace(ctx context.Context, now time.Time) (*float64, error) {
	weekAgo := now.UTC().AddDate(0, 0, -7)
	count, err := m.store.CountByStatusCreatedBetween(ctx, uploadStatuses, weekAgo, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("count trailing week: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	pace := float64(count) / 7
	return &pace, nil
}

// MonthlyHistory returns upload counts for the last months calendar months,
// oldest first, with empty months zero-filled.
func (m *Monitor) MonthlyHistory(ctx context.Context, months int) ([]MonthCount, error) {
	if months <= 0 {
		months = 6
	}

	history := make([]MonthCount, 0, months)
	start, _ := MonthBounds(m.now())
	start = start.AddDate(0, -(months - 1), 0)

	for i := 0; i < months; i++ {
		end := start.AddDate(0, 1, 0)
		count, err := m.store.CountByStatusCreatedBetween(ctx, uploadStatuses, start, end)
		if err != nil {
			return nil, fmt.Errorf("count month %s: %w", start.Format("2006-01"), err)
		}
		history = append(history, MonthCount{Month: start.Format("2006-01"), Uploads: count})
		start = end
	}
	return history, nil
}

// CheckAndNotify recomputes health and fires a notification only on the
// transition into the critical state. The last observed state is persisted
// so daemon restarts do not re-trigger an alert.
func (m *Monitor) CheckAndNotify(ctx context.Context) error {
	health, err := m.Health(ctx)
	if err != nil {
		return err
	}

	wasCritical, err := m.store.SettingBool(ctx, queue.SettingLastCriticalState)
	if err != nil {
		return fmt.Errorf("read last critical state: %w", err)
	}

	if health.Critical && !wasCritical {
		m.logger.Warn("monthly activity turned critical",
			slog.Int("projected", health.Projected),
			slog.Int("minimum", health.Minimum))
		if err := m.notifier.NotifyActivityCritical(ctx, health.Projected, health.Minimum); err != nil {
			m.logger.Warn("activity notification failed", logging.Error(err))
		}
	}

	state := "0"
	if health.Critical {
		state = "1"
	}
	if err := m.store.SetSetting(ctx, queue.SettingLastCriticalState, state); err != nil {
		return fmt.Errorf("persist critical state: %w", err)
	}
	return nil
}

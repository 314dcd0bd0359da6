package queue_test

import (
	"context"
	"testing"
	"time"

	"torrup/internal/media"
	"torrup/internal/queue"
	"torrup/internal/testsupport"
)

func TestInsertDefaultsAndGet(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item, err := store.Insert(ctx, &queue.Item{
		MediaType:      media.TypeMusic,
		SourcePath:     "/music/Pink Floyd/Animals",
		ReleaseName:    "Pink.Floyd-Animals-1977-WEB-FLAC-16bit-torrup",
		Category:       31,
		CertaintyScore: 100,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if item.Status != queue.StatusQueued {
		t.Fatalf("status = %s, want queued", item.Status)
	}
	if item.ApprovalStatus != queue.ApprovalApproved {
		t.Fatalf("approval = %s, want approved", item.ApprovalStatus)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.SourcePath != item.SourcePath {
		t.Fatalf("unexpected item: %+v", got)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	got, err := store.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestNextQueuedApprovedOrderAndGate(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.InsertItem(t, store, "/music/a", "A")
	testsupport.InsertItem(t, store, "/music/b", "B")

	pending, err := store.Insert(ctx, &queue.Item{
		MediaType:      media.TypeMusic,
		SourcePath:     "/music/pending",
		ReleaseName:    "Pending",
		Category:       31,
		ApprovalStatus: queue.ApprovalPending,
	})
	if err != nil {
		t.Fatalf("Insert pending: %v", err)
	}

	next, err := store.NextQueuedApproved(ctx)
	if err != nil {
		t.Fatalf("NextQueuedApproved: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest approved item %d, got %+v", first.ID, next)
	}
	if next.ID == pending.ID {
		t.Fatal("pending item should never be picked")
	}
}

func TestNextQueuedApprovedEmptyQueue(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	next, err := store.NextQueuedApproved(context.Background())
	if err != nil {
		t.Fatalf("NextQueuedApproved: %v", err)
	}
	if next != nil {
		t.Fatalf("expected nil on empty queue, got %+v", next)
	}
}

func TestUpdateStatusAndApproval(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.InsertItem(t, store, "/music/c", "C")

	if err := store.UpdateStatus(ctx, item.ID, queue.StatusFailed, "tracker: upload: 503"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := store.SetApproval(ctx, item.ID, queue.ApprovalPending); err != nil {
		t.Fatalf("SetApproval: %v", err)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusFailed || got.Message != "tracker: upload: 503" {
		t.Fatalf("unexpected status/message: %+v", got)
	}
	if got.ApprovalStatus != queue.ApprovalPending {
		t.Fatalf("approval = %s", got.ApprovalStatus)
	}
}

func TestExistsSourcePath(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.InsertItem(t, store, "/music/known", "Known")

	exists, err := store.ExistsSourcePath(ctx, "/music/known")
	if err != nil {
		t.Fatalf("ExistsSourcePath: %v", err)
	}
	if !exists {
		t.Fatal("expected known path to exist")
	}
	exists, err = store.ExistsSourcePath(ctx, "/music/unknown")
	if err != nil {
		t.Fatalf("ExistsSourcePath: %v", err)
	}
	if exists {
		t.Fatal("unexpected hit for unknown path")
	}
}

func TestRetryFailedClearsMessage(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.InsertItem(t, store, "/music/d", "D")
	if err := store.UpdateStatus(ctx, item.ID, queue.StatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	testsupport.InsertItem(t, store, "/music/e", "E")

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if count != 1 {
		t.Fatalf("retried %d items, want 1", count)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusQueued || got.Message != "" {
		t.Fatalf("expected re-queued with empty message, got %+v", got)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.InsertItem(t, store, "/music/f", "F")
	dup := testsupport.InsertItem(t, store, "/music/g", "G")
	if err := store.UpdateStatus(ctx, dup.ID, queue.StatusDuplicate, "tracker match for: g"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	items, err := store.List(ctx, queue.StatusDuplicate)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].ID != dup.ID {
		t.Fatalf("unexpected list result: %+v", items)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}
}

func TestStats(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.InsertItem(t, store, "/music/h", "H")
	failed := testsupport.InsertItem(t, store, "/music/i", "I")
	if err := store.UpdateStatus(ctx, failed.ID, queue.StatusFailed, "x"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := store.Insert(ctx, &queue.Item{
		MediaType:      media.TypeMusic,
		SourcePath:     "/music/j",
		ReleaseName:    "J",
		Category:       31,
		ApprovalStatus: queue.ApprovalPending,
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Queued != 2 || stats.Failed != 1 || stats.Pending != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestCountByStatusCreatedBetween(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.InsertItem(t, store, "/music/k", "K")
	if err := store.UpdateStatus(ctx, item.ID, queue.StatusSuccess, "uploaded"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	now := time.Now().UTC()
	count, err := store.CountByStatusCreatedBetween(
		ctx,
		[]queue.Status{queue.StatusSuccess, queue.StatusDuplicate},
		now.Add(-time.Hour),
		now.Add(time.Hour),
	)
	if err != nil {
		t.Fatalf("CountByStatusCreatedBetween: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	count, err = store.CountByStatusCreatedBetween(
		ctx,
		[]queue.Status{queue.StatusSuccess},
		now.Add(-2*time.Hour),
		now.Add(-time.Hour),
	)
	if err != nil {
		t.Fatalf("CountByStatusCreatedBetween: %v", err)
	}
	if count != 0 {
		t.Fatalf("count outside window = %d, want 0", count)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	value, err := store.Setting(ctx, queue.SettingEnableAutoUpload)
	if err != nil {
		t.Fatalf("Setting: %v", err)
	}
	if value != "0" {
		t.Fatalf("seeded enable_auto_upload = %q, want 0", value)
	}

	if err := store.SetSetting(ctx, queue.SettingEnableAutoUpload, "1"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	enabled, err := store.SettingBool(ctx, queue.SettingEnableAutoUpload)
	if err != nil {
		t.Fatalf("SettingBool: %v", err)
	}
	if !enabled {
		t.Fatal("expected enabled after set")
	}

	if err := store.EnsureSetting(ctx, queue.SettingEnableAutoUpload, "0"); err != nil {
		t.Fatalf("EnsureSetting: %v", err)
	}
	enabled, err = store.SettingBool(ctx, queue.SettingEnableAutoUpload)
	if err != nil {
		t.Fatalf("SettingBool: %v", err)
	}
	if !enabled {
		t.Fatal("EnsureSetting must not overwrite existing value")
	}
}

func TestSettingIntFallback(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	interval, err := store.SettingInt(ctx, queue.SettingAutoScanInterval, 60)
	if err != nil {
		t.Fatalf("SettingInt: %v", err)
	}
	if interval != 60 {
		t.Fatalf("interval = %d, want seeded 60", interval)
	}

	if err := store.SetSetting(ctx, queue.SettingAutoScanInterval, "garbage"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	interval, err = store.SettingInt(ctx, queue.SettingAutoScanInterval, 45)
	if err != nil {
		t.Fatalf("SettingInt: %v", err)
	}
	if interval != 45 {
		t.Fatalf("interval = %d, want fallback 45", interval)
	}
}

func TestExcludesSeeded(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	excludes, err := store.Excludes(context.Background())
	if err != nil {
		t.Fatalf("Excludes: %v", err)
	}
	want := map[string]bool{"torrents": true, "downloads": true, "tmp": true}
	found := 0
	for _, exclude := range excludes {
		if want[exclude] {
			found++
		}
	}
	if found != 3 {
		t.Fatalf("seeded excludes missing defaults: %v", excludes)
	}
}

func TestMediaRootsSeededAndUpsert(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	roots, err := store.MediaRoots(ctx)
	if err != nil {
		t.Fatalf("MediaRoots: %v", err)
	}
	if len(roots) != len(media.Types()) {
		t.Fatalf("expected %d seeded roots, got %d", len(media.Types()), len(roots))
	}

	if err := store.UpsertMediaRoot(ctx, queue.MediaRoot{
		MediaType:       media.TypeMusic,
		Path:            "/srv/music",
		Enabled:         true,
		DefaultCategory: 31,
		AutoScan:        true,
	}); err != nil {
		t.Fatalf("UpsertMediaRoot: %v", err)
	}

	root, err := store.MediaRoot(ctx, media.TypeMusic)
	if err != nil {
		t.Fatalf("MediaRoot: %v", err)
	}
	if root == nil || root.Path != "/srv/music" || !root.AutoScan {
		t.Fatalf("unexpected root: %+v", root)
	}

	at := time.Now().UTC()
	if err := store.TouchMediaRoot(ctx, media.TypeMusic, at); err != nil {
		t.Fatalf("TouchMediaRoot: %v", err)
	}
	root, err = store.MediaRoot(ctx, media.TypeMusic)
	if err != nil {
		t.Fatalf("MediaRoot: %v", err)
	}
	if root.LastScan == nil {
		t.Fatal("expected last_scan recorded")
	}
}

func TestClear(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.InsertItem(t, store, "/music/l", "L")
	failed := testsupport.InsertItem(t, store, "/music/m", "M")
	if err := store.UpdateStatus(ctx, failed.ID, queue.StatusFailed, "x"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	count, err := store.Clear(ctx, queue.StatusFailed)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("cleared %d, want 1", count)
	}

	count, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear all: %v", err)
	}
	if count != 1 {
		t.Fatalf("cleared %d remaining, want 1", count)
	}
}

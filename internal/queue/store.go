package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"torrup/internal/config"
	"torrup/internal/media"
)

//go:embed schema.sql
var schemaSQL string

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database, applies additive
// migrations, and seeds default settings and media roots.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "queue.db"))
}

// OpenPath opens a store at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	ctx := context.Background()
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.seedDefaults(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}

	// Additive migrations for databases created before a column existed.
	// SQLite has no ADD COLUMN IF NOT EXISTS, so duplicate-column errors
	// are expected and ignored.
	migrations := []string{
		"ALTER TABLE media_roots ADD COLUMN auto_scan INTEGER NOT NULL DEFAULT 0",
		"ALTER TABLE media_roots ADD COLUMN last_scan TEXT",
		"ALTER TABLE queue_items ADD COLUMN thumb_path TEXT",
		"ALTER TABLE queue_items ADD COLUMN imdb TEXT",
		"ALTER TABLE queue_items ADD COLUMN tvmazeid TEXT",
		"ALTER TABLE queue_items ADD COLUMN tvmazetype TEXT",
		"ALTER TABLE queue_items ADD COLUMN certainty_score INTEGER NOT NULL DEFAULT 100",
		"ALTER TABLE queue_items ADD COLUMN approval_status TEXT NOT NULL DEFAULT 'approved'",
	}
	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("apply migration %q: %w", migration, err)
		}
	}
	return nil
}

func (s *Store) seedDefaults(ctx context.Context) error {
	defaults := map[string]string{
		SettingEnableAutoUpload:   "0",
		SettingAutoScanInterval:   "60",
		SettingExcludeDirs:        "torrents,downloads,tmp,trash,incomplete,processing",
		SettingReleaseGroup:       "torrup",
		SettingExtractMetadata:    "1",
		SettingExtractThumbnails:  "1",
		SettingTestMode:           "0",
		SettingQBTEnabled:         "0",
		SettingQBTTag:             "torrup",
		SettingMinUploadsPerMonth: "10",
		SettingEnforceActivity:    "0",
		SettingLastCriticalState:  "0",
	}
	for key, value := range defaults {
		if err := s.EnsureSetting(ctx, key, value); err != nil {
			return err
		}
	}

	for _, mediaType := range media.Types() {
		_, err := s.db.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO media_roots (media_type, path, enabled, default_category)
             VALUES (?, ?, 0, ?)`,
			string(mediaType),
			filepath.Join("/volume/media", string(mediaType)),
			media.DefaultCategory(mediaType),
		)
		if err != nil {
			return fmt.Errorf("seed media root %s: %w", mediaType, err)
		}
	}
	return nil
}

func mediaTypeFromDB(value string) media.Type {
	if parsed, err := media.ParseType(value); err == nil {
		return parsed
	}
	return media.Type(value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

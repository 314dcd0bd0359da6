package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Well-known settings keys. Values are strings; booleans are "0"/"1".
const (
	SettingEnableAutoUpload   = "enable_auto_upload"
	SettingAutoScanInterval   = "auto_scan_interval"
	SettingExcludeDirs        = "exclude_dirs"
	SettingReleaseGroup       = "release_group"
	SettingExtractMetadata    = "extract_metadata"
	SettingExtractThumbnails  = "extract_thumbnails"
	SettingTestMode           = "test_mode"
	SettingQBTEnabled         = "qbt_enabled"
	SettingQBTTag             = "qbt_tag"
	SettingMinUploadsPerMonth = "tl_min_uploads_per_month"
	SettingEnforceActivity    = "tl_enforce_activity"
	SettingLastCriticalState  = "tl_last_critical_state"
)

// Setting returns a setting value, or "" when the key is absent.
func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting upserts a setting value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key,
		value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// EnsureSetting inserts a setting only when the key does not exist yet.
func (s *Store) EnsureSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key,
		value,
	)
	if err != nil {
		return fmt.Errorf("ensure setting %s: %w", key, err)
	}
	return nil
}

// Settings returns every stored key/value pair.
func (s *Store) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

// SettingBool interprets a setting as a boolean, with "1" and "true" truthy.
func (s *Store) SettingBool(ctx context.Context, key string) (bool, error) {
	value, err := s.Setting(ctx, key)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	default:
		return false, nil
	}
}

// SettingInt interprets a setting as an integer, falling back when unset or
// malformed.
func (s *Store) SettingInt(ctx context.Context, key string, fallback int) (int, error) {
	value, err := s.Setting(ctx, key)
	if err != nil {
		return fallback, err
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback, nil
	}
	return parsed, nil
}

// Excludes parses the comma-separated excluded directory names.
func (s *Store) Excludes(ctx context.Context) ([]string, error) {
	value, err := s.Setting(ctx, SettingExcludeDirs)
	if err != nil {
		return nil, err
	}
	var excludes []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			excludes = append(excludes, trimmed)
		}
	}
	return excludes, nil
}

package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"torrup/internal/media"
)

// MediaRoots returns every configured library root ordered by media type.
func (s *Store) MediaRoots(ctx context.Context) ([]MediaRoot, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT media_type, path, enabled, default_category, auto_scan, last_scan
         FROM media_roots ORDER BY media_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("list media roots: %w", err)
	}
	defer rows.Close()

	var roots []MediaRoot
	for rows.Next() {
		root, err := scanRoot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media root: %w", err)
		}
		roots = append(roots, root)
	}
	return roots, rows.Err()
}

// MediaRoot returns the root for one media type, or nil when unconfigured.
func (s *Store) MediaRoot(ctx context.Context, mediaType media.Type) (*MediaRoot, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT media_type, path, enabled, default_category, auto_scan, last_scan
         FROM media_roots WHERE media_type = ?`,
		string(mediaType),
	)
	root, err := scanRoot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get media root: %w", err)
	}
	return &root, nil
}

// UpsertMediaRoot creates or replaces a library root configuration.
func (s *Store) UpsertMediaRoot(ctx context.Context, root MediaRoot) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO media_roots (media_type, path, enabled, default_category, auto_scan, last_scan)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(media_type) DO UPDATE SET
             path = excluded.path,
             enabled = excluded.enabled,
             default_category = excluded.default_category,
             auto_scan = excluded.auto_scan`,
		string(root.MediaType),
		root.Path,
		boolToInt(root.Enabled),
		root.DefaultCategory,
		boolToInt(root.AutoScan),
		nullableTimeString(root.LastScan),
	)
	if err != nil {
		return fmt.Errorf("upsert media root: %w", err)
	}
	return nil
}

// TouchMediaRoot records the completion time of a scan pass.
func (s *Store) TouchMediaRoot(ctx context.Context, mediaType media.Type, at time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE media_roots SET last_scan = ? WHERE media_type = ?`,
		at.UTC().Format(time.RFC3339Nano),
		string(mediaType),
	)
	if err != nil {
		return fmt.Errorf("touch media root: %w", err)
	}
	return nil
}

func scanRoot(scanner interface{ Scan(dest ...any) error }) (MediaRoot, error) {
	var (
		mediaType   string
		path        string
		enabled     int
		category    int
		autoScan    int
		lastScanRaw sql.NullString
	)
	if err := scanner.Scan(&mediaType, &path, &enabled, &category, &autoScan, &lastScanRaw); err != nil {
		return MediaRoot{}, err
	}

	root := MediaRoot{
		MediaType:       mediaTypeFromDB(mediaType),
		Path:            path,
		Enabled:         enabled != 0,
		DefaultCategory: category,
		AutoScan:        autoScan != 0,
	}
	if lastScanRaw.Valid {
		if lastScan, err := parseTimeString(lastScanRaw.String); err == nil {
			root.LastScan = &lastScan
		}
	}
	return root, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nullableTimeString(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

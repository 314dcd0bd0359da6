package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "id, media_type, source_path, release_name, category, tags, imdb, tvmazeid, tvmazetype, status, message, certainty_score, approval_status, torrent_path, nfo_path, xml_path, thumb_path, created_at, updated_at"

// Insert persists a new item and returns it with the assigned id. The
// zero values default to status queued and approval approved.
func (s *Store) Insert(ctx context.Context, item *Item) (*Item, error) {
	if item == nil {
		return nil, errors.New("item is nil")
	}
	if item.Status == "" {
		item.Status = StatusQueued
	}
	if item.ApprovalStatus == "" {
		item.ApprovalStatus = ApprovalApproved
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queue_items (
            media_type, source_path, release_name, category, tags,
            imdb, tvmazeid, tvmazetype, status, message,
            certainty_score, approval_status,
            torrent_path, nfo_path, xml_path, thumb_path,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(item.MediaType),
		item.SourcePath,
		item.ReleaseName,
		item.Category,
		item.Tags,
		nullableString(item.IMDB),
		nullableString(item.TVMazeID),
		nullableString(item.TVMazeType),
		string(item.Status),
		item.Message,
		item.CertaintyScore,
		string(item.ApprovalStatus),
		nullableString(item.TorrentPath),
		nullableString(item.NFOPath),
		nullableString(item.XMLPath),
		nullableString(item.ThumbPath),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier. A missing item returns nil
// without error.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items
         SET media_type = ?, source_path = ?, release_name = ?, category = ?, tags = ?,
             imdb = ?, tvmazeid = ?, tvmazetype = ?, status = ?, message = ?,
             certainty_score = ?, approval_status = ?,
             torrent_path = ?, nfo_path = ?, xml_path = ?, thumb_path = ?,
             updated_at = ?
         WHERE id = ?`,
		string(item.MediaType),
		item.SourcePath,
		item.ReleaseName,
		item.Category,
		item.Tags,
		nullableString(item.IMDB),
		nullableString(item.TVMazeID),
		nullableString(item.TVMazeType),
		string(item.Status),
		item.Message,
		item.CertaintyScore,
		string(item.ApprovalStatus),
		nullableString(item.TorrentPath),
		nullableString(item.NFOPath),
		nullableString(item.XMLPath),
		nullableString(item.ThumbPath),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// UpdateStatus transitions an item's status and message in one statement.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status Status, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items SET status = ?, message = ?, updated_at = ? WHERE id = ?`,
		string(status),
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// SetApproval updates an item's approval gate.
func (s *Store) SetApproval(ctx context.Context, id int64, approval ApprovalStatus) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items SET approval_status = ?, updated_at = ? WHERE id = ?`,
		string(approval),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set approval: %w", err)
	}
	return nil
}

// NextQueuedApproved returns the oldest queued item that cleared the
// approval gate, or nil when the queue is idle.
func (s *Store) NextQueuedApproved(ctx context.Context) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items
         WHERE status = ? AND approval_status = ?
         ORDER BY id LIMIT 1`,
		string(StatusQueued),
		string(ApprovalApproved),
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next queued item: %w", err)
	}
	return item, nil
}

// ExistsSourcePath reports whether any item references the path. Used by
// the scanner to avoid re-enqueueing known content.
func (s *Store) ExistsSourcePath(ctx context.Context, path string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM queue_items WHERE source_path = ?`, path).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("exists source path: %w", err)
	}
	return count > 0, nil
}

// List returns items filtered by status, newest first. An empty status
// returns everything.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM queue_items`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Stats aggregates queue counts by status, plus items awaiting approval.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("scan stats: %w", err)
		}
		stats.Total += count
		switch Status(status) {
		case StatusQueued:
			stats.Queued = count
		case StatusPreparing:
			stats.Preparing = count
		case StatusUploading:
			stats.Uploading = count
		case StatusSuccess:
			stats.Success = count
		case StatusFailed:
			stats.Failed = count
		case StatusDuplicate:
			stats.Duplicate = count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM queue_items WHERE approval_status = ?`,
		string(ApprovalPending),
	).Scan(&stats.Pending)
	if err != nil {
		return stats, fmt.Errorf("pending count: %w", err)
	}
	return stats, nil
}

// RetryFailed re-queues every failed item and clears its message.
func (s *Store) RetryFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items SET status = ?, message = '', updated_at = ? WHERE status = ?`,
		string(StatusQueued),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(StatusFailed),
	)
	if err != nil {
		return 0, fmt.Errorf("retry failed: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes a single item.
func (s *Store) Remove(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	return nil
}

// Clear deletes items with the given statuses, or the whole queue when no
// statuses are provided. Returns the number of deleted rows.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	query := `DELETE FROM queue_items`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// CountByStatusCreatedBetween counts items in the given statuses created in
// [start, end). The activity monitor uses it for month and trailing-week
// windows.
func (s *Store) CountByStatusCreatedBetween(ctx context.Context, statuses []Status, start, end time.Time) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(1) FROM queue_items
              WHERE status IN (` + makePlaceholders(len(statuses)) + `)
              AND created_at >= ? AND created_at < ?`
	args := make([]any, 0, len(statuses)+2)
	for _, status := range statuses {
		args = append(args, string(status))
	}
	args = append(args, start.UTC().Format(time.RFC3339Nano), end.UTC().Format(time.RFC3339Nano))

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count created between: %w", err)
	}
	return count, nil
}

// CountByStatus counts items currently in a status.
func (s *Store) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM queue_items WHERE status = ?`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by status: %w", err)
	}
	return count, nil
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id          int64
		mediaType   string
		sourcePath  string
		releaseName string
		category    int
		tags        sql.NullString
		imdb        sql.NullString
		tvmazeID    sql.NullString
		tvmazeType  sql.NullString
		statusStr   string
		message     sql.NullString
		certainty   sql.NullInt64
		approval    sql.NullString
		torrentPath sql.NullString
		nfoPath     sql.NullString
		xmlPath     sql.NullString
		thumbPath   sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&mediaType,
		&sourcePath,
		&releaseName,
		&category,
		&tags,
		&imdb,
		&tvmazeID,
		&tvmazeType,
		&statusStr,
		&message,
		&certainty,
		&approval,
		&torrentPath,
		&nfoPath,
		&xmlPath,
		&thumbPath,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:             id,
		MediaType:      mediaTypeFromDB(mediaType),
		SourcePath:     sourcePath,
		ReleaseName:    releaseName,
		Category:       category,
		Tags:           tags.String,
		IMDB:           imdb.String,
		TVMazeID:       tvmazeID.String,
		TVMazeType:     tvmazeType.String,
		Status:         Status(statusStr),
		Message:        message.String,
		ApprovalStatus: ApprovalStatus(approval.String),
		TorrentPath:    torrentPath.String,
		NFOPath:        nfoPath.String,
		XMLPath:        xmlPath.String,
		ThumbPath:      thumbPath.String,
	}
	if certainty.Valid {
		item.CertaintyScore = int(certainty.Int64)
	}
	if item.ApprovalStatus == "" {
		item.ApprovalStatus = ApprovalApproved
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

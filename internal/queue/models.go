package queue

import (
	"strings"
	"time"

	"torrup/internal/media"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusPreparing Status = "preparing"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusDuplicate Status = "duplicate"
)

var allStatuses = []Status{
	StatusQueued,
	StatusPreparing,
	StatusUploading,
	StatusSuccess,
	StatusFailed,
	StatusDuplicate,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends the item's lifecycle.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusDuplicate:
		return true
	default:
		return false
	}
}

// ApprovalStatus gates whether the worker may pick an item up.
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalPending  ApprovalStatus = "pending_approval"
)

// ParseApproval converts a string into a known ApprovalStatus.
func ParseApproval(value string) (ApprovalStatus, bool) {
	normalized := ApprovalStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case ApprovalApproved, ApprovalPending:
		return normalized, true
	default:
		return "", false
	}
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID             int64
	MediaType      media.Type
	SourcePath     string
	ReleaseName    string
	Category       int
	Tags           string
	IMDB           string
	TVMazeID       string
	TVMazeType     string
	Status         Status
	Message        string
	CertaintyScore int
	ApprovalStatus ApprovalStatus
	TorrentPath    string
	NFOPath        string
	XMLPath        string
	ThumbPath      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ClearArtifacts drops the cached artifact references after cleanup.
func (i *Item) ClearArtifacts() {
	i.TorrentPath = ""
	i.NFOPath = ""
	i.XMLPath = ""
	i.ThumbPath = ""
}

// MediaRoot configures one scanned library directory per media type.
type MediaRoot struct {
	MediaType       media.Type
	Path            string
	Enabled         bool
	DefaultCategory int
	AutoScan        bool
	LastScan        *time.Time
}

// Stats aggregates queue counts per status.
type Stats struct {
	Total     int
	Queued    int
	Preparing int
	Uploading int
	Success   int
	Failed    int
	Duplicate int
	Pending   int
}

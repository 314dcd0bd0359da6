package tracker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"torrup/internal/config"
	"torrup/internal/logging"
	"torrup/internal/services"
)

const userAgent = "torrup/0.1.0"

// SubmitRequest carries everything the tracker needs for one upload. The
// cross-reference ids are optional and only populated for the media types
// they apply to.
type SubmitRequest struct {
	TorrentPath string
	NFOPath     string
	Category    int
	Tags        string
	IMDB        string
	TVMazeID    string
	TVMazeType  string
}

// Client is the three-operation surface the pipeline and scanner use.
type Client interface {
	// Exists reports whether a release matching the query is already on the
	// tracker. It never errors; lookup failures degrade to false so an
	// outage cannot block uploads.
	Exists(ctx context.Context, query string, exact bool) bool

	// Submit uploads a prepared release and returns the tracker-assigned
	// torrent id.
	Submit(ctx context.Context, req SubmitRequest) (int64, error)

	// FetchCanonical downloads the tracker's own copy of an uploaded
	// torrent, which may differ byte-wise from the locally built one.
	FetchCanonical(ctx context.Context, torrentID int64) ([]byte, error)
}

// HTTPClient talks to the tracker's apiupload and torrentsearch endpoints.
type HTTPClient struct {
	uploadURL   string
	searchURL   string
	downloadURL string
	announceKey string

	searchClient *http.Client
	uploadClient *http.Client
	logger       *slog.Logger
}

// NewClient builds an HTTPClient from tracker configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		uploadURL:    cfg.Tracker.UploadURL,
		searchURL:    cfg.Tracker.SearchURL,
		downloadURL:  cfg.Tracker.DownloadURL,
		announceKey:  cfg.Tracker.AnnounceKey,
		searchClient: &http.Client{Timeout: time.Duration(cfg.Tracker.SearchTimeout) * time.Second},
		uploadClient: &http.Client{Timeout: time.Duration(cfg.Tracker.UploadTimeout) * time.Second},
		logger:       logging.WithComponent(logger, "tracker"),
	}
}

// Exists implements Client. An unset announce key always returns false.
func (c *HTTPClient) Exists(ctx context.Context, query string, exact bool) bool {
	if strings.TrimSpace(c.announceKey) == "" {
		return false
	}

	form := url.Values{}
	form.Set("announcekey", c.announceKey)
	if exact {
		form.Set("exact", "1")
		form.Set("query", "'"+query+"'")
	} else {
		form.Set("exact", "0")
		form.Set("query", query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.searchClient.Do(req)
	if err != nil {
		c.logger.Warn("search request failed", logging.Error(err))
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(body)) == "1"
}

// Submit implements Client.
func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (int64, error) {
	if strings.TrimSpace(c.announceKey) == "" {
		return 0, services.Wrap(services.ErrConfiguration, "tracker", "submit", "announce key not configured", nil)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := attachFile(writer, "torrent", req.TorrentPath, "application/x-bittorrent"); err != nil {
		return 0, services.Wrap(services.ErrValidation, "tracker", "submit", "attach torrent", err)
	}
	if err := attachFile(writer, "nfo", req.NFOPath, "text/plain"); err != nil {
		return 0, services.Wrap(services.ErrValidation, "tracker", "submit", "attach nfo", err)
	}

	fields := map[string]string{
		"announcekey": c.announceKey,
		"category":    strconv.Itoa(req.Category),
		"tags":        req.Tags,
	}
	if req.IMDB != "" {
		fields["imdb"] = req.IMDB
	}
	if req.TVMazeID != "" {
		fields["tvmazeid"] = req.TVMazeID
	}
	if req.TVMazeType != "" {
		fields["tvmazetype"] = req.TVMazeType
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return 0, fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &buf)
	if err != nil {
		return 0, fmt.Errorf("build upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.uploadClient.Do(httpReq)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "tracker", "submit", "upload request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "tracker", "submit", "read upload response", err)
	}

	// A successful upload answers with the bare torrent id; anything else
	// is an error message.
	torrentID, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "tracker", "submit", strings.TrimSpace(string(body)), nil)
	}
	return torrentID, nil
}

// FetchCanonical implements Client.
func (c *HTTPClient) FetchCanonical(ctx context.Context, torrentID int64) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%d/%d.torrent", strings.TrimRight(c.downloadURL, "/"), torrentID, torrentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "tracker", "fetch", "download request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "tracker", "fetch", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 16<<20))
}

func attachFile(writer *multipart.Writer, field, path, contentType string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filepath.Base(path)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

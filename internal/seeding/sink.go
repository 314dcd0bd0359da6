package seeding

import (
	"bytes"
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"torrup/internal/config"
	"torrup/internal/logging"
)

// Sink receives finished torrents for seeding. Add reports success but never
// fails the caller; seeding is a courtesy step, not part of the upload.
type Sink interface {
	Add(ctx context.Context, torrentPath, contentPath, tag string) bool
}

// NewNop returns a sink that accepts nothing.
func NewNop() Sink {
	return nopSink{}
}

type nopSink struct{}

func (nopSink) Add(context.Context, string, string, string) bool { return false }

// QBittorrent pushes torrents into a qBittorrent instance over its WebUI
// API. Every Add performs a fresh login so credential or session changes
// between uploads do not strand the sink.
type QBittorrent struct {
	baseURL  string
	username string
	password string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewQBittorrent wires a sink from configuration.
func NewQBittorrent(cfg *config.Config, logger *slog.Logger) *QBittorrent {
	timeout := time.Duration(cfg.QBittorrent.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QBittorrent{
		baseURL:  strings.TrimRight(cfg.QBittorrent.URL, "/"),
		username: cfg.QBittorrent.Username,
		password: cfg.QBittorrent.Password,
		timeout:  timeout,
		logger:   logging.WithComponent(logger, "seeding"),
	}
}

// Add implements Sink. The save path handed to qBittorrent is the parent of
// the content so the client finds the existing data instead of redownloading.
func (q *QBittorrent) Add(ctx context.Context, torrentPath, contentPath, tag string) bool {
	if q.baseURL == "" {
		return false
	}

	torrentData, err := os.ReadFile(torrentPath)
	if err != nil {
		q.logger.Warn("torrent file unreadable", logging.Error(err))
		return false
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return false
	}
	client := &http.Client{Timeout: q.timeout, Jar: jar}

	if !q.login(ctx, client) {
		return false
	}
	return q.addTorrent(ctx, client, torrentData, filepath.Base(torrentPath), filepath.Dir(contentPath), tag)
}

func (q *QBittorrent) login(ctx context.Context, client *http.Client) bool {
	form := url.Values{}
	form.Set("username", q.username)
	form.Set("password", q.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		q.baseURL+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		q.logger.Warn("qbittorrent login failed", logging.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		q.logger.Warn("qbittorrent login rejected", slog.Int("status", resp.StatusCode))
		return false
	}
	return true
}

func (q *QBittorrent) addTorrent(ctx context.Context, client *http.Client, torrentData []byte, filename, savePath, tag string) bool {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("torrents", filename)
	if err != nil {
		return false
	}
	if _, err := part.Write(torrentData); err != nil {
		return false
	}
	fields := map[string]string{
		"savepath": savePath,
		"tags":     tag,
		"paused":   "false",
		"autoTMM":  "false",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return false
		}
	}
	if err := writer.Close(); err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		q.baseURL+"/api/v2/torrents/add", &buf)
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		q.logger.Warn("qbittorrent add failed", logging.Error(err))
		return false
	}
	defer resp.Body.Close()

	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	answer := strings.TrimSpace(string(body[:n]))
	if resp.StatusCode != http.StatusOK || answer != "Ok." {
		q.logger.Warn("qbittorrent add rejected",
			slog.Int("status", resp.StatusCode), slog.String("answer", answer))
		return false
	}
	q.logger.Info("torrent handed to qbittorrent", slog.String("file", filename))
	return true
}

package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTracker()
	c.normalizeQBittorrent()
	c.normalizeWorker()
	c.normalizePolicy()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTracker() {
	c.Tracker.UploadURL = strings.TrimSpace(c.Tracker.UploadURL)
	if c.Tracker.UploadURL == "" {
		c.Tracker.UploadURL = defaultUploadURL
	}
	c.Tracker.SearchURL = strings.TrimSpace(c.Tracker.SearchURL)
	if c.Tracker.SearchURL == "" {
		c.Tracker.SearchURL = defaultSearchURL
	}
	c.Tracker.DownloadURL = strings.TrimSpace(c.Tracker.DownloadURL)
	if c.Tracker.DownloadURL == "" {
		c.Tracker.DownloadURL = defaultDownloadURL
	}
	c.Tracker.AnnounceURL = strings.TrimSpace(c.Tracker.AnnounceURL)
	if c.Tracker.AnnounceURL == "" {
		c.Tracker.AnnounceURL = defaultAnnounceURL
	}
	c.Tracker.AnnounceKey = strings.TrimSpace(c.Tracker.AnnounceKey)
	if c.Tracker.AnnounceKey == "" {
		if value, ok := os.LookupEnv("TL_ANNOUNCE_KEY"); ok {
			c.Tracker.AnnounceKey = strings.TrimSpace(value)
		}
	}
	if c.Tracker.SearchTimeout <= 0 {
		c.Tracker.SearchTimeout = defaultSearchTimeout
	}
	if c.Tracker.UploadTimeout <= 0 {
		c.Tracker.UploadTimeout = defaultUploadTimeout
	}
}

func (c *Config) normalizeQBittorrent() {
	c.QBittorrent.URL = strings.TrimSpace(c.QBittorrent.URL)
	if c.QBittorrent.URL == "" {
		c.QBittorrent.URL = defaultQBTURL
	}
	if c.QBittorrent.Password == "" {
		if value, ok := os.LookupEnv("QBT_PASSWORD"); ok {
			c.QBittorrent.Password = value
		}
	}
	if c.QBittorrent.RequestTimeout <= 0 {
		c.QBittorrent.RequestTimeout = defaultQBTRequestTimeout
	}
}

func (c *Config) normalizeWorker() {
	if c.Worker.PollInterval <= 0 {
		c.Worker.PollInterval = defaultPollInterval
	}
	if c.Worker.BackoffBase <= 0 {
		c.Worker.BackoffBase = defaultBackoffBase
	}
	if c.Worker.BackoffMax <= 0 {
		c.Worker.BackoffMax = defaultBackoffMax
	}
	if c.Worker.ScanErrorInterval <= 0 {
		c.Worker.ScanErrorInterval = defaultScanErrorInterval
	}
	if c.Worker.SearchDelayMillis <= 0 {
		c.Worker.SearchDelayMillis = defaultSearchDelayMillis
	}
	if c.Worker.DisabledScanPause <= 0 {
		c.Worker.DisabledScanPause = defaultDisabledScanPause
	}
	if c.Worker.ShutdownTimeoutSec <= 0 {
		c.Worker.ShutdownTimeoutSec = defaultShutdownTimeout
	}
}

func (c *Config) normalizePolicy() {
	if c.Policy.ApprovalThreshold <= 0 {
		c.Policy.ApprovalThreshold = defaultApprovalThreshold
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

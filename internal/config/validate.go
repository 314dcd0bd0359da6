package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTracker(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validatePolicy(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTracker() error {
	for name, value := range map[string]string{
		"tracker.upload_url":   c.Tracker.UploadURL,
		"tracker.search_url":   c.Tracker.SearchURL,
		"tracker.download_url": c.Tracker.DownloadURL,
	} {
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("%s must be an http(s) URL", name)
		}
	}
	return nil
}

func (c *Config) validateWorker() error {
	if err := ensurePositiveMap(map[string]int{
		"worker.poll_interval":          c.Worker.PollInterval,
		"worker.backoff_base":           c.Worker.BackoffBase,
		"worker.backoff_max":            c.Worker.BackoffMax,
		"worker.scan_error_interval":    c.Worker.ScanErrorInterval,
		"tracker.search_timeout":        c.Tracker.SearchTimeout,
		"tracker.upload_timeout":        c.Tracker.UploadTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Worker.BackoffMax < c.Worker.BackoffBase {
		return errors.New("worker.backoff_max must be >= worker.backoff_base")
	}
	return nil
}

func (c *Config) validatePolicy() error {
	if c.Policy.ApprovalThreshold < 0 || c.Policy.ApprovalThreshold > 100 {
		return errors.New("policy.approval_threshold must be between 0 and 100")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

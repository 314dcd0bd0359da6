package config

const (
	defaultOutputDir          = "~/.local/share/torrup/output"
	defaultLogDir             = "~/.local/share/torrup/logs"
	defaultUploadURL          = "https://www.torrentleech.org/torrents/upload/apiupload"
	defaultSearchURL          = "https://www.torrentleech.org/api/torrentsearch"
	defaultDownloadURL        = "https://www.torrentleech.org/download"
	defaultAnnounceURL        = "https://tracker.torrentleech.org"
	defaultSearchTimeout      = 30
	defaultUploadTimeout      = 60
	defaultQBTURL             = "http://127.0.0.1:8080"
	defaultQBTRequestTimeout  = 15
	defaultNtfyRequestTimeout = 10
	defaultPollInterval       = 2
	defaultBackoffBase        = 2
	defaultBackoffMax         = 60
	defaultScanErrorInterval  = 300
	defaultSearchDelayMillis  = 1500
	defaultDisabledScanPause  = 60
	defaultShutdownTimeout    = 30
	defaultApprovalThreshold  = 80
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Tracker: Tracker{
			UploadURL:     defaultUploadURL,
			SearchURL:     defaultSearchURL,
			DownloadURL:   defaultDownloadURL,
			AnnounceURL:   defaultAnnounceURL,
			SearchTimeout: defaultSearchTimeout,
			UploadTimeout: defaultUploadTimeout,
		},
		QBittorrent: QBittorrent{
			URL:            defaultQBTURL,
			RequestTimeout: defaultQBTRequestTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Worker: Worker{
			PollInterval:       defaultPollInterval,
			BackoffBase:        defaultBackoffBase,
			BackoffMax:         defaultBackoffMax,
			ScanErrorInterval:  defaultScanErrorInterval,
			SearchDelayMillis:  defaultSearchDelayMillis,
			DisabledScanPause:  defaultDisabledScanPause,
			ShutdownTimeoutSec: defaultShutdownTimeout,
		},
		Policy: Policy{
			ApprovalThreshold: defaultApprovalThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Default values for configuration.
const (
	DefaultLogsDir          = "logs.old"
	DefaultLogExtension     = ".log"
	DefaultDatasetExtension = ".csv"
	DefaultTimezone         = "Europe/Berlin"

	DefaultInterval       = time.Hour
	DefaultStartDelay     = 20 * time.Second
	DefaultMeasureTimeout = 5 * time.Minute
	DefaultRetries        = 2
	DefaultRetryBackoff   = 30 * time.Second

	DefaultPingCount     = 5
	DefaultDownloadBytes = 25 * 1000 * 1000
	DefaultUploadBytes   = 10 * 1000 * 1000
	DefaultHTTPTimeout   = 2 * time.Minute

	DefaultMaxGap         = 2 * time.Hour
	DefaultMetricsListen  = ":9310"
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvConfig           = "SPEEDLOG_CONFIG"
	EnvSamplesDir       = "SPEEDLOG_SAMPLES_DIR"
	EnvLegacySamplesDir = "dir_samples"
	EnvLogsDir          = "SPEEDLOG_LOGS_DIR"
	EnvTimezone         = "SPEEDLOG_TIMEZONE"
	EnvLogLevel         = "SPEEDLOG_LOG_LEVEL"
	EnvInterval         = "SPEEDLOG_INTERVAL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogsDir:          DefaultLogsDir,
		LogExtension:     DefaultLogExtension,
		DatasetExtension: DefaultDatasetExtension,
		Timezone:         DefaultTimezone,
		Sampler: SamplerConfig{
			Interval:       DefaultInterval,
			StartDelay:     DefaultStartDelay,
			MeasureTimeout: DefaultMeasureTimeout,
			Retries:        DefaultRetries,
			RetryBackoff:   DefaultRetryBackoff,
		},
		Measurement: MeasurementConfig{
			PingCount:     DefaultPingCount,
			DownloadBytes: DefaultDownloadBytes,
			UploadBytes:   DefaultUploadBytes,
			Timeout:       DefaultHTTPTimeout,
		},
		Gaps: GapConfig{
			MaxGap: DefaultMaxGap,
		},
		Metrics: MetricsConfig{
			Listen: DefaultMetricsListen,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	// The sampler deployments predate the config file and only set dir_samples.
	if dir := os.Getenv(EnvLegacySamplesDir); dir != "" {
		c.SamplesDir = dir
	}
	if dir := os.Getenv(EnvSamplesDir); dir != "" {
		c.SamplesDir = dir
	}
	if dir := os.Getenv(EnvLogsDir); dir != "" {
		c.LogsDir = dir
	}
	if tz := os.Getenv(EnvTimezone); tz != "" {
		c.Timezone = tz
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
	if v := os.Getenv(EnvInterval); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Sampler.Interval = d
		} else if secs, err := strconv.Atoi(v); err == nil {
			c.Sampler.Interval = time.Duration(secs) * time.Second
		}
	}
}

// Package config provides configuration loading and validation for speedlog.
package config

import (
	"time"

	"github.com/ccollicutt/speedlog/internal/logger"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// SamplesDir is the directory holding the per-month CSV datasets.
	// Required for every command that touches datasets.
	SamplesDir string `yaml:"samples_dir"`

	// LogsDir is the directory scanned for historical speed test logfiles.
	LogsDir string `yaml:"logs_dir"`

	// LogExtension and DatasetExtension filter the directory listings.
	LogExtension     string `yaml:"log_extension"`
	DatasetExtension string `yaml:"dataset_extension"`

	// Timezone is the IANA location every parsed and sampled timestamp is
	// localized to.
	Timezone string `yaml:"timezone"`

	Sampler     SamplerConfig     `yaml:"sampler"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Gaps        GapConfig         `yaml:"gaps"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     logger.Config     `yaml:"logging"`
	Webhooks    []WebhookConfig   `yaml:"webhooks,omitempty"`

	location *time.Location
}

// Location returns the resolved time zone (populated during validation).
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// SamplerConfig controls the periodic sampling loop.
type SamplerConfig struct {
	Interval       time.Duration `yaml:"interval"`
	StartDelay     time.Duration `yaml:"start_delay"`
	MeasureTimeout time.Duration `yaml:"measure_timeout"`
	Retries        int           `yaml:"retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
}

// MeasurementConfig configures the HTTP speed test.
type MeasurementConfig struct {
	// Servers are candidate speed test base URLs; the lowest latency one wins.
	Servers []string `yaml:"servers"`

	PingCount     int           `yaml:"ping_count"`
	DownloadBytes int64         `yaml:"download_bytes"`
	UploadBytes   int64         `yaml:"upload_bytes"`
	Timeout       time.Duration `yaml:"timeout"`
}

// GapConfig defines what counts as a missing sample.
type GapConfig struct {
	MaxGap         time.Duration `yaml:"max_gap"`
	MinOccurrences int           `yaml:"min_occurrences,omitempty"`
}

// MetricsConfig controls the prometheus endpoint of the sampler.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnIssues fires only when a report contains issues (default).
	WebhookTriggerOnIssues WebhookTrigger = "on_issues"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for import and gap reports.
type WebhookConfig struct {
	Name    string         `yaml:"name,omitempty"`
	URL     string         `yaml:"url"`
	Token   string         `yaml:"token,omitempty"`
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`
	Timeout time.Duration  `yaml:"timeout,omitempty"`
}

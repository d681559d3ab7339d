package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Error reports an invalid or missing configuration setting. Commands treat
// it as fatal before any work begins.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Reason
}

// IsConfigError reports whether err is (or wraps) a configuration error.
func IsConfigError(err error) bool {
	var cfgErr *Error
	return errors.As(err, &cfgErr)
}

// Load reads and validates a configuration file. An empty path yields the
// defaults plus environment overrides.
func Load(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors, fills in zero values with
// defaults and resolves the time zone.
func Validate(cfg *Config) error {
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return &Error{Field: "timezone", Reason: fmt.Sprintf("unknown location %q", cfg.Timezone)}
	}
	cfg.location = loc

	if cfg.LogExtension == "" {
		cfg.LogExtension = DefaultLogExtension
	}
	if cfg.DatasetExtension == "" {
		cfg.DatasetExtension = DefaultDatasetExtension
	}

	if err := validateSampler(&cfg.Sampler); err != nil {
		return err
	}

	if err := validateMeasurement(&cfg.Measurement); err != nil {
		return err
	}

	if cfg.Gaps.MaxGap <= 0 {
		cfg.Gaps.MaxGap = DefaultMaxGap
	}
	if cfg.Gaps.MinOccurrences < 0 {
		return &Error{Field: "gaps.min_occurrences", Reason: "must not be negative"}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = DefaultMetricsListen
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// RequireSamplesDir checks that the dataset directory is configured and exists.
func (c *Config) RequireSamplesDir() error {
	return requireDir("samples_dir", c.SamplesDir, EnvSamplesDir)
}

// RequireLogsDir checks that the logfile directory exists.
func (c *Config) RequireLogsDir() error {
	return requireDir("logs_dir", c.LogsDir, EnvLogsDir)
}

func requireDir(field, dir, env string) error {
	if dir == "" {
		return &Error{Field: field, Reason: fmt.Sprintf("not set (use the config file or %s)", env)}
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Error{Field: field, Reason: fmt.Sprintf("%s directory does not exist", dir)}
		}
		return &Error{Field: field, Reason: err.Error()}
	}
	if !info.IsDir() {
		return &Error{Field: field, Reason: fmt.Sprintf("%s is not a directory", dir)}
	}
	return nil
}

func validateSampler(s *SamplerConfig) error {
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}
	if s.StartDelay < 0 {
		return &Error{Field: "sampler.start_delay", Reason: "must not be negative"}
	}
	if s.MeasureTimeout <= 0 {
		s.MeasureTimeout = DefaultMeasureTimeout
	}
	if s.Retries < 0 {
		return &Error{Field: "sampler.retries", Reason: "must not be negative"}
	}
	if s.RetryBackoff <= 0 {
		s.RetryBackoff = DefaultRetryBackoff
	}
	return nil
}

func validateMeasurement(m *MeasurementConfig) error {
	for i, server := range m.Servers {
		if err := validateHTTPURL(server); err != nil {
			return &Error{Field: fmt.Sprintf("measurement.servers[%d]", i), Reason: err.Error()}
		}
	}
	if m.PingCount <= 0 {
		m.PingCount = DefaultPingCount
	}
	if m.DownloadBytes <= 0 {
		m.DownloadBytes = DefaultDownloadBytes
	}
	if m.UploadBytes <= 0 {
		m.UploadBytes = DefaultUploadBytes
	}
	if m.Timeout <= 0 {
		m.Timeout = DefaultHTTPTimeout
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	if err := validateHTTPURL(wh.URL); err != nil {
		return err
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnIssues
	case WebhookTriggerOnIssues, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_issues, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}
	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

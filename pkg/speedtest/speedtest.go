// Package speedtest measures latency and throughput against HTTP speed test
// servers.
//
// A server is any HTTP endpoint that implements three routes relative to its
// base URL:
//
//	GET  /latency             small response, used for server selection and ping
//	GET  /download?size=N     responds with N bytes
//	POST /upload              accepts and discards the request body
package speedtest

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Result is one completed measurement.
type Result struct {
	Server   string  `json:"server"`
	Ping     float64 `json:"ping"`     // ms
	Download float64 `json:"download"` // bit/s
	Upload   float64 `json:"upload"`   // bit/s
}

// Measurer runs a speed test.
type Measurer interface {
	Measure(ctx context.Context) (*Result, error)
}

// Default transfer parameters.
const (
	DefaultPingCount     = 5
	DefaultDownloadBytes = 25 * 1000 * 1000
	DefaultUploadBytes   = 10 * 1000 * 1000
	DefaultStreams       = 8
)

// Options configures an HTTPMeasurer.
type Options struct {
	// Servers are candidate base URLs; the one with the lowest latency wins.
	Servers []string

	PingCount     int
	DownloadBytes int64
	UploadBytes   int64

	// Streams is the number of concurrent transfers per direction. The
	// payload is split evenly across them.
	Streams int

	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// HTTPMeasurer implements Measurer over plain HTTP.
type HTTPMeasurer struct {
	opts   Options
	client *http.Client
	log    *zap.SugaredLogger
}

// Option configures an HTTPMeasurer.
type Option func(*HTTPMeasurer)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(m *HTTPMeasurer) {
		if c != nil {
			m.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(m *HTTPMeasurer) {
		if l != nil {
			m.log = l
		}
	}
}

// NewHTTPMeasurer creates an HTTPMeasurer, filling zero options with the
// defaults.
func NewHTTPMeasurer(opts Options, options ...Option) *HTTPMeasurer {
	if opts.PingCount <= 0 {
		opts.PingCount = DefaultPingCount
	}
	if opts.DownloadBytes <= 0 {
		opts.DownloadBytes = DefaultDownloadBytes
	}
	if opts.UploadBytes <= 0 {
		opts.UploadBytes = DefaultUploadBytes
	}
	if opts.Streams <= 0 {
		opts.Streams = DefaultStreams
	}

	m := &HTTPMeasurer{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		log:    zap.NewNop().Sugar(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Measure selects the best server, then measures ping, download and upload
// against it in that order.
func (m *HTTPMeasurer) Measure(ctx context.Context) (*Result, error) {
	server, err := m.BestServer(ctx)
	if err != nil {
		return nil, err
	}

	ping, err := m.Ping(ctx, server)
	if err != nil {
		return nil, err
	}
	download, err := m.Download(ctx, server)
	if err != nil {
		return nil, err
	}
	upload, err := m.Upload(ctx, server)
	if err != nil {
		return nil, err
	}

	m.log.Debugw("measurement finished",
		"server", server, "ping_ms", ping, "download_bps", download, "upload_bps", upload)
	return &Result{Server: server, Ping: ping, Download: download, Upload: upload}, nil
}

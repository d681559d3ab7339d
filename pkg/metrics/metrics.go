// Package metrics exposes prometheus collectors for imports and sampling.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// Import metrics
	ImportRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speedlog_import_records_total",
			Help: "Logfile records processed by the importer, by result",
		},
		[]string{"result"}, // converted, skipped, error
	)
	ImportFiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speedlog_import_files_total",
			Help: "Logfiles merged into datasets",
		},
	)

	// Sampler metrics
	Samples = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speedlog_samples_total",
			Help: "Sampling cycles, by result",
		},
		[]string{"result"}, // ok, failed
	)
	ScheduleResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speedlog_schedule_resets_total",
			Help: "Times the sampling schedule fell behind and was reset",
		},
	)
	LastSample = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "speedlog_last_sample",
			Help: "Values of the most recent sample (bit/s for rates, ms for ping)",
		},
		[]string{"value"}, // download, upload, ping
	)
	LastSampleTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speedlog_last_sample_timestamp_seconds",
			Help: "Unix time of the most recent successful sample",
		},
	)
	MeasureDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "speedlog_measure_duration_seconds",
			Help:    "Duration of speed test measurements",
			Buckets: []float64{5, 10, 20, 30, 60, 120, 300},
		},
	)
)

// Server serves /metrics on addr until ctx is cancelled.
type Server struct {
	srv *http.Server
	log *zap.SugaredLogger
}

// NewServer creates a metrics server for addr.
func NewServer(addr string, log *zap.SugaredLogger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start listens in the background and shuts down when ctx is done.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.log.Infow("metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorw("metrics server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()
}

// Handler returns the metrics HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

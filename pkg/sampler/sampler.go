// Package sampler runs speed test measurements on a fixed cadence and
// appends them to the monthly datasets.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/speedlog/pkg/dataset"
	"github.com/ccollicutt/speedlog/pkg/metrics"
	"github.com/ccollicutt/speedlog/pkg/speedtest"
)

// Options configures a Sampler.
type Options struct {
	SamplesDir string
	Extension  string
	Location   *time.Location

	Interval   time.Duration
	StartDelay time.Duration
	Retry      RetryPolicy
}

// Sampler is the periodic sampling loop.
type Sampler struct {
	opts     Options
	measurer speedtest.Measurer
	clock    Clock
	log      *zap.SugaredLogger
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Sampler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Sampler that measures with m.
func New(opts Options, m speedtest.Measurer, options ...Option) *Sampler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	s := &Sampler{
		opts:     opts,
		measurer: m,
		clock:    RealClock(),
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Run samples every Interval, starting StartDelay from now, until ctx is
// cancelled. A failed cycle is logged and skipped. Run returns nil on
// cancellation and an error only if a sample cannot be written.
func (s *Sampler) Run(ctx context.Context) error {
	sched := NewSchedule(s.opts.Interval, s.opts.StartDelay, s.clock.Now())
	s.log.Infow("sampler started",
		"interval", s.opts.Interval, "first_sample", sched.Next().In(s.opts.Location))

	for {
		if err := sleepUntil(ctx, s.clock, sched.Next()); err != nil {
			s.log.Info("sampler stopped")
			return nil
		}

		if _, err := s.SampleOnce(ctx); err != nil {
			if ctx.Err() != nil {
				s.log.Info("sampler stopped")
				return nil
			}
			if !IsMeasureError(err) {
				return err
			}
			s.log.Errorw("sampling cycle skipped", "error", err)
		}

		next, reset := sched.Advance(s.clock.Now())
		if reset {
			metrics.ScheduleResets.Inc()
			s.log.Warnw("sampling overran the interval, schedule reset", "next", next.In(s.opts.Location))
		} else {
			s.log.Debugw("next sample scheduled", "next", next.In(s.opts.Location))
		}
	}
}

// MeasureError wraps a measurement that failed after all retries.
type MeasureError struct {
	Err error
}

func (e *MeasureError) Error() string { return "measuring: " + e.Err.Error() }
func (e *MeasureError) Unwrap() error { return e.Err }

// IsMeasureError reports whether err is a *MeasureError.
func IsMeasureError(err error) bool {
	var me *MeasureError
	return errors.As(err, &me)
}

// SampleOnce takes one measurement and appends it to the dataset of the
// current month. The timestamp is the time the sample started, truncated to
// the second.
func (s *Sampler) SampleOnce(ctx context.Context) (*dataset.Sample, error) {
	started := s.clock.Now()
	stamp := started.In(s.opts.Location).Truncate(time.Second)

	var result *speedtest.Result
	err := s.opts.Retry.Do(ctx, s.clock, func(ctx context.Context, attempt int) error {
		res, err := s.measurer.Measure(ctx)
		if err != nil {
			s.log.Warnw("measurement attempt failed", "attempt", attempt, "error", err)
			return err
		}
		result = res
		return nil
	})
	metrics.MeasureDuration.Observe(s.clock.Now().Sub(started).Seconds())
	if err != nil {
		metrics.Samples.WithLabelValues("failed").Inc()
		return nil, &MeasureError{Err: err}
	}

	sample := dataset.Sample{
		Timestamp: stamp,
		Server:    result.Server,
		Download:  result.Download,
		Upload:    result.Upload,
		Ping:      result.Ping,
	}
	path, err := dataset.AppendSample(s.opts.SamplesDir, s.opts.Extension, sample)
	if err != nil {
		metrics.Samples.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("appending sample: %w", err)
	}

	metrics.Samples.WithLabelValues("ok").Inc()
	metrics.LastSample.WithLabelValues("download").Set(sample.Download)
	metrics.LastSample.WithLabelValues("upload").Set(sample.Upload)
	metrics.LastSample.WithLabelValues("ping").Set(sample.Ping)
	metrics.LastSampleTime.Set(float64(stamp.Unix()))

	s.log.Infow("sample recorded",
		"dataset", path,
		"server", sample.Server,
		"download", sample.Download,
		"upload", sample.Upload,
		"ping", sample.Ping,
	)
	return &sample, nil
}

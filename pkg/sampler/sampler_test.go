package sampler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/speedlog/pkg/speedtest"
)

// fakeClock advances only when waited on or told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.Advance(d)
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptedMeasurer returns errs[i] for call i (nil means success), takes
// took of fake time per call and cancels after stopAfter calls.
type scriptedMeasurer struct {
	clock     *fakeClock
	took      time.Duration
	errs      []error
	stopAfter int
	cancel    context.CancelFunc

	calls   int
	started []time.Time
}

func (m *scriptedMeasurer) Measure(ctx context.Context) (*speedtest.Result, error) {
	m.started = append(m.started, m.clock.Now())
	m.clock.Advance(m.took)
	i := m.calls
	m.calls++
	if m.stopAfter > 0 && m.calls >= m.stopAfter {
		m.cancel()
	}
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	return &speedtest.Result{Server: "http://speed.example/", Ping: 12.5, Download: 1e8, Upload: 2e7}, nil
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestSchedule_FixedCadence(t *testing.T) {
	t0 := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSchedule(time.Hour, 20*time.Second, t0)
	assert.Equal(t, t0.Add(20*time.Second), s.Next())

	// A short sample keeps the hourly grid.
	next, reset := s.Advance(t0.Add(20*time.Second + 100*time.Second))
	assert.False(t, reset)
	assert.Equal(t, t0.Add(time.Hour+20*time.Second), next)

	next, reset = s.Advance(next.Add(90 * time.Second))
	assert.False(t, reset)
	assert.Equal(t, t0.Add(2*time.Hour+20*time.Second), next)
}

func TestSchedule_ResetAfterOverrun(t *testing.T) {
	t0 := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSchedule(3600*time.Second, 20*time.Second, t0)

	now := s.Next().Add(4000 * time.Second)
	next, reset := s.Advance(now)
	assert.True(t, reset)
	assert.Equal(t, now.Add(20*time.Second), next)
	assert.Equal(t, next, s.Next())
}

func TestSchedule_ExactlyOnTimeIsNotOverrun(t *testing.T) {
	t0 := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSchedule(time.Hour, 0, t0)

	next, reset := s.Advance(t0.Add(time.Hour))
	assert.False(t, reset)
	assert.Equal(t, t0.Add(time.Hour), next)
}

func TestRun_WritesMonthlyDatasets(t *testing.T) {
	loc := berlin(t)
	dir := t.TempDir()
	clock := &fakeClock{now: time.Date(2021, 3, 31, 23, 59, 30, 500, loc)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := &scriptedMeasurer{clock: clock, took: 10 * time.Second, stopAfter: 2, cancel: cancel}

	s := New(Options{
		SamplesDir: dir,
		Extension:  ".csv",
		Location:   loc,
		Interval:   time.Hour,
		StartDelay: 20 * time.Second,
	}, m, WithClock(clock))

	require.NoError(t, s.Run(ctx))
	require.Len(t, m.started, 2)
	assert.Equal(t, time.Date(2021, 3, 31, 23, 59, 50, 500, loc), m.started[0])
	assert.Equal(t, time.Date(2021, 4, 1, 0, 59, 50, 500, loc), m.started[1])

	march := readLines(t, filepath.Join(dir, "202103.csv"))
	assert.Equal(t, []string{
		"timestamp,protocol,download,upload,ping",
		"2021-03-31 23:59:50+02:00,url='http://speed.example/',100000000,20000000,12.5",
	}, march)

	april := readLines(t, filepath.Join(dir, "202104.csv"))
	assert.Equal(t, []string{
		"timestamp,protocol,download,upload,ping",
		"2021-04-01 00:59:50+02:00,url='http://speed.example/',100000000,20000000,12.5",
	}, april)
}

func TestRun_OverrunResetsSchedule(t *testing.T) {
	loc := berlin(t)
	t0 := time.Date(2021, 3, 10, 8, 0, 0, 0, loc)
	clock := &fakeClock{now: t0}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := &scriptedMeasurer{clock: clock, took: 4000 * time.Second, stopAfter: 2, cancel: cancel}

	s := New(Options{
		SamplesDir: t.TempDir(),
		Extension:  ".csv",
		Location:   loc,
		Interval:   3600 * time.Second,
		StartDelay: 20 * time.Second,
	}, m, WithClock(clock))

	require.NoError(t, s.Run(ctx))
	require.Len(t, m.started, 2)

	first := t0.Add(20 * time.Second)
	assert.Equal(t, first, m.started[0])
	// finished at first+4000s, which is past first+3600s
	assert.Equal(t, first.Add(4000*time.Second+20*time.Second), m.started[1])
}

func TestRun_FailedCycleIsSkipped(t *testing.T) {
	loc := berlin(t)
	dir := t.TempDir()
	t0 := time.Date(2021, 3, 10, 8, 0, 0, 0, loc)
	clock := &fakeClock{now: t0}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	boom := errors.New("boom")
	m := &scriptedMeasurer{
		clock:     clock,
		took:      time.Second,
		errs:      []error{boom, boom, nil},
		stopAfter: 3,
		cancel:    cancel,
	}

	s := New(Options{
		SamplesDir: dir,
		Extension:  ".csv",
		Location:   loc,
		Interval:   time.Hour,
		StartDelay: 20 * time.Second,
		Retry:      RetryPolicy{Retries: 1, Backoff: 30 * time.Second},
	}, m, WithClock(clock))

	require.NoError(t, s.Run(ctx))
	require.Len(t, m.started, 3)

	first := t0.Add(20 * time.Second)
	assert.Equal(t, first, m.started[0])
	assert.Equal(t, first.Add(time.Second+30*time.Second), m.started[1])
	// the second cycle stays on the hourly grid
	assert.Equal(t, first.Add(time.Hour), m.started[2])

	lines := readLines(t, filepath.Join(dir, "202103.csv"))
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "2021-03-10 09:00:20+01:00,"))
}

func TestRun_CancelledBeforeFirstSample(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clock := &fakeClock{now: time.Now()}
	m := &scriptedMeasurer{clock: clock}
	s := New(Options{SamplesDir: t.TempDir(), Extension: ".csv", Interval: time.Hour}, m, WithClock(clock))

	require.NoError(t, s.Run(ctx))
	assert.Zero(t, m.calls)
}

func TestRun_UnwritableDatasetIsFatal(t *testing.T) {
	clock := &fakeClock{now: time.Date(2021, 3, 10, 8, 0, 0, 0, time.UTC)}
	m := &scriptedMeasurer{clock: clock}
	s := New(Options{
		SamplesDir: filepath.Join(t.TempDir(), "missing"),
		Extension:  ".csv",
		Interval:   time.Hour,
	}, m, WithClock(clock))

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.False(t, IsMeasureError(err))
}

func TestSampleOnce_MeasureError(t *testing.T) {
	clock := &fakeClock{now: time.Date(2021, 3, 10, 8, 0, 0, 0, time.UTC)}
	boom := errors.New("boom")
	m := &scriptedMeasurer{clock: clock, errs: []error{boom}}
	s := New(Options{SamplesDir: t.TempDir(), Extension: ".csv"}, m, WithClock(clock))

	_, err := s.SampleOnce(context.Background())
	require.Error(t, err)
	assert.True(t, IsMeasureError(err))
	assert.ErrorIs(t, err, boom)
}

func TestRetryPolicy_BackoffDoubles(t *testing.T) {
	t0 := time.Date(2021, 3, 10, 8, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	var at []time.Time

	p := RetryPolicy{Retries: 3, Backoff: 10 * time.Second}
	err := p.Do(context.Background(), clock, func(ctx context.Context, attempt int) error {
		at = append(at, clock.Now())
		return errors.New("nope")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 4 attempts")
	assert.Equal(t, []time.Time{
		t0,
		t0.Add(10 * time.Second),
		t0.Add(30 * time.Second),
		t0.Add(70 * time.Second),
	}, at)
}

func TestRetryPolicy_AttemptTimeout(t *testing.T) {
	p := RetryPolicy{Timeout: 10 * time.Millisecond, Retries: 1, Backoff: time.Millisecond}
	attempts := 0
	err := p.Do(context.Background(), RealClock(), func(ctx context.Context, attempt int) error {
		attempts++
		<-ctx.Done()
		return ctx.Err()
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, attempts)
}

func TestRetryPolicy_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{Retries: 5, Backoff: time.Hour}
	attempts := 0
	err := p.Do(ctx, RealClock(), func(ctx context.Context, attempt int) error {
		attempts++
		cancel()
		return errors.New("nope")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

package speedtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/stat"
)

// ErrNoServers is returned when no candidate servers are configured.
var ErrNoServers = errors.New("no speed test servers configured")

// BestServer returns the candidate with the lowest single-request latency.
// Unreachable candidates are skipped; if none answers, the errors of all
// candidates are returned combined.
func (m *HTTPMeasurer) BestServer(ctx context.Context) (string, error) {
	if len(m.opts.Servers) == 0 {
		return "", ErrNoServers
	}

	var (
		best     string
		bestRTT  time.Duration
		combined error
	)
	for _, server := range m.opts.Servers {
		server = strings.TrimRight(server, "/")
		rtt, err := m.latency(ctx, server)
		if err != nil {
			m.log.Debugw("server unreachable", "server", server, "error", err)
			combined = multierr.Append(combined, err)
			continue
		}
		if best == "" || rtt < bestRTT {
			best, bestRTT = server, rtt
		}
	}
	if best == "" {
		return "", fmt.Errorf("selecting server: %w", combined)
	}
	return best, nil
}

// Ping returns the median latency in milliseconds over PingCount requests.
func (m *HTTPMeasurer) Ping(ctx context.Context, server string) (float64, error) {
	samples := make([]float64, 0, m.opts.PingCount)
	for i := 0; i < m.opts.PingCount; i++ {
		rtt, err := m.latency(ctx, server)
		if err != nil {
			return 0, err
		}
		samples = append(samples, float64(rtt)/float64(time.Millisecond))
	}
	sort.Float64s(samples)
	return stat.Quantile(0.5, stat.Empirical, samples, nil), nil
}

func (m *HTTPMeasurer) latency(ctx context.Context, server string) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+"/latency", nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("requesting %s: %w", req.URL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	rtt := time.Since(start)

	if err := checkStatus(resp); err != nil {
		return 0, err
	}
	return rtt, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", resp.Request.Method, resp.Request.URL, resp.StatusCode)
	}
	return nil
}

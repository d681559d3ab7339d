package speedtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// Download returns the download throughput in bit/s.
func (m *HTTPMeasurer) Download(ctx context.Context, server string) (float64, error) {
	return m.transfer(ctx, m.opts.DownloadBytes, func(ctx context.Context, size int64) (int64, error) {
		url := server + "/download?size=" + strconv.FormatInt(size, 10)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return 0, fmt.Errorf("creating request: %w", err)
		}
		resp, err := m.client.Do(req)
		if err != nil {
			return 0, fmt.Errorf("downloading: %w", err)
		}
		defer resp.Body.Close()
		if err := checkStatus(resp); err != nil {
			return 0, err
		}
		n, err := io.Copy(io.Discard, resp.Body)
		if err != nil {
			return n, fmt.Errorf("reading download: %w", err)
		}
		return n, nil
	})
}

// Upload returns the upload throughput in bit/s.
func (m *HTTPMeasurer) Upload(ctx context.Context, server string) (float64, error) {
	return m.transfer(ctx, m.opts.UploadBytes, func(ctx context.Context, size int64) (int64, error) {
		body := io.LimitReader(rand.Reader, size)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/upload", body)
		if err != nil {
			return 0, fmt.Errorf("creating request: %w", err)
		}
		req.ContentLength = size
		req.Header.Set("Content-Type", "application/octet-stream")

		resp, err := m.client.Do(req)
		if err != nil {
			return 0, fmt.Errorf("uploading: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if err := checkStatus(resp); err != nil {
			return 0, err
		}
		return size, nil
	})
}

// transfer splits total across the configured streams, runs them
// concurrently and converts the bytes moved to bit/s over the wall time.
func (m *HTTPMeasurer) transfer(ctx context.Context, total int64, stream func(context.Context, int64) (int64, error)) (float64, error) {
	streams := int64(m.opts.Streams)
	chunk := total / streams
	if chunk <= 0 {
		chunk, streams = total, 1
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		moved int64
		errs  error
	)
	start := time.Now()
	for i := int64(0); i < streams; i++ {
		size := chunk
		if i == streams-1 {
			size = total - chunk*(streams-1)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := stream(ctx, size)
			mu.Lock()
			defer mu.Unlock()
			moved += n
			errs = multierr.Append(errs, err)
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	if errs != nil {
		return 0, errs
	}
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	return float64(moved) * 8 / elapsed.Seconds(), nil
}

package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PeriodFile returns the dataset file name for the calendar month of t,
// e.g. 202103.csv.
func PeriodFile(t time.Time, ext string) string {
	return fmt.Sprintf("%04d%02d%s", t.Year(), int(t.Month()), ext)
}

// Sample is a live measurement as appended by the sampler.
type Sample struct {
	Timestamp time.Time
	Server    string
	Download  float64 // bit/s
	Upload    float64 // bit/s
	Ping      float64 // ms
}

// AppendSample appends s to the dataset file in dir for the month of the
// sample, writing the header first if the file is new. No duplicate check is
// done. It returns the path written to.
func AppendSample(dir, ext string, s Sample) (string, error) {
	path := filepath.Join(dir, PeriodFile(s.Timestamp, ext))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G304 -- path is built from the configured directory
	if err != nil {
		return "", fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat dataset %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Columns); err != nil {
			return "", fmt.Errorf("writing header to %s: %w", path, err)
		}
	}

	row := []string{
		FormatTimestamp(s.Timestamp),
		fmt.Sprintf("url='%s'", s.Server),
		FormatFloat(s.Download),
		FormatFloat(s.Upload),
		FormatFloat(s.Ping),
	}
	if err := w.Write(row); err != nil {
		return "", fmt.Errorf("writing sample to %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("writing sample to %s: %w", path, err)
	}
	return path, nil
}

package parser

import (
	"strconv"
	"strings"
)

// field describes one value line of a record block.
type field struct {
	name   string
	prefix string
	suffix string
	scale  float64 // 0 keeps the value as text
}

// Log values are mebibytes per second; datasets store bytes per second.
const mebibyte = 1024 * 1024

var (
	pingField     = field{name: "ping", prefix: "Ping: ", suffix: " ms"}
	downloadField = field{name: "download", prefix: "Download: ", suffix: " Mbit/s", scale: mebibyte}
	uploadField   = field{name: "upload", prefix: "Upload: ", suffix: " Mbit/s", scale: mebibyte}
)

// extract returns the text between prefix and suffix.
func (f field) extract(line string) (string, bool) {
	if len(line) < len(f.prefix)+len(f.suffix) {
		return "", false
	}
	if !strings.HasPrefix(line, f.prefix) || !strings.HasSuffix(line, f.suffix) {
		return "", false
	}
	return line[len(f.prefix) : len(line)-len(f.suffix)], true
}

// value parses the extracted text and applies the field scale.
func (f field) value(line string) (float64, bool) {
	raw, ok := f.extract(line)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v * f.scale, true
}

package parser

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func newTestReader(t *testing.T, lines ...string) *Reader {
	t.Helper()
	return NewReader("202103.log", lines, NewTimestampParser(berlin(t)))
}

func TestReader_WellFormedBlock(t *testing.T) {
	r := newTestReader(t,
		"Mon Mar  3 10:15:00 CEST 2021",
		"Ping: 12.5 ms",
		"Download: 10.0 Mbit/s",
		"Upload: 2.5 Mbit/s",
	)

	ts, ok := r.ReadTimestamp()
	if !ok {
		t.Fatal("ReadTimestamp() failed")
	}
	if !ts.Equal(time.Date(2021, 3, 3, 10, 15, 0, 0, berlin(t))) {
		t.Errorf("timestamp = %v", ts)
	}

	ping, ok := r.ReadPing()
	if !ok || ping != "12.5" {
		t.Errorf("ReadPing() = %q, %v; want 12.5, true", ping, ok)
	}

	down, ok := r.ReadDownload()
	if !ok || down != 10*1048576 {
		t.Errorf("ReadDownload() = %v, %v; want %v", down, ok, 10*1048576)
	}

	up, ok := r.ReadUpload()
	if !ok || up != 2.5*1048576 {
		t.Errorf("ReadUpload() = %v, %v; want %v", up, ok, 2.5*1048576)
	}

	if got := r.Protocol(); got != "202103.log@3" {
		t.Errorf("Protocol() = %q, want 202103.log@3", got)
	}
	if got := r.LinesLeft(); got != 1 {
		t.Errorf("LinesLeft() = %d, want 1", got)
	}
}

func TestReader_LinesLeftStartsPastEnd(t *testing.T) {
	r := newTestReader(t, "a", "b", "c", "d")
	if got := r.LinesLeft(); got != 5 {
		t.Errorf("LinesLeft() = %d, want 5 before the first read", got)
	}
}

func TestReader_TimestampFailureDoesNotRewind(t *testing.T) {
	r := newTestReader(t, "garbage", "Mon Mar  3 10:15:00 CEST 2021")

	if _, ok := r.ReadTimestamp(); ok {
		t.Fatal("ReadTimestamp() succeeded on garbage")
	}
	if _, ok := r.ReadTimestamp(); !ok {
		t.Error("ReadTimestamp() should read the following line")
	}
}

func TestReader_WeekdayButUnparsable(t *testing.T) {
	r := newTestReader(t, "Mon is a good day", "Ping: 1 ms")
	if _, ok := r.ReadTimestamp(); ok {
		t.Fatal("ReadTimestamp() succeeded on a non-timestamp weekday line")
	}
	if r.Protocol() != "202103.log@0" {
		t.Errorf("Protocol() = %q, cursor should stay on the consumed line", r.Protocol())
	}
}

func TestReader_ResynchronizesOnNextRecord(t *testing.T) {
	// The second block lacks its Upload line; the reader must not swallow the
	// third block's timestamp.
	r := newTestReader(t,
		"Mon Mar  3 10:15:00 CEST 2021",
		"Ping: 12 ms",
		"Download: 10 Mbit/s",
		"Tue Mar  4 10:15:00 CET 2021",
		"Ping: 13 ms",
		"Download: 11 Mbit/s",
	)

	if _, ok := r.ReadTimestamp(); !ok {
		t.Fatal("first timestamp failed")
	}
	if _, ok := r.ReadPing(); !ok {
		t.Fatal("first ping failed")
	}
	if _, ok := r.ReadDownload(); !ok {
		t.Fatal("first download failed")
	}
	if _, ok := r.ReadUpload(); ok {
		t.Fatal("upload should fail on a timestamp line")
	}

	ts, ok := r.ReadTimestamp()
	if !ok {
		t.Fatal("timestamp after resync failed")
	}
	if ts.Day() != 4 {
		t.Errorf("resynced timestamp day = %d, want 4", ts.Day())
	}
}

func TestReader_GenericMismatchDoesNotRewind(t *testing.T) {
	r := newTestReader(t,
		"Mon Mar  3 10:15:00 CEST 2021",
		"Jitter: 3 ms",
		"Ping: 12 ms",
	)
	r.ReadTimestamp()
	if _, ok := r.ReadPing(); ok {
		t.Fatal("ReadPing() accepted a wrong prefix")
	}
	if ping, ok := r.ReadPing(); !ok || ping != "12" {
		t.Errorf("ReadPing() = %q, %v; the bad line should have been dropped", ping, ok)
	}
}

func TestReader_FieldMismatches(t *testing.T) {
	tests := []struct {
		name string
		line string
		read func(*Reader) bool
	}{
		{"ping missing unit", "Ping: 12", func(r *Reader) bool { _, ok := r.ReadPing(); return ok }},
		{"ping prefix only", "Ping: ", func(r *Reader) bool { _, ok := r.ReadPing(); return ok }},
		{"download not numeric", "Download: fast Mbit/s", func(r *Reader) bool { _, ok := r.ReadDownload(); return ok }},
		{"download wrong unit", "Download: 10 Kbit/s", func(r *Reader) bool { _, ok := r.ReadDownload(); return ok }},
		{"upload as download", "Download: 10 Mbit/s", func(r *Reader) bool { _, ok := r.ReadUpload(); return ok }},
		{"upload shorter than affixes", "Upload:", func(r *Reader) bool { _, ok := r.ReadUpload(); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReader(t, tt.line)
			if tt.read(r) {
				t.Errorf("read accepted %q", tt.line)
			}
		})
	}
}

func TestReader_EndOfFile(t *testing.T) {
	r := newTestReader(t, "Mon Mar  3 10:15:00 CEST 2021")
	r.ReadTimestamp()
	if _, ok := r.ReadPing(); ok {
		t.Error("ReadPing() succeeded past end of file")
	}
	if _, ok := r.ReadDownload(); ok {
		t.Error("ReadDownload() succeeded past end of file")
	}
	if got := r.LinesLeft(); got != 0 {
		t.Errorf("LinesLeft() = %d, want 0", got)
	}
}

func TestCursor_RewindAtStart(t *testing.T) {
	c := NewCursor([]string{"Mon Mar  3 10:15:00 CEST 2021"})
	line, _ := c.Next()
	if c.RewindOneIfTimestampLike(line) {
		t.Error("cursor rewound from the first line")
	}
	if peek, ok := c.Peek(); ok {
		t.Errorf("Peek() = %q, want end of file", peek)
	}
}

func TestCursor_PeekDoesNotAdvance(t *testing.T) {
	c := NewCursor([]string{"a", "b"})
	if line, _ := c.Peek(); line != "a" {
		t.Errorf("Peek() = %q, want a", line)
	}
	if line, _ := c.Next(); line != "a" {
		t.Errorf("Next() = %q, want a", line)
	}
	if c.Index() != 0 || c.Len() != 2 {
		t.Errorf("Index() = %d, Len() = %d", c.Index(), c.Len())
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\nb\n", []string{"a", "b"}},
		{"a\r\nb\r\n", []string{"a", "b"}},
		{"a\rb", []string{"a", "b"}},
		{"a\n\nb", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		if got := SplitLines(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitLines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "202103_speed.log")
	content := "Mon Mar  3 10:15:00 CEST 2021\r\nPing: 12 ms\r\nDownload: 1 Mbit/s\r\nUpload: 1 Mbit/s\r\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := OpenReader(path, NewTimestampParser(berlin(t)))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	if r.Name() != "202103_speed.log" {
		t.Errorf("Name() = %q", r.Name())
	}
	if r.LinesLeft() != 5 {
		t.Errorf("LinesLeft() = %d, want 5", r.LinesLeft())
	}
}

func TestOpenReader_Missing(t *testing.T) {
	if _, err := OpenReader("/nonexistent/x.log", NewTimestampParser(nil)); err == nil {
		t.Error("OpenReader() expected error for missing file")
	}
}

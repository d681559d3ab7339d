package parser

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}
	return loc
}

func TestContainsWeekday(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Mon Mar  3 10:15:00 CEST 2021", true},
		{"Mo 3. Mär 10:15:00 CEST 2021", true},
		{"So 7. Mär 23:00:01 CET 2021", true},
		{"Sun Mar  7 23:00:01 CET 2021", true},
		{"Ping: 12 ms", false},
		{"Download: 93.10 Mbit/s", false},
		{"Monday Mar  3 10:15:00 CEST 2021", false},
		{" Mon Mar  3 10:15:00 CEST 2021", false},
		{"Mon", true},
		{"", false},
	}

	for _, tt := range tests {
		if got := ContainsWeekday(tt.line); got != tt.want {
			t.Errorf("ContainsWeekday(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestTimestampParser_Parse(t *testing.T) {
	loc := berlin(t)
	p := NewTimestampParser(loc)

	tests := []struct {
		name   string
		line   string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "english month first",
			line:   "Mon Mar  3 10:15:00 CEST 2021",
			want:   time.Date(2021, 3, 3, 10, 15, 0, 0, loc),
			wantOK: true,
		},
		{
			name:   "german day first",
			line:   "Mo 3. Mär 10:15:00 CEST 2021",
			want:   time.Date(2021, 3, 3, 10, 15, 0, 0, loc),
			wantOK: true,
		},
		{
			name:   "german month first",
			line:   "Di Okt 12 08:00:05 CEST 2021",
			want:   time.Date(2021, 10, 12, 8, 0, 5, 0, loc),
			wantOK: true,
		},
		{
			name:   "english day first",
			line:   "Fri 24. Dec 18:30:00 CET 2021",
			want:   time.Date(2021, 12, 24, 18, 30, 0, 0, loc),
			wantOK: true,
		},
		{
			name:   "two digit day single space",
			line:   "Sa Mai 15 00:00:00 CEST 2021",
			want:   time.Date(2021, 5, 15, 0, 0, 0, 0, loc),
			wantOK: true,
		},
		{
			name:   "zone abbreviation ignored",
			line:   "Sun Jul  4 12:00:00 CET 2021",
			want:   time.Date(2021, 7, 4, 12, 0, 0, 0, loc),
			wantOK: true,
		},
		{name: "unknown month", line: "Mon Foo  3 10:15:00 CEST 2021"},
		{name: "unknown zone", line: "Mon Mar  3 10:15:00 UTC 2021"},
		{name: "trailing text", line: "Mon Mar  3 10:15:00 CEST 2021 extra"},
		{name: "impossible date", line: "Mon Feb 30 10:15:00 CET 2021"},
		{name: "impossible hour", line: "Mon Mar  3 25:15:00 CET 2021"},
		{name: "not a timestamp", line: "Ping: 12 ms"},
		{name: "empty", line: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Parse(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestTimestampParser_LocalesAgree(t *testing.T) {
	p := NewTimestampParser(berlin(t))

	en, ok := p.Parse("Mon Mar  3 10:15:00 CEST 2021")
	if !ok {
		t.Fatal("english layout did not parse")
	}
	de, ok := p.Parse("Mo 3. Mär 10:15:00 CEST 2021")
	if !ok {
		t.Fatal("german layout did not parse")
	}
	if !en.Equal(de) {
		t.Errorf("instants differ: %v vs %v", en, de)
	}
	if _, offset := en.Zone(); offset != 3600 {
		t.Errorf("offset = %d, want 3600 (CET in early March)", offset)
	}
}

func TestNewTimestampParser_NilLocation(t *testing.T) {
	p := NewTimestampParser(nil)
	if p.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", p.Location())
	}
}

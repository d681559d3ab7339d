package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// weekdays are the leading tokens that mark a timestamp line, in both the
// German and English locale.
var weekdays = map[string]bool{
	"Mo": true, "Di": true, "Mi": true, "Do": true, "Fr": true, "Sa": true, "So": true,
	"Mon": true, "Tue": true, "Wed": true, "Thu": true, "Fri": true, "Sat": true, "Sun": true,
}

// months maps English and German month abbreviations to their number.
var months = map[string]time.Month{
	"Jan": time.January,
	"Feb": time.February,
	"Mär": time.March, "Mar": time.March,
	"Apr": time.April,
	"Mai": time.May, "May": time.May,
	"Jun": time.June,
	"Jul": time.July,
	"Aug": time.August,
	"Sep": time.September,
	"Okt": time.October, "Oct": time.October,
	"Nov": time.November,
	"Dez": time.December, "Dec": time.December,
}

var (
	// Mon Mar  3 10:15:00 CEST 2021
	monthFirstPattern = regexp.MustCompile(`^.*\w+ (\pL+) +(\d+) (\d\d):(\d\d):(\d\d) CES?T (\d{4})$`)
	// Mo 3. Mär 10:15:00 CEST 2021
	dayFirstPattern = regexp.MustCompile(`^.*\w+ (\d+)\. +(\pL+) (\d\d):(\d\d):(\d\d) CES?T (\d{4})$`)
)

// ContainsWeekday reports whether the first space-separated token of line is
// a weekday abbreviation. It is a cheap pre-check that decides whether a line
// could be a timestamp at all.
func ContainsWeekday(line string) bool {
	token, _, _ := strings.Cut(line, " ")
	return weekdays[token]
}

// TimestampParser converts date(1) style timestamp lines into instants.
//
// The time zone abbreviation in the text is matched but not interpreted:
// every timestamp is localized to the parser's location.
type TimestampParser struct {
	loc *time.Location
}

// NewTimestampParser creates a parser that localizes to loc (UTC if nil).
func NewTimestampParser(loc *time.Location) *TimestampParser {
	if loc == nil {
		loc = time.UTC
	}
	return &TimestampParser{loc: loc}
}

// Location returns the location timestamps are localized to.
func (p *TimestampParser) Location() *time.Location {
	return p.loc
}

// Parse extracts a timestamp from line. It returns false when neither
// layout matches or the date does not exist.
func (p *TimestampParser) Parse(line string) (time.Time, bool) {
	var monthName, day string
	m := monthFirstPattern.FindStringSubmatch(line)
	if m != nil {
		monthName, day = m[1], m[2]
	} else if m = dayFirstPattern.FindStringSubmatch(line); m != nil {
		day, monthName = m[1], m[2]
	} else {
		return time.Time{}, false
	}

	month, ok := months[monthName]
	if !ok {
		return time.Time{}, false
	}

	// The patterns guarantee digits, so only range errors are possible here.
	d, _ := strconv.Atoi(day)
	hour, _ := strconv.Atoi(m[3])
	minute, _ := strconv.Atoi(m[4])
	sec, _ := strconv.Atoi(m[5])
	year, _ := strconv.Atoi(m[6])

	if hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}

	ts := time.Date(year, month, d, hour, minute, sec, 0, p.loc)
	if ts.Day() != d || ts.Month() != month {
		return time.Time{}, false
	}
	return ts, true
}

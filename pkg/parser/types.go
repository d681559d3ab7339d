// Package parser reconstructs speed test measurements from free-text logfiles.
package parser

import (
	"time"
)

// Record is one measurement recovered from a logfile.
type Record struct {
	// Timestamp is the localized instant of the measurement.
	Timestamp time.Time

	// Protocol names the logfile and line the record was read from.
	Protocol string

	// Download and Upload are in bytes per second.
	Download float64
	Upload   float64

	// Ping is kept verbatim as it appeared in the log (milliseconds).
	Ping string
}

package sampler

import "time"

// Schedule tracks the next fire time of the sampler. Fire times advance by
// a fixed interval so they do not drift with the duration of a sample. If
// a sample overruns the next fire time, the schedule restarts at now plus
// the start delay instead of firing back-to-back.
type Schedule struct {
	Interval   time.Duration
	StartDelay time.Duration

	next time.Time
}

// NewSchedule returns a schedule whose first fire time is now + startDelay.
func NewSchedule(interval, startDelay time.Duration, now time.Time) *Schedule {
	return &Schedule{
		Interval:   interval,
		StartDelay: startDelay,
		next:       now.Add(startDelay),
	}
}

// Next returns the next fire time.
func (s *Schedule) Next() time.Time {
	return s.next
}

// Advance moves to the fire time after the current one and reports whether
// the schedule had to be reset because now is already past it.
func (s *Schedule) Advance(now time.Time) (time.Time, bool) {
	s.next = s.next.Add(s.Interval)
	if now.After(s.next) {
		s.next = now.Add(s.StartDelay)
		return s.next, true
	}
	return s.next, false
}

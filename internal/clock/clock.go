// Package clock provides an injectable source of "today" so that aging
// classification and reminder scheduling stay deterministic under test.
package clock

import "time"

type Clock interface {
	// Today returns the current date truncated to midnight UTC.
	Today() time.Time
}

type systemClock struct{}

func (systemClock) Today() time.Time {
	return Date(time.Now().UTC())
}

// System returns the wall-clock backed Clock.
func System() Clock { return systemClock{} }

// Fixed returns a Clock pinned to the date part of t.
type Fixed time.Time

func (f Fixed) Today() time.Time { return Date(time.Time(f)) }

// Date strips the time-of-day component, keeping a timezone-naive (UTC) date.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

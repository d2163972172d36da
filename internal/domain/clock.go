package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is the package time source; tests freeze it via SetClock so summary
// timestamps and load durations are reproducible.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock in UTC.
func Now() time.Time { return clock.Now().UTC() }

// Since returns the time elapsed since t according to the package clock.
func Since(t time.Time) time.Duration { return clock.Since(t) }

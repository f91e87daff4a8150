package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock abstracts time operations for testability. It is the subset of
// clockwork.Clock that the auction engine and timer workers need, so both
// clockwork.NewRealClock and clockwork.NewFakeClock satisfy it.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	NewTicker(d time.Duration) clockwork.Ticker
	NewTimer(d time.Duration) clockwork.Timer
}

// Real returns a Clock backed by the system clock.
func Real() Clock { return clockwork.NewRealClock() }

// Fake returns a controllable Clock for tests, frozen at t until advanced.
func Fake(t time.Time) *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(t)
}

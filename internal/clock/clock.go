// Package clock abstracts time for the scheduler and the numbering engine.
package clock

import (
	"time"

	"go.uber.org/fx"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func NewSystemClock() Clock { return systemClock{} }

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)

// Today truncates a clock reading to a pure UTC calendar date.
// All document dates in the system are date-only values at UTC midnight.
func Today(c Clock) time.Time {
	return DateOf(c.Now())
}

// DateOf drops the time-of-day component of t in UTC.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

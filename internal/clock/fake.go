package clock

import "time"

type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *FakeClock) SetDate(year int, month time.Month, day int) {
	c.now = time.Date(year, month, day, c.now.Hour(), c.now.Minute(), 0, 0, time.UTC)
}

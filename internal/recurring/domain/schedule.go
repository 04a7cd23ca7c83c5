package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidFrequency = errors.New("invalid_frequency")
	ErrInvalidDay       = errors.New("invalid_schedule_day")
	ErrInvalidMonth     = errors.New("invalid_schedule_month")
	ErrNoItems          = errors.New("no_items")
	ErrNotActive        = errors.New("schedule_not_active")
)

// NextFireDate computes the first occurrence strictly after the given date.
// Occurrences are pure UTC calendar dates. A schedule whose run is late does
// not backfill: advancing from today skips every missed occurrence.
func NextFireDate(s *Schedule, after time.Time) time.Time {
	after = dateOf(after)

	switch s.Frequency {
	case FreqDaily:
		return after.AddDate(0, 0, 1)

	case FreqWeekly:
		// ScheduleDay counts from Monday, time.Weekday from Sunday
		target := time.Weekday((s.ScheduleDay + 1) % 7)
		days := (int(target) - int(after.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return after.AddDate(0, 0, days)

	case FreqMonthly:
		candidate := anchoredDate(after.Year(), after.Month(), s.ScheduleDay)
		if candidate.After(after) {
			return candidate
		}
		next := after.AddDate(0, 0, -after.Day()+1).AddDate(0, 1, 0)
		return anchoredDate(next.Year(), next.Month(), s.ScheduleDay)

	case FreqQuarterly:
		year, month := after.Year(), after.Month()
		for i := 0; i < 13; i++ {
			if monthInQuarterSlot(month, s.QuarterMonth) {
				candidate := anchoredDate(year, month, s.ScheduleDay)
				if candidate.After(after) {
					return candidate
				}
			}
			month++
			if month > time.December {
				month = time.January
				year++
			}
		}
		return after // unreachable for valid schedules

	case FreqYearly:
		candidate := anchoredDate(after.Year(), time.Month(s.ScheduleMonth), s.ScheduleDay)
		if candidate.After(after) {
			return candidate
		}
		return anchoredDate(after.Year()+1, time.Month(s.ScheduleMonth), s.ScheduleDay)
	}

	return after.AddDate(0, 0, 1)
}

// Advance moves the schedule past a triggered occurrence. The next date is
// computed from the trigger day, never from the stored date, so a schedule
// that sat idle produces exactly one invoice and then resumes its cadence.
func Advance(s *Schedule, triggeredAt time.Time) {
	s.NextInvoiceDate = NextFireDate(s, triggeredAt)
}

// Due reports whether the schedule should fire on the given day.
func (s *Schedule) Due(today time.Time) bool {
	return s.Active && !s.NextInvoiceDate.After(dateOf(today))
}

// Validate checks the frequency fields as a unit.
func (s *Schedule) Validate() error {
	switch s.Frequency {
	case FreqDaily:
		return nil
	case FreqWeekly:
		if s.ScheduleDay < 0 || s.ScheduleDay > 6 {
			return ErrInvalidDay
		}
	case FreqMonthly:
		if s.ScheduleDay < 1 || s.ScheduleDay > 31 {
			return ErrInvalidDay
		}
	case FreqQuarterly:
		if s.ScheduleDay < 1 || s.ScheduleDay > 31 {
			return ErrInvalidDay
		}
		if s.QuarterMonth < 1 || s.QuarterMonth > 3 {
			return ErrInvalidMonth
		}
	case FreqYearly:
		if s.ScheduleDay < 1 || s.ScheduleDay > 31 {
			return ErrInvalidDay
		}
		if s.ScheduleMonth < 1 || s.ScheduleMonth > 12 {
			return ErrInvalidMonth
		}
	default:
		return ErrInvalidFrequency
	}
	return nil
}

// anchoredDate clamps the anchor day into the month instead of rolling over.
// January 31 anchors to February 28 (29 in leap years), never March 3.
func anchoredDate(year int, month time.Month, day int) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// monthInQuarterSlot reports whether the month occupies the given slot of
// its quarter. Slot 1 matches January, April, July and October.
func monthInQuarterSlot(month time.Month, slot int) bool {
	return int(month-1)%3+1 == slot
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

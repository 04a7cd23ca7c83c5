package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextFireDateDaily(t *testing.T) {
	s := &Schedule{Frequency: FreqDaily}
	assert.Equal(t, day(2025, time.June, 24), NextFireDate(s, day(2025, time.June, 23)))
}

func TestNextFireDateWeekly(t *testing.T) {
	// 2025-06-23 is a Monday
	monday := day(2025, time.June, 23)

	tests := []struct {
		name        string
		scheduleDay int
		after       time.Time
		want        time.Time
	}{
		{"same weekday jumps a full week", 0, monday, day(2025, time.June, 30)},
		{"later weekday stays in the week", 3, monday, day(2025, time.June, 26)},
		{"earlier weekday wraps", 0, day(2025, time.June, 26), day(2025, time.June, 30)},
		{"sunday is day six", 6, monday, day(2025, time.June, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schedule{Frequency: FreqWeekly, ScheduleDay: tt.scheduleDay}
			assert.Equal(t, tt.want, NextFireDate(s, tt.after))
		})
	}
}

func TestNextFireDateMonthlyClamp(t *testing.T) {
	s := &Schedule{Frequency: FreqMonthly, ScheduleDay: 31}

	// short months clamp without moving the anchor
	assert.Equal(t, day(2025, time.February, 28), NextFireDate(s, day(2025, time.January, 31)))
	assert.Equal(t, day(2025, time.March, 31), NextFireDate(s, day(2025, time.February, 28)))
	assert.Equal(t, day(2028, time.February, 29), NextFireDate(s, day(2028, time.January, 31)))
}

func TestNextFireDateMonthly(t *testing.T) {
	s := &Schedule{Frequency: FreqMonthly, ScheduleDay: 15}

	assert.Equal(t, day(2025, time.June, 15), NextFireDate(s, day(2025, time.June, 1)))
	assert.Equal(t, day(2025, time.July, 15), NextFireDate(s, day(2025, time.June, 15)))
	assert.Equal(t, day(2026, time.January, 15), NextFireDate(s, day(2025, time.December, 20)))
}

func TestNextFireDateQuarterly(t *testing.T) {
	s := &Schedule{Frequency: FreqQuarterly, ScheduleDay: 15, QuarterMonth: 1}

	assert.Equal(t, day(2025, time.January, 15), NextFireDate(s, day(2025, time.January, 1)))
	assert.Equal(t, day(2025, time.April, 15), NextFireDate(s, day(2025, time.January, 15)))
	assert.Equal(t, day(2025, time.July, 15), NextFireDate(s, day(2025, time.June, 23)))
	assert.Equal(t, day(2026, time.January, 15), NextFireDate(s, day(2025, time.October, 15)))

	second := &Schedule{Frequency: FreqQuarterly, ScheduleDay: 1, QuarterMonth: 2}
	assert.Equal(t, day(2025, time.May, 1), NextFireDate(second, day(2025, time.February, 1)))
}

func TestNextFireDateYearly(t *testing.T) {
	s := &Schedule{Frequency: FreqYearly, ScheduleMonth: 2, ScheduleDay: 29}

	// leap anchor clamps in common years and comes back in leap years
	assert.Equal(t, day(2025, time.February, 28), NextFireDate(s, day(2024, time.February, 29)))
	assert.Equal(t, day(2028, time.February, 29), NextFireDate(s, day(2027, time.March, 1)))
}

func TestAdvanceSkipsMissedOccurrences(t *testing.T) {
	s := &Schedule{
		Frequency:       FreqMonthly,
		ScheduleDay:     1,
		Active:          true,
		NextInvoiceDate: day(2025, time.March, 1),
	}

	// the sweep catches up in June: one invoice, then back on cadence
	today := day(2025, time.June, 23)
	assert.True(t, s.Due(today))
	Advance(s, today)
	assert.Equal(t, day(2025, time.July, 1), s.NextInvoiceDate)
	assert.False(t, s.Due(today))
}

func TestDue(t *testing.T) {
	s := &Schedule{Active: true, NextInvoiceDate: day(2025, time.June, 23)}
	assert.True(t, s.Due(day(2025, time.June, 23)))
	assert.True(t, s.Due(day(2025, time.June, 24)))
	assert.False(t, s.Due(day(2025, time.June, 22)))

	s.Active = false
	assert.False(t, s.Due(day(2025, time.June, 23)))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&Schedule{Frequency: FreqDaily}).Validate())
	assert.NoError(t, (&Schedule{Frequency: FreqWeekly, ScheduleDay: 6}).Validate())
	assert.NoError(t, (&Schedule{Frequency: FreqMonthly, ScheduleDay: 31}).Validate())
	assert.NoError(t, (&Schedule{Frequency: FreqQuarterly, ScheduleDay: 1, QuarterMonth: 3}).Validate())
	assert.NoError(t, (&Schedule{Frequency: FreqYearly, ScheduleDay: 29, ScheduleMonth: 2}).Validate())

	assert.ErrorIs(t, (&Schedule{Frequency: "biweekly"}).Validate(), ErrInvalidFrequency)
	assert.ErrorIs(t, (&Schedule{Frequency: FreqWeekly, ScheduleDay: 7}).Validate(), ErrInvalidDay)
	assert.ErrorIs(t, (&Schedule{Frequency: FreqMonthly, ScheduleDay: 0}).Validate(), ErrInvalidDay)
	assert.ErrorIs(t, (&Schedule{Frequency: FreqQuarterly, ScheduleDay: 1, QuarterMonth: 4}).Validate(), ErrInvalidMonth)
	assert.ErrorIs(t, (&Schedule{Frequency: FreqYearly, ScheduleDay: 1, ScheduleMonth: 13}).Validate(), ErrInvalidMonth)
}

package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// date builds the UTC midnight date used throughout this package's tests.
func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// dptr returns a pointer to a UTC midnight date.
func dptr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}

func TestNormalizeDate_StripsClockAndZone(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	in := time.Date(2025, 6, 15, 23, 45, 12, 999, loc)

	got := NormalizeDate(in)

	assert.Equal(t, date(2025, 6, 15), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February)) // leap year
	assert.Equal(t, 28, DaysInMonth(2023, time.February))
	assert.Equal(t, 28, DaysInMonth(2100, time.February)) // century, not leap
	assert.Equal(t, 30, DaysInMonth(2025, time.April))
	assert.Equal(t, 31, DaysInMonth(2025, time.December))
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	// Jan 31 + 1 month lands on the last day of February, never March.
	assert.Equal(t, date(2024, 2, 29), AddMonths(date(2024, 1, 31), 1))
	assert.Equal(t, date(2023, 2, 28), AddMonths(date(2023, 1, 31), 1))
	assert.Equal(t, date(2025, 4, 30), AddMonths(date(2025, 1, 31), 3))
}

func TestAddMonths_PlainOffsets(t *testing.T) {
	assert.Equal(t, date(2025, 7, 15), AddMonths(date(2025, 6, 15), 1))
	assert.Equal(t, date(2026, 6, 15), AddMonths(date(2025, 6, 15), 12))
	assert.Equal(t, date(2025, 6, 15), AddMonths(date(2025, 6, 15), 0))
}

func TestAddMonths_CrossesYearBoundary(t *testing.T) {
	assert.Equal(t, date(2026, 2, 10), AddMonths(date(2025, 11, 10), 3))
	assert.Equal(t, date(2024, 12, 10), AddMonths(date(2025, 1, 10), -1))
}

func TestAddMonths_NegativeOffsetClamps(t *testing.T) {
	// Mar 31 - 1 month clamps to Feb 28.
	assert.Equal(t, date(2025, 2, 28), AddMonths(date(2025, 3, 31), -1))
	assert.Equal(t, date(2024, 11, 30), AddMonths(date(2024, 12, 31), -1))
}

func TestAddMonths_ClampDoesNotRecoverOriginalDay(t *testing.T) {
	// Once clamped the day stays clamped: Jan 31 +1 = Feb 28, +1 = Mar 28.
	feb := AddMonths(date(2023, 1, 31), 1)
	assert.Equal(t, date(2023, 3, 28), AddMonths(feb, 1))
}

func TestSameCalendarDate(t *testing.T) {
	assert.True(t, SameCalendarDate(date(2026, 5, 15), date(2026, 5, 15)))
	assert.True(t, SameCalendarDate(
		time.Date(2026, 5, 15, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 15, 23, 59, 0, 0, time.UTC),
	))

	// Same day and month in different years never matches.
	assert.False(t, SameCalendarDate(date(2026, 5, 15), date(2027, 5, 15)))
	assert.False(t, SameCalendarDate(date(2026, 5, 15), date(2026, 5, 16)))
	assert.False(t, SameCalendarDate(date(2026, 5, 15), date(2026, 6, 15)))
}

func TestDaysBetween_Signed(t *testing.T) {
	assert.Equal(t, 30, DaysBetween(date(2025, 6, 1), date(2025, 7, 1)))
	assert.Equal(t, -30, DaysBetween(date(2025, 7, 1), date(2025, 6, 1)))
	assert.Equal(t, 0, DaysBetween(date(2025, 6, 1), date(2025, 6, 1)))
	// Leap day counts.
	assert.Equal(t, 366, DaysBetween(date(2024, 1, 1), date(2025, 1, 1)))
}

func TestDaysBetween_IgnoresClockComponents(t *testing.T) {
	a := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(a, b))
}

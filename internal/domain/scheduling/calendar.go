// Package scheduling implements the certificate compliance scheduling engine
// for fleet statutory certificates, DOC audit cycles, survey windows and
// shipboard equipment tests.
//
// Everything in this package is pure calendar arithmetic over value types:
// no clocks, no I/O, no goroutines. Callers pass "today" explicitly and
// parallelize fleet-wide batches outside this package.
package scheduling

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Calendar primitives
// ─────────────────────────────────────────────────────────────────────────────

// NormalizeDate truncates t to midnight UTC. Every date entering the engine
// passes through here so day arithmetic never sees clock or zone components.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in the given month of the given
// year, February in leap years included.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampedDate builds a UTC midnight date, pulling the day back to the last
// day of the month when it does not exist (31 → 30, 29 or 28).
func clampedDate(year int, month time.Month, day int) time.Time {
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves t by n calendar months, n may be negative, clamping the
// day-of-month to the destination month's length: Jan 31 + 1 month is
// Feb 28 (Feb 29 in leap years), never Mar 2.
//
// The standard library's AddDate is deliberately not used for month offsets
// here. AddDate normalizes overflow forward into the next month, which is
// the wrong behaviour for certificate anniversaries.
func AddMonths(t time.Time, n int) time.Time {
	t = NormalizeDate(t)
	months := t.Year()*12 + int(t.Month()) - 1 + n
	return clampedDate(months/12, time.Month(months%12+1), t.Day())
}

// SameCalendarDate reports whether a and b fall on the same calendar day:
// year, month and day all equal. Dates in different years never match.
func SameCalendarDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the signed number of whole days from a to b. The
// result is positive when b is after a, negative when b is before a.
func DaysBetween(a, b time.Time) int {
	a = NormalizeDate(a)
	b = NormalizeDate(b)
	return int(b.Sub(a).Hours() / 24)
}

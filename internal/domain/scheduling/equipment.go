package scheduling

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Equipment valid dates
// ─────────────────────────────────────────────────────────────────────────────

// ShipAnchors carries the ship-level dates that anchor equipment scheduling:
// the annual survey anniversary (day and month, no year) and, when the ship
// is inside a special survey cycle, the date that cycle runs to.
type ShipAnchors struct {
	AnniversaryDay       int        `json:"anniversary_day"`
	AnniversaryMonth     time.Month `json:"anniversary_month"`
	SpecialSurveyCycleTo *time.Time `json:"special_survey_cycle_to,omitempty"`
}

// HasAnniversary reports whether both anniversary components are set to
// plausible values.
func (a ShipAnchors) HasAnniversary() bool {
	return a.AnniversaryDay >= 1 && a.AnniversaryDay <= 31 &&
		a.AnniversaryMonth >= time.January && a.AnniversaryMonth <= time.December
}

// NextAnniversary returns the ship's survey anniversary in the year after
// the given date, clamped to the destination month's length.
func (a ShipAnchors) NextAnniversary(after time.Time) time.Time {
	return clampedDate(after.Year()+1, a.AnniversaryMonth, a.AnniversaryDay)
}

// EquipmentValidDate computes the next valid date for an equipment test
// carried out on issuedDate.
//
// Fixed-interval equipment renews the rule's number of months after the
// test. Survey-anchored equipment renews around the ship's anniversary in
// the year following the test: three months before the anchor when the
// anchor coincides with the special survey cycle end (the servicing must be
// complete before the renewal survey), three months after it otherwise.
// A ship without anniversary anchors falls back to the plain 12-month
// interval; the missing anchor is never an error.
func EquipmentValidDate(equipmentName string, issuedDate time.Time, ship ShipAnchors) time.Time {
	issued := NormalizeDate(issuedDate)

	switch rule := ResolveRule(equipmentName).(type) {
	case AnnualSurveyAnchoredRule:
		if !ship.HasAnniversary() {
			return AddMonths(issued, DefaultIntervalMonths)
		}
		anchor := ship.NextAnniversary(issued)
		if ship.SpecialSurveyCycleTo != nil && SameCalendarDate(anchor, *ship.SpecialSurveyCycleTo) {
			return AddMonths(anchor, -windowMonths)
		}
		return AddMonths(anchor, windowMonths)
	case FixedIntervalRule:
		return AddMonths(issued, rule.Months)
	default:
		return AddMonths(issued, DefaultIntervalMonths)
	}
}

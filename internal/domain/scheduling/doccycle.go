package scheduling

import (
	"time"

	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// DOC audit cycle
// ─────────────────────────────────────────────────────────────────────────────

// Document of Compliance certificate categories. Values are stored verbatim
// and compared case-sensitively.
const (
	CategoryFullTerm  = "full_term"
	CategoryShortTerm = "short_term"
	CategoryInterim   = "interim"
)

// LabelInitial is the audit label of an interim certificate's single
// initial verification.
const LabelInitial = "Initial"

// IsDOCCategory reports whether category is one of the DOC certificate
// categories whose next survey is derived by NextDOCAudit. Matching is
// case-sensitive, like the calculator itself.
func IsDOCCategory(category string) bool {
	switch category {
	case CategoryFullTerm, CategoryShortTerm, CategoryInterim:
		return true
	}
	return false
}

// docCycleLabels names the five points of a full-term DOC cycle in order.
var docCycleLabels = [...]string{
	"1st Annual",
	"2nd Annual",
	"3rd Annual",
	"4th Annual",
	"Renewal",
}

// DOCCyclePoints expands a full-term DOC valid date into its five-point
// audit sequence: four annual audits on the anniversaries of the valid date
// in the four preceding years, then the renewal on the valid date itself.
// Annual audits carry symmetric ±3 month windows; the renewal window only
// looks back and closes on the valid date. Anniversaries of a month-end
// valid date clamp to the destination month's length.
func DOCCyclePoints(validDate time.Time) []WindowedPoint {
	valid := NormalizeDate(validDate)

	points := make([]WindowedPoint, 0, len(docCycleLabels))
	for i := 0; i < len(docCycleLabels)-1; i++ {
		target := clampedDate(valid.Year()-4+i, valid.Month(), valid.Day())
		points = append(points, WindowedPoint{
			Target: target,
			Open:   AddMonths(target, -windowMonths),
			Close:  AddMonths(target, windowMonths),
			Kind:   docCycleLabels[i],
		})
	}
	points = append(points, WindowedPoint{
		Target: valid,
		Open:   AddMonths(valid, -windowMonths),
		Close:  valid,
		Kind:   docCycleLabels[len(docCycleLabels)-1],
	})
	return points
}

// NextDOCAudit computes the next audit target for a DOC certificate.
//
// short_term certificates carry no audit scheme and unknown categories are
// skipped the same way: (nil, "", nil). interim certificates have a single
// initial verification on the valid date. full_term certificates follow the
// five-point cycle built by DOCCyclePoints.
//
// The reference date is the last endorsement when present, otherwise the
// issue date. The point whose window contains the reference counts as
// completed and the next point in the sequence is returned; a reference
// inside the renewal window means the cycle is exhausted. When no window
// contains the reference, the next audit is the first point strictly after
// it. An interim or full_term certificate without a valid date cannot be
// scheduled and returns ErrCodeMissingRequiredDate.
func NextDOCAudit(category string, issueDate time.Time, validDate, lastEndorse *time.Time) (*time.Time, string, error) {
	switch category {
	case CategoryShortTerm:
		return nil, "", nil
	case CategoryInterim:
		if validDate == nil {
			return nil, "", errors.New(errors.ErrCodeMissingRequiredDate,
				"interim DOC certificate has no valid date")
		}
		d := NormalizeDate(*validDate)
		return &d, LabelInitial, nil
	case CategoryFullTerm:
		// handled below
	default:
		return nil, "", nil
	}

	if validDate == nil {
		return nil, "", errors.New(errors.ErrCodeMissingRequiredDate,
			"full_term DOC certificate has no valid date")
	}

	points := DOCCyclePoints(*validDate)

	ref := NormalizeDate(issueDate)
	if lastEndorse != nil {
		ref = NormalizeDate(*lastEndorse)
	}

	// Cycle windows never overlap, so at most one point contains ref.
	for i, p := range points {
		if !ref.Before(p.Open) && !ref.After(p.Close) {
			if i == len(points)-1 {
				// Renewal window reached: nothing left in this cycle.
				return nil, "", nil
			}
			next := points[i+1]
			return &next.Target, next.Kind, nil
		}
	}

	for _, p := range points {
		if p.Target.After(ref) {
			target := p.Target
			return &target, p.Kind, nil
		}
	}
	return nil, "", nil
}

package scheduling

import (
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Survey windows
// ─────────────────────────────────────────────────────────────────────────────

// WindowType distinguishes the two survey window shapes.
type WindowType string

const (
	// WindowSymmetric opens three months before the target date and closes
	// three months after it.
	WindowSymmetric WindowType = "symmetric"

	// WindowLookBackOnly opens three months before the target date and
	// closes on the target date itself. The survey cannot be carried out
	// after the target.
	WindowLookBackOnly WindowType = "look_back_only"
)

// WindowStatus grades a survey window against a reference day.
type WindowStatus string

const (
	// WindowOverdue means the window has closed without the survey.
	WindowOverdue WindowStatus = "OVERDUE"

	// WindowCritical means the window closes within criticalDays.
	WindowCritical WindowStatus = "CRITICAL"

	// WindowDueSoon means the window is open with more than criticalDays
	// of slack remaining.
	WindowDueSoon WindowStatus = "DUE_SOON"

	// WindowInWindow is the resting state: on the opening day, before the
	// window opens, or otherwise outside the graded bands.
	WindowInWindow WindowStatus = "IN_WINDOW"
)

const (
	// windowMonths is the half-width of every survey window.
	windowMonths = 3

	// criticalDays is the length, in days, of the window's critical tail.
	criticalDays = 30
)

// SurveyWindow is the schedulable time band around a survey target date.
type SurveyWindow struct {
	TargetDate  time.Time  `json:"target_date"`
	WindowOpen  time.Time  `json:"window_open"`
	WindowClose time.Time  `json:"window_close"`
	WindowType  WindowType `json:"window_type"`
}

// WindowedPoint is one dated, windowed entry of a survey sequence. DOC audit
// cycles and certificate survey windows both reduce to this shape, so a
// single classifier serves both.
type WindowedPoint struct {
	Target time.Time `json:"target"`
	Open   time.Time `json:"open"`
	Close  time.Time `json:"close"`
	Kind   string    `json:"kind"`
}

// ParseAnnotation interprets a certificate's survey-time annotation.
// "±3M", "+3M" and "+-3M" denote a symmetric window; "-3M" denotes a
// look-back-only window. Anything else, the empty annotation included, is
// not schedulable: the record is excluded from window planning rather than
// treated as an error.
func ParseAnnotation(s string) (WindowType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "±3M", "+3M", "+-3M":
		return WindowSymmetric, true
	case "-3M":
		return WindowLookBackOnly, true
	default:
		return "", false
	}
}

// BuildWindow derives the survey window for a target date from its
// annotation. The second return value is false when the annotation is not
// schedulable.
func BuildWindow(target time.Time, annotation string) (SurveyWindow, bool) {
	kind, ok := ParseAnnotation(annotation)
	if !ok {
		return SurveyWindow{}, false
	}

	target = NormalizeDate(target)
	w := SurveyWindow{
		TargetDate: target,
		WindowOpen: AddMonths(target, -windowMonths),
		WindowType: kind,
	}
	if kind == WindowLookBackOnly {
		w.WindowClose = target
	} else {
		w.WindowClose = AddMonths(target, windowMonths)
	}
	return w, true
}

// classifyWindow is the single ordered grading shared by survey windows and
// DOC cycle points. The checks run strictly in this order:
//
//  1. today after close                    → OVERDUE
//  2. close within 0..30 days of today     → CRITICAL
//  3. open < today < close − 30 days       → DUE_SOON
//  4. anything else                        → IN_WINDOW
//
// The day exactly 30 days before close is CRITICAL, not DUE_SOON, and the
// opening day itself grades IN_WINDOW.
func classifyWindow(open, close, today time.Time) WindowStatus {
	open = NormalizeDate(open)
	close = NormalizeDate(close)
	today = NormalizeDate(today)

	if today.After(close) {
		return WindowOverdue
	}
	if d := DaysBetween(today, close); d >= 0 && d <= criticalDays {
		return WindowCritical
	}
	if today.After(open) && today.Before(close.AddDate(0, 0, -criticalDays)) {
		return WindowDueSoon
	}
	return WindowInWindow
}

// ClassifyWindow grades w against today.
func ClassifyWindow(w SurveyWindow, today time.Time) WindowStatus {
	return classifyWindow(w.WindowOpen, w.WindowClose, today)
}

// Status grades the point against today.
func (p WindowedPoint) Status(today time.Time) WindowStatus {
	return classifyWindow(p.Open, p.Close, today)
}

// Window converts the point into its standalone SurveyWindow form.
func (p WindowedPoint) Window() SurveyWindow {
	kind := WindowSymmetric
	if p.Close.Equal(p.Target) {
		kind = WindowLookBackOnly
	}
	return SurveyWindow{
		TargetDate:  p.Target,
		WindowOpen:  p.Open,
		WindowClose: p.Close,
		WindowType:  kind,
	}
}

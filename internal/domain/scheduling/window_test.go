package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotation_Symmetric(t *testing.T) {
	for _, s := range []string{"±3M", "+3M", "+-3M", "+3m", " ±3M "} {
		kind, ok := ParseAnnotation(s)
		assert.True(t, ok, s)
		assert.Equal(t, WindowSymmetric, kind, s)
	}
}

func TestParseAnnotation_LookBackOnly(t *testing.T) {
	kind, ok := ParseAnnotation("-3M")
	assert.True(t, ok)
	assert.Equal(t, WindowLookBackOnly, kind)
}

func TestParseAnnotation_NotSchedulable(t *testing.T) {
	for _, s := range []string{"", "6M", "±6M", "3M", "none", "+3", "annual"} {
		_, ok := ParseAnnotation(s)
		assert.False(t, ok, s)
	}
}

func TestBuildWindow_Symmetric(t *testing.T) {
	w, ok := BuildWindow(date(2025, 10, 30), "±3M")
	require.True(t, ok)

	assert.Equal(t, date(2025, 10, 30), w.TargetDate)
	assert.Equal(t, date(2025, 7, 30), w.WindowOpen)
	assert.Equal(t, date(2026, 1, 30), w.WindowClose)
	assert.Equal(t, WindowSymmetric, w.WindowType)
}

func TestBuildWindow_LookBackOnly(t *testing.T) {
	w, ok := BuildWindow(date(2025, 11, 30), "-3M")
	require.True(t, ok)

	assert.Equal(t, date(2025, 8, 30), w.WindowOpen)
	// The window closes on the target itself.
	assert.Equal(t, date(2025, 11, 30), w.WindowClose)
	assert.Equal(t, WindowLookBackOnly, w.WindowType)
}

func TestBuildWindow_UnrecognizedAnnotation(t *testing.T) {
	_, ok := BuildWindow(date(2025, 10, 30), "every 5 years")
	assert.False(t, ok)
}

func TestBuildWindow_MonthEndTarget(t *testing.T) {
	// Aug 31 - 3 months clamps to May 31; + 3 months clamps to Nov 30.
	w, ok := BuildWindow(date(2025, 8, 31), "±3M")
	require.True(t, ok)
	assert.Equal(t, date(2025, 5, 31), w.WindowOpen)
	assert.Equal(t, date(2025, 11, 30), w.WindowClose)
}

func TestClassifyWindow_Symmetric(t *testing.T) {
	w, _ := BuildWindow(date(2025, 10, 30), "±3M") // open 2025-07-30, close 2026-01-30

	assert.Equal(t, WindowOverdue, ClassifyWindow(w, date(2026, 2, 15)))
	assert.Equal(t, WindowCritical, ClassifyWindow(w, date(2026, 1, 10)))
	assert.Equal(t, WindowDueSoon, ClassifyWindow(w, date(2025, 8, 1)))
}

func TestClassifyWindow_BoundaryDays(t *testing.T) {
	w, _ := BuildWindow(date(2025, 10, 30), "±3M") // close 2026-01-30

	// Exactly 30 days before close grades CRITICAL, not DUE_SOON.
	assert.Equal(t, WindowCritical, ClassifyWindow(w, date(2025, 12, 31)))
	// One day earlier is still DUE_SOON.
	assert.Equal(t, WindowDueSoon, ClassifyWindow(w, date(2025, 12, 30)))
	// The closing day itself is CRITICAL; the day after is OVERDUE.
	assert.Equal(t, WindowCritical, ClassifyWindow(w, date(2026, 1, 30)))
	assert.Equal(t, WindowOverdue, ClassifyWindow(w, date(2026, 1, 31)))
	// The opening day grades IN_WINDOW, as does any day before the window.
	assert.Equal(t, WindowInWindow, ClassifyWindow(w, date(2025, 7, 30)))
	assert.Equal(t, WindowInWindow, ClassifyWindow(w, date(2025, 5, 1)))
}

func TestClassifyWindow_LookBackOnly(t *testing.T) {
	w, _ := BuildWindow(date(2025, 11, 30), "-3M") // close 2025-11-30

	assert.Equal(t, WindowCritical, ClassifyWindow(w, date(2025, 11, 30)))
	// The day after the target is already overdue.
	assert.Equal(t, WindowOverdue, ClassifyWindow(w, date(2025, 12, 1)))
	assert.Equal(t, WindowDueSoon, ClassifyWindow(w, date(2025, 9, 15)))
}

func TestWindowedPoint_Status_SharesClassifier(t *testing.T) {
	p := WindowedPoint{
		Target: date(2025, 10, 30),
		Open:   date(2025, 7, 30),
		Close:  date(2026, 1, 30),
		Kind:   "2nd Annual",
	}

	assert.Equal(t, WindowOverdue, p.Status(date(2026, 2, 15)))
	assert.Equal(t, WindowCritical, p.Status(date(2025, 12, 31)))
	assert.Equal(t, WindowDueSoon, p.Status(date(2025, 8, 1)))
	assert.Equal(t, WindowInWindow, p.Status(date(2025, 7, 30)))
}

func TestWindowedPoint_Window(t *testing.T) {
	annual := WindowedPoint{
		Target: date(2025, 6, 15),
		Open:   date(2025, 3, 15),
		Close:  date(2025, 9, 15),
	}
	assert.Equal(t, WindowSymmetric, annual.Window().WindowType)

	renewal := WindowedPoint{
		Target: date(2029, 6, 15),
		Open:   date(2029, 3, 15),
		Close:  date(2029, 6, 15),
	}
	assert.Equal(t, WindowLookBackOnly, renewal.Window().WindowType)
}

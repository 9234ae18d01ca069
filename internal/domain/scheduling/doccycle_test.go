package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
)

func TestDOCCyclePoints_FiveOrderedPoints(t *testing.T) {
	points := DOCCyclePoints(date(2029, 6, 15))
	require.Len(t, points, 5)

	labels := []string{"1st Annual", "2nd Annual", "3rd Annual", "4th Annual", "Renewal"}
	for i, p := range points {
		assert.Equal(t, labels[i], p.Kind)
		assert.Equal(t, date(2025+i, 6, 15), p.Target)
		assert.Equal(t, date(2025+i, 3, 15), p.Open)
	}

	// Annual audits close 3 months after the target; the renewal closes on
	// the valid date itself.
	assert.Equal(t, date(2025, 9, 15), points[0].Close)
	assert.Equal(t, date(2029, 6, 15), points[4].Close)
}

func TestDOCCyclePoints_MonthEndAnniversariesClamp(t *testing.T) {
	points := DOCCyclePoints(date(2028, 2, 29))
	require.Len(t, points, 5)

	assert.Equal(t, date(2024, 2, 29), points[0].Target) // leap year keeps the 29th
	assert.Equal(t, date(2025, 2, 28), points[1].Target)
	assert.Equal(t, date(2026, 2, 28), points[2].Target)
	assert.Equal(t, date(2027, 2, 28), points[3].Target)
	assert.Equal(t, date(2028, 2, 29), points[4].Target)
}

func TestNextDOCAudit_FullTerm_AfterEndorsement(t *testing.T) {
	// 2nd Annual window (2026-03-15 .. 2026-09-15) contains the endorsement,
	// so the next audit is the 3rd Annual.
	next, kind, err := NextDOCAudit(CategoryFullTerm,
		date(2024, 6, 20), dptr(2029, 6, 15), dptr(2026, 6, 20))

	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2027, 6, 15), *next)
	assert.Equal(t, "3rd Annual", kind)
}

func TestNextDOCAudit_FullTerm_NoEndorsementUsesIssueDate(t *testing.T) {
	// Issue date before the 1st Annual window: the first upcoming point wins.
	next, kind, err := NextDOCAudit(CategoryFullTerm,
		date(2024, 6, 15), dptr(2029, 6, 15), nil)

	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2025, 6, 15), *next)
	assert.Equal(t, "1st Annual", kind)
}

func TestNextDOCAudit_FullTerm_ReferenceBetweenWindows(t *testing.T) {
	// 2025-10-01 sits in the gap between the 1st Annual close (2025-09-15)
	// and the 2nd Annual open (2026-03-15): no window contains it, so the
	// first point after it is next.
	next, kind, err := NextDOCAudit(CategoryFullTerm,
		date(2024, 6, 15), dptr(2029, 6, 15), dptr(2025, 10, 1))

	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2026, 6, 15), *next)
	assert.Equal(t, "2nd Annual", kind)
}

func TestNextDOCAudit_FullTerm_RenewalWindowExhaustsCycle(t *testing.T) {
	next, kind, err := NextDOCAudit(CategoryFullTerm,
		date(2024, 6, 15), dptr(2029, 6, 15), dptr(2029, 4, 1))

	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Empty(t, kind)
}

func TestNextDOCAudit_FullTerm_ReferencePastValidDate(t *testing.T) {
	next, _, err := NextDOCAudit(CategoryFullTerm,
		date(2024, 6, 15), dptr(2029, 6, 15), dptr(2029, 8, 1))

	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextDOCAudit_FullTerm_MissingValidDate(t *testing.T) {
	next, _, err := NextDOCAudit(CategoryFullTerm, date(2024, 6, 15), nil, nil)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingRequiredDate))
	assert.Nil(t, next)
}

func TestNextDOCAudit_Interim(t *testing.T) {
	next, kind, err := NextDOCAudit(CategoryInterim,
		date(2025, 6, 1), dptr(2025, 12, 1), nil)

	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2025, 12, 1), *next)
	assert.Equal(t, "Initial", kind)
}

func TestNextDOCAudit_Interim_MissingValidDate(t *testing.T) {
	_, _, err := NextDOCAudit(CategoryInterim, date(2025, 6, 1), nil, nil)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingRequiredDate))
}

func TestNextDOCAudit_ShortTerm_NoAuditScheme(t *testing.T) {
	next, kind, err := NextDOCAudit(CategoryShortTerm,
		date(2025, 6, 1), dptr(2025, 12, 1), nil)

	assert.NoError(t, err)
	assert.Nil(t, next)
	assert.Empty(t, kind)
}

func TestNextDOCAudit_UnknownCategorySkipped(t *testing.T) {
	next, kind, err := NextDOCAudit("provisional",
		date(2025, 6, 1), dptr(2025, 12, 1), nil)

	assert.NoError(t, err)
	assert.Nil(t, next)
	assert.Empty(t, kind)
}

func TestNextDOCAudit_CategoriesAreCaseSensitive(t *testing.T) {
	// "Full_Term" is not a known category and is skipped, not scheduled.
	next, _, err := NextDOCAudit("Full_Term",
		date(2024, 6, 15), dptr(2029, 6, 15), nil)

	assert.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextDOCAudit_EndorsementOnWindowEdge(t *testing.T) {
	// An endorsement exactly on the 1st Annual close day still counts as
	// completing the 1st Annual.
	next, kind, err := NextDOCAudit(CategoryFullTerm,
		date(2024, 6, 15), dptr(2029, 6, 15), dptr(2025, 9, 15))

	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2026, 6, 15), *next)
	assert.Equal(t, "2nd Annual", kind)
}

func TestNextDOCAudit_NormalizesClockComponents(t *testing.T) {
	endorse := time.Date(2026, 6, 20, 14, 30, 0, 0, time.UTC)
	valid := date(2029, 6, 15)

	next, kind, err := NextDOCAudit(CategoryFullTerm, date(2024, 6, 20), &valid, &endorse)

	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2027, 6, 15), *next)
	assert.Equal(t, "3rd Annual", kind)
}

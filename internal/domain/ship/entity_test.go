package ship

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

func TestValidateIMONumber(t *testing.T) {
	// 9074729: 9*7+0*6+7*5+4*4+7*3+2*2 = 139, check digit 9.
	assert.NoError(t, ValidateIMONumber("9074729"))
	assert.NoError(t, ValidateIMONumber("IMO 9074729"))
	assert.NoError(t, ValidateIMONumber("IMO9074729"))
	assert.NoError(t, ValidateIMONumber("9811000"))

	assert.Error(t, ValidateIMONumber("9074728")) // wrong check digit
	assert.Error(t, ValidateIMONumber("907472"))  // six digits
	assert.Error(t, ValidateIMONumber("90747290"))
	assert.Error(t, ValidateIMONumber(""))
	assert.Error(t, ValidateIMONumber("MMSI 235082896"))
}

func TestNormalizeIMONumber(t *testing.T) {
	got, err := NormalizeIMONumber(" IMO 9074729 ")
	require.NoError(t, err)
	assert.Equal(t, "9074729", got)
}

func TestNewShip_Success(t *testing.T) {
	s, err := NewShip("MV Northern Light", "IMO 9074729", "NO", "general_cargo")

	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "9074729", s.IMONumber)
	assert.Equal(t, common.StatusActive, s.Status)
	assert.False(t, s.HasCompleteAnchors())

	events := s.Events()
	require.Len(t, events, 1)
	assert.IsType(t, &ShipRegisteredEvent{}, events[0])
	// The buffer drains on read.
	assert.Empty(t, s.Events())
}

func TestNewShip_InvalidInput(t *testing.T) {
	_, err := NewShip("", "9074729", "NO", "")
	assert.Error(t, err)

	_, err = NewShip("MV Northern Light", "9074728", "NO", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeShipIMOInvalid))
}

func TestShip_SetAnchors(t *testing.T) {
	s, _ := NewShip("MV Northern Light", "9074729", "NO", "")
	s.Events()

	cycleTo := time.Date(2026, 5, 15, 10, 30, 0, 0, time.UTC)
	err := s.SetAnchors(15, 5, &cycleTo)

	require.NoError(t, err)
	assert.True(t, s.HasCompleteAnchors())
	anchors := s.Anchors()
	assert.Equal(t, 15, anchors.AnniversaryDay)
	assert.Equal(t, time.May, anchors.AnniversaryMonth)
	// The cycle date is stored at UTC midnight.
	require.NotNil(t, anchors.SpecialSurveyCycleTo)
	assert.Equal(t, time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC), *anchors.SpecialSurveyCycleTo)

	events := s.Events()
	require.Len(t, events, 1)
	assert.IsType(t, &ShipAnchorsUpdatedEvent{}, events[0])
}

func TestShip_SetAnchors_Invalid(t *testing.T) {
	s, _ := NewShip("MV Northern Light", "9074729", "NO", "")

	assert.Error(t, s.SetAnchors(15, 13, nil))
	assert.Error(t, s.SetAnchors(0, 5, nil))
	assert.Error(t, s.SetAnchors(32, 1, nil))
	// Feb 29 is a valid anniversary, Feb 30 is not.
	assert.NoError(t, s.SetAnchors(29, 2, nil))
	assert.Error(t, s.SetAnchors(30, 2, nil))
}

func TestShip_ClearAnchors(t *testing.T) {
	s, _ := NewShip("MV Northern Light", "9074729", "NO", "")
	require.NoError(t, s.SetAnchors(15, 5, nil))

	s.ClearAnchors()

	assert.False(t, s.HasCompleteAnchors())
	assert.Nil(t, s.SpecialSurveyCycleTo)
}

func TestShip_UpdateStatus_Transitions(t *testing.T) {
	s, _ := NewShip("MV Northern Light", "9074729", "NO", "")

	require.NoError(t, s.UpdateStatus(common.StatusLaidUp))
	assert.False(t, s.IsOperational())

	require.NoError(t, s.UpdateStatus(common.StatusActive))
	assert.True(t, s.IsOperational())

	require.NoError(t, s.UpdateStatus(common.StatusArchived))

	// Archived is terminal.
	err := s.UpdateStatus(common.StatusActive)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))
}

func TestShip_TouchBumpsVersion(t *testing.T) {
	s, _ := NewShip("MV Northern Light", "9074729", "NO", "")
	v := s.Version

	require.NoError(t, s.SetAnchors(15, 5, nil))
	assert.Equal(t, v+1, s.Version)
}

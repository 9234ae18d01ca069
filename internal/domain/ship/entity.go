// Package ship implements the Ship bounded context: the fleet registry
// aggregate, its survey anchor dates, and the domain service operating on
// them. Certificates and equipment test records reference ships by ID and
// derive their schedules from the anchors held here.
package ship

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// IMO number validation
// ─────────────────────────────────────────────────────────────────────────────

// reIMONumber matches an IMO ship identification number with or without the
// "IMO" prefix: "IMO 9074729", "IMO9074729", "9074729".
var reIMONumber = regexp.MustCompile(`^(?:IMO ?)?(\d{7})$`)

// NormalizeIMONumber strips the optional "IMO" prefix and surrounding
// whitespace, returning the bare seven digits.
func NormalizeIMONumber(s string) (string, error) {
	m := reIMONumber.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", errors.New(errors.ErrCodeShipIMOInvalid,
			fmt.Sprintf("IMO number %q is not a seven-digit IMO identifier", s))
	}
	return m[1], nil
}

// ValidateIMONumber verifies the IMO check digit: the sum of the first six
// digits weighted 7..2 must end in the seventh digit.
func ValidateIMONumber(s string) error {
	digits, err := NormalizeIMONumber(s)
	if err != nil {
		return err
	}

	sum := 0
	for i := 0; i < 6; i++ {
		sum += int(digits[i]-'0') * (7 - i)
	}
	if sum%10 != int(digits[6]-'0') {
		return errors.New(errors.ErrCodeShipIMOInvalid,
			fmt.Sprintf("IMO number %q fails the check digit", s))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// State machine: allowed status transitions
// ─────────────────────────────────────────────────────────────────────────────

// allowedTransitions defines the valid next states reachable from each ship
// status. Archived is terminal.
//
//	active ◄──► laid_up
//	   │           │
//	   └──► archived ◄──┘
var allowedTransitions = map[common.Status][]common.Status{
	common.StatusActive:   {common.StatusLaidUp, common.StatusInactive, common.StatusArchived},
	common.StatusLaidUp:   {common.StatusActive, common.StatusArchived},
	common.StatusInactive: {common.StatusActive, common.StatusArchived},
	common.StatusArchived: {},
}

// ─────────────────────────────────────────────────────────────────────────────
// Ship aggregate root
// ─────────────────────────────────────────────────────────────────────────────

// Ship is the aggregate root of the Ship bounded context. The anniversary
// fields anchor survey-tied equipment scheduling; SpecialSurveyCycleTo is
// only set while the ship is inside a class renewal cycle.
//
// Consumers must not modify fields directly; mutations go through the
// exported methods so invariants and domain events are maintained.
type Ship struct {
	common.BaseEntity

	Name      string        `json:"name"`
	IMONumber string        `json:"imo_number"`
	Flag      string        `json:"flag,omitempty"`
	ShipType  string        `json:"ship_type,omitempty"`
	Status    common.Status `json:"status"`

	// ── Survey anchors (optional — scheduling falls back when absent) ────────
	AnniversaryDay       int        `json:"anniversary_day,omitempty"`
	AnniversaryMonth     int        `json:"anniversary_month,omitempty"`
	SpecialSurveyCycleTo *time.Time `json:"special_survey_cycle_to,omitempty"`

	events []common.DomainEvent
}

// NewShip creates a Ship aggregate, enforcing construction invariants:
//   - name must be non-empty.
//   - imoNumber must be a seven-digit IMO identifier with a valid check
//     digit; it is stored in normalized bare-digit form.
//
// The ship starts active with no survey anchors; a ShipRegistered domain
// event is recorded.
func NewShip(name, imoNumber, flag, shipType string) (*Ship, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.InvalidParam("ship name must not be empty")
	}
	if err := ValidateIMONumber(imoNumber); err != nil {
		return nil, err
	}
	normalized, _ := NormalizeIMONumber(imoNumber)

	now := time.Now().UTC()
	s := &Ship{
		BaseEntity: common.BaseEntity{
			ID:        common.NewID(),
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
		Name:      strings.TrimSpace(name),
		IMONumber: normalized,
		Flag:      flag,
		ShipType:  shipType,
		Status:    common.StatusActive,
	}

	s.recordEvent(NewShipRegisteredEvent(s))
	return s, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Survey anchors
// ─────────────────────────────────────────────────────────────────────────────

// SetAnchors records the annual survey anniversary and, optionally, the
// special survey cycle end. The day must exist in the given month in at
// least one year (Feb 29 is accepted, Feb 30 is not). A ShipAnchorsUpdated
// domain event is recorded.
func (s *Ship) SetAnchors(day, month int, cycleTo *time.Time) error {
	if month < 1 || month > 12 {
		return errors.New(errors.ErrCodeShipAnchorsIncomplete,
			fmt.Sprintf("anniversary month %d out of range for ship %s", month, s.IMONumber))
	}
	// 2024 is a leap year, so February admits day 29.
	if day < 1 || day > scheduling.DaysInMonth(2024, time.Month(month)) {
		return errors.New(errors.ErrCodeShipAnchorsIncomplete,
			fmt.Sprintf("anniversary day %d out of range for month %d on ship %s",
				day, month, s.IMONumber))
	}

	s.AnniversaryDay = day
	s.AnniversaryMonth = month
	if cycleTo != nil {
		normalized := scheduling.NormalizeDate(*cycleTo)
		s.SpecialSurveyCycleTo = &normalized
	} else {
		s.SpecialSurveyCycleTo = nil
	}
	s.touch()
	s.recordEvent(NewShipAnchorsUpdatedEvent(s))
	return nil
}

// ClearAnchors removes the anniversary and cycle dates. Scheduling for
// anchored equipment falls back to fixed intervals afterwards.
func (s *Ship) ClearAnchors() {
	s.AnniversaryDay = 0
	s.AnniversaryMonth = 0
	s.SpecialSurveyCycleTo = nil
	s.touch()
	s.recordEvent(NewShipAnchorsUpdatedEvent(s))
}

// Anchors projects the ship's anchor dates into the scheduling engine's
// value form.
func (s *Ship) Anchors() scheduling.ShipAnchors {
	return scheduling.ShipAnchors{
		AnniversaryDay:       s.AnniversaryDay,
		AnniversaryMonth:     time.Month(s.AnniversaryMonth),
		SpecialSurveyCycleTo: s.SpecialSurveyCycleTo,
	}
}

// HasCompleteAnchors reports whether the anniversary is on record.
func (s *Ship) HasCompleteAnchors() bool {
	return s.Anchors().HasAnniversary()
}

// ─────────────────────────────────────────────────────────────────────────────
// Status lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// UpdateStatus transitions the ship to a new status, enforcing the state
// machine defined by allowedTransitions.
func (s *Ship) UpdateStatus(status common.Status) error {
	allowed, ok := allowedTransitions[s.Status]
	if !ok {
		return errors.New(errors.CodeInvalidParam,
			fmt.Sprintf("unknown current status %q for ship %s", s.Status, s.IMONumber))
	}

	for _, next := range allowed {
		if next == status {
			prev := s.Status
			s.Status = status
			s.touch()
			s.recordEvent(NewShipStatusChangedEvent(s, prev))
			return nil
		}
	}

	return errors.InvalidState(
		fmt.Sprintf("illegal status transition %q to %q for ship %s",
			s.Status, status, s.IMONumber))
}

// IsOperational reports whether the ship is in service and subject to
// compliance tracking.
func (s *Ship) IsOperational() bool {
	return s.Status == common.StatusActive
}

// ─────────────────────────────────────────────────────────────────────────────
// Domain event collection
// ─────────────────────────────────────────────────────────────────────────────

// Events returns the domain events accumulated since the last call and
// clears the buffer. Application services publish them after the unit of
// work commits.
func (s *Ship) Events() []common.DomainEvent {
	evts := s.events
	s.events = nil
	return evts
}

func (s *Ship) recordEvent(evt common.DomainEvent) {
	s.events = append(s.events, evt)
}

// touch updates UpdatedAt and bumps the optimistic-lock Version. Called at
// the end of every mutating method.
func (s *Ship) touch() {
	s.UpdatedAt = time.Now().UTC()
	s.Version++
}

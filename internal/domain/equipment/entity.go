// Package equipment implements the Equipment bounded context: shipboard
// equipment test records and their derived valid dates. The scheduling rule
// is resolved from the equipment name on every derivation, so renaming a
// record is enough to move it between rule families.
package equipment

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestRecord aggregate root
// ─────────────────────────────────────────────────────────────────────────────

// TestRecord is one servicing or test of a piece of shipboard equipment.
// ValidDate is always derived, never stored by hand: fixed-interval
// equipment from the test date, survey-anchored equipment from the ship's
// anchors at derivation time.
type TestRecord struct {
	common.BaseEntity

	ShipID        common.ID `json:"ship_id"`
	EquipmentName string    `json:"equipment_name"`
	Location      string    `json:"location,omitempty"`

	IssuedDate time.Time  `json:"issued_date"`
	ValidDate  *time.Time `json:"valid_date,omitempty"`

	events []common.DomainEvent
}

// NewTestRecord creates a test record and derives its valid date from the
// ship anchors in force. Missing anchors are not an error: survey-anchored
// equipment falls back to the fixed 12-month interval.
func NewTestRecord(shipID common.ID, equipmentName string, issuedDate time.Time, anchors scheduling.ShipAnchors) (*TestRecord, error) {
	if shipID == "" {
		return nil, errors.InvalidParam("test record ship_id must not be empty")
	}
	if strings.TrimSpace(equipmentName) == "" {
		return nil, errors.New(errors.ErrCodeEquipmentRecordInvalid,
			"equipment name must not be empty")
	}
	if issuedDate.IsZero() {
		return nil, errors.New(errors.ErrCodeEquipmentRecordInvalid,
			"test record issued date must not be zero")
	}

	now := time.Now().UTC()
	r := &TestRecord{
		BaseEntity: common.BaseEntity{
			ID:        common.NewID(),
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
		ShipID:        shipID,
		EquipmentName: strings.TrimSpace(equipmentName),
		IssuedDate:    scheduling.NormalizeDate(issuedDate),
	}
	r.derive(anchors)

	r.recordEvent(NewEquipmentTestRecordedEvent(r))
	return r, nil
}

// Recalculate re-derives the valid date against the given anchors. Called
// after a ship's anniversary or special survey cycle changes. It reports
// whether the valid date moved.
func (r *TestRecord) Recalculate(anchors scheduling.ShipAnchors) bool {
	prev := r.ValidDate
	r.derive(anchors)

	if prev == nil || !scheduling.SameCalendarDate(*prev, *r.ValidDate) {
		r.touch()
		return true
	}
	return false
}

func (r *TestRecord) derive(anchors scheduling.ShipAnchors) {
	valid := scheduling.EquipmentValidDate(r.EquipmentName, r.IssuedDate, anchors)
	r.ValidDate = &valid
}

// Rule returns the scheduling rule the record's name resolves to.
func (r *TestRecord) Rule() scheduling.SchedulingRule {
	return scheduling.ResolveRule(r.EquipmentName)
}

// RuleKind names the resolved rule for display and serialization.
func (r *TestRecord) RuleKind() string {
	switch rule := r.Rule().(type) {
	case scheduling.AnnualSurveyAnchoredRule:
		return "annual_survey_anchored"
	case scheduling.FixedIntervalRule:
		return fmt.Sprintf("fixed_interval_%dm", rule.Months)
	default:
		return "unknown"
	}
}

// Status classifies the record by its derived valid date.
func (r *TestRecord) Status(today time.Time, warningDays int) scheduling.CertStatus {
	return scheduling.ClassifyExpiry(r.ValidDate, today, warningDays)
}

// ─────────────────────────────────────────────────────────────────────────────
// Domain event collection
// ─────────────────────────────────────────────────────────────────────────────

// Events returns the domain events accumulated since the last call and
// clears the buffer.
func (r *TestRecord) Events() []common.DomainEvent {
	evts := r.events
	r.events = nil
	return evts
}

func (r *TestRecord) recordEvent(evt common.DomainEvent) {
	r.events = append(r.events, evt)
}

func (r *TestRecord) touch() {
	r.UpdatedAt = time.Now().UTC()
	r.Version++
}

// ─────────────────────────────────────────────────────────────────────────────
// Domain events
// ─────────────────────────────────────────────────────────────────────────────

// EquipmentTestRecordedEvent is recorded when a test enters the registry.
type EquipmentTestRecordedEvent struct {
	common.BaseEvent
	ShipID        string     `json:"ship_id"`
	EquipmentName string     `json:"equipment_name"`
	IssuedDate    time.Time  `json:"issued_date"`
	ValidDate     *time.Time `json:"valid_date,omitempty"`
	Version       int        `json:"version"`
}

func NewEquipmentTestRecordedEvent(r *TestRecord) *EquipmentTestRecordedEvent {
	return &EquipmentTestRecordedEvent{
		BaseEvent:     common.NewBaseEvent(string(r.ID)),
		ShipID:        string(r.ShipID),
		EquipmentName: r.EquipmentName,
		IssuedDate:    r.IssuedDate,
		ValidDate:     r.ValidDate,
		Version:       r.Version,
	}
}

package ship

import (
	"time"

	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ShipRegisteredEvent is recorded when a ship enters the fleet registry.
type ShipRegisteredEvent struct {
	common.BaseEvent
	IMONumber string `json:"imo_number"`
	Name      string `json:"name"`
	Flag      string `json:"flag,omitempty"`
	Version   int    `json:"version"`
}

func NewShipRegisteredEvent(s *Ship) *ShipRegisteredEvent {
	return &ShipRegisteredEvent{
		BaseEvent: common.NewBaseEvent(string(s.ID)),
		IMONumber: s.IMONumber,
		Name:      s.Name,
		Flag:      s.Flag,
		Version:   s.Version,
	}
}

// ShipAnchorsUpdatedEvent is recorded when the survey anchors change.
// Downstream consumers recalculate anchored equipment schedules on it.
type ShipAnchorsUpdatedEvent struct {
	common.BaseEvent
	IMONumber            string     `json:"imo_number"`
	AnniversaryDay       int        `json:"anniversary_day"`
	AnniversaryMonth     int        `json:"anniversary_month"`
	SpecialSurveyCycleTo *time.Time `json:"special_survey_cycle_to,omitempty"`
	Version              int        `json:"version"`
}

func NewShipAnchorsUpdatedEvent(s *Ship) *ShipAnchorsUpdatedEvent {
	return &ShipAnchorsUpdatedEvent{
		BaseEvent:            common.NewBaseEvent(string(s.ID)),
		IMONumber:            s.IMONumber,
		AnniversaryDay:       s.AnniversaryDay,
		AnniversaryMonth:     s.AnniversaryMonth,
		SpecialSurveyCycleTo: s.SpecialSurveyCycleTo,
		Version:              s.Version,
	}
}

// ShipStatusChangedEvent is recorded on every lifecycle transition.
type ShipStatusChangedEvent struct {
	common.BaseEvent
	IMONumber string        `json:"imo_number"`
	Previous  common.Status `json:"previous"`
	Current   common.Status `json:"current"`
	Version   int           `json:"version"`
}

func NewShipStatusChangedEvent(s *Ship, previous common.Status) *ShipStatusChangedEvent {
	return &ShipStatusChangedEvent{
		BaseEvent: common.NewBaseEvent(string(s.ID)),
		IMONumber: s.IMONumber,
		Previous:  previous,
		Current:   s.Status,
		Version:   s.Version,
	}
}

// Package compliance orchestrates the fleet compliance workflows on top
// of the ship, certificate and equipment domains: schedule
// recalculation, the survey calendar, and alerting with report export.
package compliance

import (
	"time"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Recalculation DTOs
// ─────────────────────────────────────────────────────────────────────────────

// ShipRecalcResult reports one ship's recalculation outcome.
type ShipRecalcResult struct {
	ShipID              common.ID `json:"ship_id"`
	CertificatesUpdated int       `json:"certificates_updated"`
	EquipmentUpdated    int       `json:"equipment_updated"`
}

// RecalcFailure records a ship whose recalculation failed. The fleet run
// continues past individual failures.
type RecalcFailure struct {
	ShipID common.ID `json:"ship_id"`
	Reason string    `json:"reason"`
}

// RecalcReport summarizes a fleet-wide recalculation run.
type RecalcReport struct {
	ShipsProcessed      int             `json:"ships_processed"`
	CertificatesUpdated int             `json:"certificates_updated"`
	EquipmentUpdated    int             `json:"equipment_updated"`
	Skipped             int             `json:"skipped"` // non-operational ships excluded from the run
	Failures            []RecalcFailure `json:"failures,omitempty"`
	Duration            time.Duration   `json:"duration"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Fleet summary
// ─────────────────────────────────────────────────────────────────────────────

// FleetSummary aggregates compliance state across the operational fleet.
type FleetSummary struct {
	GeneratedAt       time.Time `json:"generated_at"`
	TotalShips        int       `json:"total_ships"`
	TotalCertificates int       `json:"total_certificates"`
	TotalEquipment    int       `json:"total_equipment"`

	CertificateStatus map[scheduling.CertStatus]int   `json:"certificate_status"`
	EquipmentStatus   map[scheduling.CertStatus]int   `json:"equipment_status"`
	WindowStatus      map[scheduling.WindowStatus]int `json:"window_status"`

	// ShipsWithFindings counts ships carrying at least one expired item or
	// overdue survey window.
	ShipsWithFindings int `json:"ships_with_findings"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Calendar events
// ─────────────────────────────────────────────────────────────────────────────

// EventKind classifies survey calendar entries.
type EventKind string

const (
	EventSurvey            EventKind = "survey"
	EventCertificateExpiry EventKind = "certificate_expiry"
	EventEquipmentExpiry   EventKind = "equipment_expiry"
)

// CalendarEvent is one dated entry on the fleet survey calendar.
// Window and WindowStatus are set for survey entries; Status is set for
// expiry entries.
type CalendarEvent struct {
	Kind      EventKind `json:"kind"`
	ShipID    common.ID `json:"ship_id"`
	ShipName  string    `json:"ship_name"`
	SubjectID common.ID `json:"subject_id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`

	SurveyType   string                   `json:"survey_type,omitempty"`
	Window       *scheduling.SurveyWindow `json:"window,omitempty"`
	WindowStatus scheduling.WindowStatus  `json:"window_status,omitempty"`
	Status       scheduling.CertStatus    `json:"status,omitempty"`
}

// StatusLabel returns the grading string of the event: the window status
// for surveys, the expiry status for everything else.
func (e CalendarEvent) StatusLabel() string {
	if e.Kind == EventSurvey {
		return string(e.WindowStatus)
	}
	return string(e.Status)
}

// ─────────────────────────────────────────────────────────────────────────────
// Alert scanning
// ─────────────────────────────────────────────────────────────────────────────

// ScanReport summarizes one alert scan pass.
type ScanReport struct {
	AsOf          time.Time `json:"as_of"`
	ItemsScanned  int       `json:"items_scanned"`
	AlertsEmitted int       `json:"alerts_emitted"`
	Deduplicated  int       `json:"deduplicated"`
	Failures      int       `json:"failures"`
}

// FleetReport describes a generated and archived compliance report.
type FleetReport struct {
	ObjectKey   string    `json:"object_key"`
	DownloadURL string    `json:"download_url"`
	Rows        int       `json:"rows"`
	GeneratedAt time.Time `json:"generated_at"`
}

package client

import "time"

// Wire types mirroring the API's JSON shapes. Times carrying calendar
// dates (issue, valid, survey dates) are midnight UTC.

// Ship is a fleet registry entry.
type Ship struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`

	Name      string `json:"name"`
	IMONumber string `json:"imo_number"`
	Flag      string `json:"flag,omitempty"`
	ShipType  string `json:"ship_type,omitempty"`
	Status    string `json:"status"`

	AnniversaryDay       int        `json:"anniversary_day,omitempty"`
	AnniversaryMonth     int        `json:"anniversary_month,omitempty"`
	SpecialSurveyCycleTo *time.Time `json:"special_survey_cycle_to,omitempty"`
}

// Certificate is a statutory certificate with its derived schedule.
type Certificate struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`

	ShipID   string `json:"ship_id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`

	IssueDate   time.Time  `json:"issue_date"`
	ValidDate   *time.Time `json:"valid_date,omitempty"`
	LastEndorse *time.Time `json:"last_endorse,omitempty"`

	SurveyAnnotation string     `json:"survey_annotation,omitempty"`
	NextSurveyDate   *time.Time `json:"next_survey_date,omitempty"`
	NextSurveyType   string     `json:"next_survey_type,omitempty"`
}

// TestRecord is an equipment test with its derived valid date.
type TestRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`

	ShipID        string     `json:"ship_id"`
	EquipmentName string     `json:"equipment_name"`
	Location      string     `json:"location,omitempty"`
	IssuedDate    time.Time  `json:"issued_date"`
	ValidDate     *time.Time `json:"valid_date,omitempty"`
}

// SurveyWindow brackets a survey target date.
type SurveyWindow struct {
	TargetDate  time.Time `json:"target_date"`
	WindowOpen  time.Time `json:"window_open"`
	WindowClose time.Time `json:"window_close"`
	WindowType  string    `json:"window_type"`
}

// CertificateStatus is a certificate graded against today.
type CertificateStatus struct {
	Certificate  *Certificate  `json:"certificate"`
	Status       string        `json:"status"`
	Window       *SurveyWindow `json:"window,omitempty"`
	WindowStatus string        `json:"window_status,omitempty"`
	DaysToExpiry *int          `json:"days_to_expiry,omitempty"`
}

// EquipmentStatus is a test record graded against today.
type EquipmentStatus struct {
	Record       *TestRecord `json:"record"`
	Status       string      `json:"status"`
	RuleKind     string      `json:"rule_kind"`
	DaysToExpiry *int        `json:"days_to_expiry,omitempty"`
}

// ShipCompliance is the full per-ship schedule view.
type ShipCompliance struct {
	Ship         *Ship               `json:"ship"`
	Certificates []CertificateStatus `json:"certificates"`
	Equipment    []EquipmentStatus   `json:"equipment"`
	AsOf         time.Time           `json:"as_of"`
}

// CertificateWindow is the response of the window endpoint.
type CertificateWindow struct {
	CertificateID string        `json:"certificate_id"`
	Schedulable   bool          `json:"schedulable"`
	Window        *SurveyWindow `json:"window,omitempty"`
	WindowStatus  string        `json:"window_status,omitempty"`
}

// FleetSummary aggregates compliance state across the operational fleet.
type FleetSummary struct {
	GeneratedAt       time.Time `json:"generated_at"`
	TotalShips        int       `json:"total_ships"`
	TotalCertificates int       `json:"total_certificates"`
	TotalEquipment    int       `json:"total_equipment"`

	CertificateStatus map[string]int `json:"certificate_status"`
	EquipmentStatus   map[string]int `json:"equipment_status"`
	WindowStatus      map[string]int `json:"window_status"`

	ShipsWithFindings int `json:"ships_with_findings"`
}

// CalendarEvent is one dated entry on the fleet survey calendar.
type CalendarEvent struct {
	Kind      string    `json:"kind"`
	ShipID    string    `json:"ship_id"`
	ShipName  string    `json:"ship_name"`
	SubjectID string    `json:"subject_id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`

	SurveyType   string        `json:"survey_type,omitempty"`
	Window       *SurveyWindow `json:"window,omitempty"`
	WindowStatus string        `json:"window_status,omitempty"`
	Status       string        `json:"status,omitempty"`
}

// ShipRecalcResult reports one ship's recalculation outcome.
type ShipRecalcResult struct {
	ShipID              string `json:"ship_id"`
	CertificatesUpdated int    `json:"certificates_updated"`
	EquipmentUpdated    int    `json:"equipment_updated"`
}

// RecalcFailure records a ship whose recalculation failed.
type RecalcFailure struct {
	ShipID string `json:"ship_id"`
	Reason string `json:"reason"`
}

// RecalcReport summarizes a fleet-wide recalculation run.
type RecalcReport struct {
	ShipsProcessed      int             `json:"ships_processed"`
	CertificatesUpdated int             `json:"certificates_updated"`
	EquipmentUpdated    int             `json:"equipment_updated"`
	Skipped             int             `json:"skipped"`
	Failures            []RecalcFailure `json:"failures,omitempty"`
	Duration            time.Duration   `json:"duration"`
}

// RecalcAccepted acknowledges an asynchronous fleet recalculation.
type RecalcAccepted struct {
	Requested bool   `json:"requested"`
	Scope     string `json:"scope"`
}

// FleetReport describes a generated and archived compliance report.
type FleetReport struct {
	ObjectKey   string    `json:"object_key"`
	DownloadURL string    `json:"download_url"`
	Rows        int       `json:"rows"`
	GeneratedAt time.Time `json:"generated_at"`
}

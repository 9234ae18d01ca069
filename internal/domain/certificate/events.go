package certificate

import (
	"time"

	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// CertificateIssuedEvent is recorded when a certificate enters the registry.
type CertificateIssuedEvent struct {
	common.BaseEvent
	ShipID   string     `json:"ship_id"`
	Name     string     `json:"name"`
	Category string     `json:"category,omitempty"`
	ValidTo  *time.Time `json:"valid_to,omitempty"`
	Version  int        `json:"version"`
}

func NewCertificateIssuedEvent(c *Certificate) *CertificateIssuedEvent {
	return &CertificateIssuedEvent{
		BaseEvent: common.NewBaseEvent(string(c.ID)),
		ShipID:    string(c.ShipID),
		Name:      c.Name,
		Category:  c.Category,
		ValidTo:   c.ValidDate,
		Version:   c.Version,
	}
}

// CertificateEndorsedEvent is recorded when a surveyor endorsement lands.
// NextSurveyDate/NextSurveyType carry the newly derived schedule.
type CertificateEndorsedEvent struct {
	common.BaseEvent
	ShipID         string     `json:"ship_id"`
	Name           string     `json:"name"`
	EndorseDate    time.Time  `json:"endorse_date"`
	NextSurveyDate *time.Time `json:"next_survey_date,omitempty"`
	NextSurveyType string     `json:"next_survey_type,omitempty"`
	Version        int        `json:"version"`
}

func NewCertificateEndorsedEvent(c *Certificate, endorseDate time.Time) *CertificateEndorsedEvent {
	return &CertificateEndorsedEvent{
		BaseEvent:      common.NewBaseEvent(string(c.ID)),
		ShipID:         string(c.ShipID),
		Name:           c.Name,
		EndorseDate:    endorseDate,
		NextSurveyDate: c.NextSurveyDate,
		NextSurveyType: c.NextSurveyType,
		Version:        c.Version,
	}
}

// CertificateRenewedEvent is recorded when a new certificate period starts.
type CertificateRenewedEvent struct {
	common.BaseEvent
	ShipID    string     `json:"ship_id"`
	Name      string     `json:"name"`
	IssueDate time.Time  `json:"issue_date"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`
	Version   int        `json:"version"`
}

func NewCertificateRenewedEvent(c *Certificate) *CertificateRenewedEvent {
	return &CertificateRenewedEvent{
		BaseEvent: common.NewBaseEvent(string(c.ID)),
		ShipID:    string(c.ShipID),
		Name:      c.Name,
		IssueDate: c.IssueDate,
		ValidTo:   c.ValidDate,
		Version:   c.Version,
	}
}

// CertificateScheduleChangedEvent is recorded when the stored target of a
// window-based certificate changes.
type CertificateScheduleChangedEvent struct {
	common.BaseEvent
	ShipID         string     `json:"ship_id"`
	Name           string     `json:"name"`
	NextSurveyDate *time.Time `json:"next_survey_date,omitempty"`
	NextSurveyType string     `json:"next_survey_type,omitempty"`
	Annotation     string     `json:"annotation,omitempty"`
	Version        int        `json:"version"`
}

func NewCertificateScheduleChangedEvent(c *Certificate) *CertificateScheduleChangedEvent {
	return &CertificateScheduleChangedEvent{
		BaseEvent:      common.NewBaseEvent(string(c.ID)),
		ShipID:         string(c.ShipID),
		Name:           c.Name,
		NextSurveyDate: c.NextSurveyDate,
		NextSurveyType: c.NextSurveyType,
		Annotation:     c.SurveyAnnotation,
		Version:        c.Version,
	}
}

// Package certificate implements the Certificate bounded context: statutory
// ship certificates, DOC audit scheduling, endorsement bookkeeping, and the
// derived next-survey fields the compliance calendar is built from.
//
// Two scheduling families share this aggregate. DOC-category certificates
// (full_term, short_term, interim) derive their next survey from the audit
// cycle calculator on every mutation. Window-based certificates carry a
// stored target date with a survey-time annotation and expose the window
// through the survey window calculator.
package certificate

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Certificate aggregate root
// ─────────────────────────────────────────────────────────────────────────────

// Certificate is the aggregate root of the Certificate bounded context.
// All dates are held at UTC midnight.
//
// Consumers must not modify fields directly; mutations go through the
// exported methods so the derived fields stay consistent with the source
// dates.
type Certificate struct {
	common.BaseEntity

	ShipID common.ID `json:"ship_id"`
	Name   string    `json:"name"`

	// Category is one of the DOC categories or a free-form certificate
	// type ("Safety Equipment", "Class", ...). Only the DOC categories
	// drive derivation.
	Category string `json:"category,omitempty"`

	// ── Source dates ──────────────────────────────────────────────────────────
	IssueDate   time.Time  `json:"issue_date"`
	ValidDate   *time.Time `json:"valid_date,omitempty"`
	LastEndorse *time.Time `json:"last_endorse,omitempty"`

	// SurveyAnnotation is the window tag attached to the stored target date
	// of window-based certificates ("±3M", "-3M"). Unrecognized values keep
	// the certificate out of window scheduling.
	SurveyAnnotation string `json:"survey_annotation,omitempty"`

	// ── Derived schedule (DOC categories) or stored target (window-based) ────
	NextSurveyDate *time.Time `json:"next_survey_date,omitempty"`
	NextSurveyType string     `json:"next_survey_type,omitempty"`

	events []common.DomainEvent
}

// NewCertificate creates a Certificate aggregate, enforcing construction
// invariants:
//   - shipID and name must be non-empty, issueDate non-zero.
//   - validDate, when present, must not precede issueDate.
//
// DOC-category certificates are scheduled immediately; a full_term or
// interim certificate without a valid date fails construction with
// ErrCodeMissingRequiredDate. A CertificateIssued domain event is recorded.
func NewCertificate(shipID common.ID, name, category string, issueDate time.Time, validDate *time.Time, annotation string) (*Certificate, error) {
	if shipID == "" {
		return nil, errors.InvalidParam("certificate ship_id must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.InvalidParam("certificate name must not be empty")
	}
	if issueDate.IsZero() {
		return nil, errors.InvalidParam("certificate issue date must not be zero")
	}

	now := time.Now().UTC()
	c := &Certificate{
		BaseEntity: common.BaseEntity{
			ID:        common.NewID(),
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
		ShipID:           shipID,
		Name:             strings.TrimSpace(name),
		Category:         category,
		IssueDate:        scheduling.NormalizeDate(issueDate),
		SurveyAnnotation: strings.TrimSpace(annotation),
	}
	if validDate != nil {
		v := scheduling.NormalizeDate(*validDate)
		c.ValidDate = &v
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.Recalculate(); err != nil {
		return nil, err
	}

	c.recordEvent(NewCertificateIssuedEvent(c))
	return c, nil
}

// Validate checks the date invariants that must hold at rest:
//   - ValidDate, when present, is on or after IssueDate.
//   - LastEndorse, when present, is on or after IssueDate and on or before
//     ValidDate.
func (c *Certificate) Validate() error {
	if c.ValidDate != nil && c.ValidDate.Before(c.IssueDate) {
		return errors.New(errors.ErrCodeCertificateDatesInvalid,
			fmt.Sprintf("valid date %s precedes issue date %s on certificate %q",
				c.ValidDate.Format(time.DateOnly), c.IssueDate.Format(time.DateOnly), c.Name))
	}
	if c.LastEndorse != nil {
		if c.LastEndorse.Before(c.IssueDate) {
			return errors.New(errors.ErrCodeCertificateDatesInvalid,
				fmt.Sprintf("endorsement %s precedes issue date %s on certificate %q",
					c.LastEndorse.Format(time.DateOnly), c.IssueDate.Format(time.DateOnly), c.Name))
		}
		if c.ValidDate != nil && c.LastEndorse.After(*c.ValidDate) {
			return errors.New(errors.ErrCodeCertificateDatesInvalid,
				fmt.Sprintf("endorsement %s is after valid date %s on certificate %q",
					c.LastEndorse.Format(time.DateOnly), c.ValidDate.Format(time.DateOnly), c.Name))
		}
	}
	return nil
}

// IsDOCCategory reports whether this certificate's schedule is derived by
// the DOC audit cycle calculator.
func (c *Certificate) IsDOCCategory() bool {
	return scheduling.IsDOCCategory(c.Category)
}

// ─────────────────────────────────────────────────────────────────────────────
// Schedule derivation
// ─────────────────────────────────────────────────────────────────────────────

// Recalculate refreshes the derived next-survey fields. For DOC categories
// the audit cycle calculator decides them; an exhausted cycle or a
// short_term certificate clears them. Window-based certificates keep their
// stored target untouched.
func (c *Certificate) Recalculate() error {
	if !c.IsDOCCategory() {
		return nil
	}

	next, kind, err := scheduling.NextDOCAudit(c.Category, c.IssueDate, c.ValidDate, c.LastEndorse)
	if err != nil {
		return err
	}
	c.NextSurveyDate = next
	c.NextSurveyType = kind
	return nil
}

// Endorse records a surveyor endorsement and re-derives the schedule. The
// endorsement date must fall between the issue and valid dates. A
// CertificateEndorsed domain event is recorded.
func (c *Certificate) Endorse(date time.Time) error {
	d := scheduling.NormalizeDate(date)
	prev := c.LastEndorse
	c.LastEndorse = &d

	if err := c.Validate(); err != nil {
		c.LastEndorse = prev
		return err
	}
	if err := c.Recalculate(); err != nil {
		c.LastEndorse = prev
		return err
	}

	c.touch()
	c.recordEvent(NewCertificateEndorsedEvent(c, d))
	return nil
}

// Renew starts a new certificate period: fresh issue and valid dates, the
// endorsement history cleared, the schedule re-derived. A
// CertificateRenewed domain event is recorded.
func (c *Certificate) Renew(issueDate, validDate time.Time) error {
	issue := scheduling.NormalizeDate(issueDate)
	valid := scheduling.NormalizeDate(validDate)
	if valid.Before(issue) {
		return errors.New(errors.ErrCodeCertificateDatesInvalid,
			fmt.Sprintf("renewal valid date %s precedes issue date %s on certificate %q",
				valid.Format(time.DateOnly), issue.Format(time.DateOnly), c.Name))
	}

	c.IssueDate = issue
	c.ValidDate = &valid
	c.LastEndorse = nil

	if err := c.Recalculate(); err != nil {
		return err
	}

	c.touch()
	c.recordEvent(NewCertificateRenewedEvent(c))
	return nil
}

// SetNextSurvey stores the upstream-announced target date, survey type and
// annotation of a window-based certificate. DOC categories derive these
// fields and reject manual writes.
func (c *Certificate) SetNextSurvey(target *time.Time, surveyType, annotation string) error {
	if c.IsDOCCategory() {
		return errors.InvalidState(
			fmt.Sprintf("next survey of DOC certificate %q is derived, not stored", c.Name))
	}

	if target != nil {
		d := scheduling.NormalizeDate(*target)
		c.NextSurveyDate = &d
	} else {
		c.NextSurveyDate = nil
	}
	c.NextSurveyType = strings.TrimSpace(surveyType)
	c.SurveyAnnotation = strings.TrimSpace(annotation)

	c.touch()
	c.recordEvent(NewCertificateScheduleChangedEvent(c))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Schedule queries
// ─────────────────────────────────────────────────────────────────────────────

// Window returns the survey window around the next survey date. For DOC
// categories the window comes from the matching audit cycle point; for
// window-based certificates it is built from the stored annotation. The
// second return value is false when no window applies: no next survey, an
// unrecognized annotation, or an interim initial verification.
func (c *Certificate) Window() (scheduling.SurveyWindow, bool) {
	if c.NextSurveyDate == nil {
		return scheduling.SurveyWindow{}, false
	}

	if c.IsDOCCategory() {
		if c.ValidDate == nil {
			return scheduling.SurveyWindow{}, false
		}
		for _, p := range scheduling.DOCCyclePoints(*c.ValidDate) {
			if p.Kind == c.NextSurveyType && scheduling.SameCalendarDate(p.Target, *c.NextSurveyDate) {
				return p.Window(), true
			}
		}
		return scheduling.SurveyWindow{}, false
	}

	return scheduling.BuildWindow(*c.NextSurveyDate, c.SurveyAnnotation)
}

// WindowStatus grades the next survey window against today. The second
// return value is false when no window applies.
func (c *Certificate) WindowStatus(today time.Time) (scheduling.WindowStatus, bool) {
	w, ok := c.Window()
	if !ok {
		return "", false
	}
	return scheduling.ClassifyWindow(w, today), true
}

// Status classifies the certificate by its valid date.
func (c *Certificate) Status(today time.Time, warningDays int) scheduling.CertStatus {
	return scheduling.ClassifyExpiry(c.ValidDate, today, warningDays)
}

// ─────────────────────────────────────────────────────────────────────────────
// Domain event collection
// ─────────────────────────────────────────────────────────────────────────────

// Events returns the domain events accumulated since the last call and
// clears the buffer.
func (c *Certificate) Events() []common.DomainEvent {
	evts := c.events
	c.events = nil
	return evts
}

func (c *Certificate) recordEvent(evt common.DomainEvent) {
	c.events = append(c.events, evt)
}

// touch updates UpdatedAt and bumps the optimistic-lock Version.
func (c *Certificate) touch() {
	c.UpdatedAt = time.Now().UTC()
	c.Version++
}

package certificate

import (
	"context"
	"time"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// StatusView — certificate with graded compliance state
// ─────────────────────────────────────────────────────────────────────────────

// StatusView pairs a certificate with its compliance grading as of a given
// day. Window and WindowStatus are only set when the certificate carries a
// schedulable survey window.
type StatusView struct {
	Certificate  *Certificate             `json:"certificate"`
	Status       scheduling.CertStatus    `json:"status"`
	Window       *scheduling.SurveyWindow `json:"window,omitempty"`
	WindowStatus scheduling.WindowStatus  `json:"window_status,omitempty"`
	DaysToExpiry *int                     `json:"days_to_expiry,omitempty"`
}

// buildStatusView grades a single certificate.
func buildStatusView(c *Certificate, today time.Time, warningDays int) StatusView {
	view := StatusView{
		Certificate: c,
		Status:      c.Status(today, warningDays),
	}
	if c.ValidDate != nil {
		days := scheduling.DaysBetween(today, *c.ValidDate)
		view.DaysToExpiry = &days
	}
	if w, ok := c.Window(); ok {
		view.Window = &w
		view.WindowStatus = scheduling.ClassifyWindow(w, today)
	}
	return view
}

// ─────────────────────────────────────────────────────────────────────────────
// Service — certificate domain service
// ─────────────────────────────────────────────────────────────────────────────

// Service orchestrates certificate operations by coordinating the
// Certificate aggregate and the Repository port. Scheduling rules live in
// the aggregate and the scheduling package; service methods load, mutate
// and persist.
type Service struct {
	repo   Repository
	logger logging.Logger
}

// NewService creates a certificate domain Service.
func NewService(repo Repository, logger logging.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateCertificate
// ─────────────────────────────────────────────────────────────────────────────

// CreateCertificate creates a certificate and persists it. Validation and
// initial schedule derivation happen in the NewCertificate factory.
func (s *Service) CreateCertificate(ctx context.Context, shipID common.ID, name, category string, issueDate time.Time, validDate *time.Time, annotation string) (*Certificate, error) {
	c, err := NewCertificate(shipID, name, category, issueDate, validDate, annotation)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("failed to persist certificate",
			logging.Err(err),
			logging.String("ship_id", string(shipID)),
			logging.String("name", name))
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist certificate")
	}

	s.logger.Info("certificate created",
		logging.String("id", string(c.ID)),
		logging.String("ship_id", string(shipID)),
		logging.String("name", c.Name),
		logging.String("category", c.Category))
	return c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// GetCertificate retrieves a certificate by ID.
// Returns ErrCodeCertificateNotFound when it does not exist.
func (s *Service) GetCertificate(ctx context.Context, id common.ID) (*Certificate, error) {
	return s.repo.GetByID(ctx, id)
}

// GetWithStatus retrieves a certificate together with its compliance
// grading as of today.
func (s *Service) GetWithStatus(ctx context.Context, id common.ID, today time.Time, warningDays int) (StatusView, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return StatusView{}, err
	}
	return buildStatusView(c, today, warningDays), nil
}

// ListByShip returns every certificate of a ship.
func (s *Service) ListByShip(ctx context.Context, shipID common.ID) ([]*Certificate, error) {
	return s.repo.ListByShip(ctx, shipID)
}

// ListByShipWithStatus returns a ship's certificates graded as of today.
func (s *Service) ListByShipWithStatus(ctx context.Context, shipID common.ID, today time.Time, warningDays int) ([]StatusView, error) {
	certs, err := s.repo.ListByShip(ctx, shipID)
	if err != nil {
		return nil, err
	}

	views := make([]StatusView, 0, len(certs))
	for _, c := range certs {
		views = append(views, buildStatusView(c, today, warningDays))
	}
	return views, nil
}

// List returns a filtered page of certificates with the total match count.
func (s *Service) List(ctx context.Context, filter ListFilter, page common.Pagination) ([]*Certificate, int64, error) {
	if err := page.Validate(); err != nil {
		return nil, 0, pkgerrors.InvalidParam("invalid pagination parameters").WithCause(err)
	}
	return s.repo.List(ctx, filter, page)
}

// FindExpiring returns certificates whose valid date is on or before
// cutoff, soonest first.
func (s *Service) FindExpiring(ctx context.Context, cutoff time.Time) ([]*Certificate, error) {
	return s.repo.FindExpiring(ctx, cutoff)
}

// FindSurveysBetween returns certificates whose next survey date falls
// inside [from, to], soonest first.
func (s *Service) FindSurveysBetween(ctx context.Context, from, to time.Time) ([]*Certificate, error) {
	return s.repo.FindSurveysBetween(ctx, from, to)
}

// ─────────────────────────────────────────────────────────────────────────────
// Endorse / Renew / SetNextSurvey
// ─────────────────────────────────────────────────────────────────────────────

// Endorse records a surveyor endorsement on a certificate, re-derives the
// schedule and persists the result.
func (s *Service) Endorse(ctx context.Context, id common.ID, date time.Time) (*Certificate, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.Endorse(date); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("failed to persist endorsement",
			logging.Err(err),
			logging.String("certificate_id", string(id)))
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist endorsement")
	}

	s.logger.Info("certificate endorsed",
		logging.String("certificate_id", string(id)),
		logging.Time("endorse_date", date),
		logging.String("next_survey_type", c.NextSurveyType))
	return c, nil
}

// Renew starts a new certificate period and persists it.
func (s *Service) Renew(ctx context.Context, id common.ID, issueDate, validDate time.Time) (*Certificate, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.Renew(issueDate, validDate); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist renewal")
	}

	s.logger.Info("certificate renewed",
		logging.String("certificate_id", string(id)),
		logging.Time("issue_date", issueDate),
		logging.Time("valid_date", validDate))
	return c, nil
}

// SetNextSurvey stores the target date and annotation of a window-based
// certificate and persists it.
func (s *Service) SetNextSurvey(ctx context.Context, id common.ID, target *time.Time, surveyType, annotation string) (*Certificate, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.SetNextSurvey(target, surveyType, annotation); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist survey target")
	}
	return c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// RecalculateForShip
// ─────────────────────────────────────────────────────────────────────────────

// RecalculateForShip re-derives the next-survey fields of every
// DOC-category certificate of a ship, persisting only the certificates
// whose schedule moved. It returns the number of updated certificates.
func (s *Service) RecalculateForShip(ctx context.Context, shipID common.ID) (int, error) {
	certs, err := s.repo.ListByShip(ctx, shipID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, c := range certs {
		if !c.IsDOCCategory() {
			continue
		}

		prevDate := c.NextSurveyDate
		prevType := c.NextSurveyType
		if err := c.Recalculate(); err != nil {
			return updated, err
		}
		if sameSchedule(prevDate, c.NextSurveyDate) && prevType == c.NextSurveyType {
			continue
		}

		if err := s.repo.Update(ctx, c); err != nil {
			return updated, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError,
				"failed to persist recalculated certificate")
		}
		updated++
	}

	if updated > 0 {
		s.logger.Info("certificate schedules recalculated",
			logging.String("ship_id", string(shipID)),
			logging.Int("updated", updated))
	}
	return updated, nil
}

func sameSchedule(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return scheduling.SameCalendarDate(*a, *b)
}

// ─────────────────────────────────────────────────────────────────────────────
// DeleteCertificate
// ─────────────────────────────────────────────────────────────────────────────

// DeleteCertificate removes a certificate.
func (s *Service) DeleteCertificate(ctx context.Context, id common.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("certificate deleted", logging.String("certificate_id", string(id)))
	return nil
}

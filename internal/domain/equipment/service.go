package equipment

import (
	"context"
	"time"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// AnchorSource yields the survey anchors of a ship. *ship.Service satisfies
// it; tests substitute a stub.
type AnchorSource interface {
	AnchorsForShip(ctx context.Context, shipID common.ID) (scheduling.ShipAnchors, error)
}

// StatusView pairs a test record with its grading as of a given day.
type StatusView struct {
	Record       *TestRecord           `json:"record"`
	Status       scheduling.CertStatus `json:"status"`
	RuleKind     string                `json:"rule_kind"`
	DaysToExpiry *int                  `json:"days_to_expiry,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Service — equipment domain service
// ─────────────────────────────────────────────────────────────────────────────

// Service orchestrates equipment test records. Valid dates are derived on
// write against the ship's anchors of the moment; RecalculateForShip
// replays the derivation after the anchors change.
type Service struct {
	repo    Repository
	anchors AnchorSource
	logger  logging.Logger
}

// NewService creates an equipment domain Service.
func NewService(repo Repository, anchors AnchorSource, logger logging.Logger) *Service {
	return &Service{
		repo:    repo,
		anchors: anchors,
		logger:  logger,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// RecordTest
// ─────────────────────────────────────────────────────────────────────────────

// RecordTest creates a test record for a ship's equipment, deriving the
// valid date from the ship's current anchors, and persists it.
func (s *Service) RecordTest(ctx context.Context, shipID common.ID, equipmentName string, issuedDate time.Time) (*TestRecord, error) {
	anchors, err := s.anchors.AnchorsForShip(ctx, shipID)
	if err != nil {
		return nil, err
	}

	r, err := NewTestRecord(shipID, equipmentName, issuedDate, anchors)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, r); err != nil {
		s.logger.Error("failed to persist test record",
			logging.Err(err),
			logging.String("ship_id", string(shipID)),
			logging.String("equipment_name", equipmentName))
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist test record")
	}

	s.logger.Info("equipment test recorded",
		logging.String("id", string(r.ID)),
		logging.String("ship_id", string(shipID)),
		logging.String("equipment_name", r.EquipmentName),
		logging.String("rule", r.RuleKind()))
	return r, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// GetRecord retrieves a test record by ID.
func (s *Service) GetRecord(ctx context.Context, id common.ID) (*TestRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByShip returns every test record of a ship.
func (s *Service) ListByShip(ctx context.Context, shipID common.ID) ([]*TestRecord, error) {
	return s.repo.ListByShip(ctx, shipID)
}

// ListByShipWithStatus returns a ship's test records graded as of today.
func (s *Service) ListByShipWithStatus(ctx context.Context, shipID common.ID, today time.Time, warningDays int) ([]StatusView, error) {
	records, err := s.repo.ListByShip(ctx, shipID)
	if err != nil {
		return nil, err
	}

	views := make([]StatusView, 0, len(records))
	for _, r := range records {
		view := StatusView{
			Record:   r,
			Status:   r.Status(today, warningDays),
			RuleKind: r.RuleKind(),
		}
		if r.ValidDate != nil {
			days := scheduling.DaysBetween(today, *r.ValidDate)
			view.DaysToExpiry = &days
		}
		views = append(views, view)
	}
	return views, nil
}

// List returns a filtered page of test records with the total match count.
func (s *Service) List(ctx context.Context, filter ListFilter, page common.Pagination) ([]*TestRecord, int64, error) {
	if err := page.Validate(); err != nil {
		return nil, 0, pkgerrors.InvalidParam("invalid pagination parameters").WithCause(err)
	}
	return s.repo.List(ctx, filter, page)
}

// FindExpiring returns records whose valid date is on or before cutoff,
// soonest first.
func (s *Service) FindExpiring(ctx context.Context, cutoff time.Time) ([]*TestRecord, error) {
	return s.repo.FindExpiring(ctx, cutoff)
}

// ─────────────────────────────────────────────────────────────────────────────
// RecalculateForShip
// ─────────────────────────────────────────────────────────────────────────────

// RecalculateForShip re-derives the valid dates of every test record of a
// ship against its current anchors, persisting only the records whose date
// moved. It returns the number of updated records.
func (s *Service) RecalculateForShip(ctx context.Context, shipID common.ID) (int, error) {
	anchors, err := s.anchors.AnchorsForShip(ctx, shipID)
	if err != nil {
		return 0, err
	}

	records, err := s.repo.ListByShip(ctx, shipID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, r := range records {
		if !r.Recalculate(anchors) {
			continue
		}
		if err := s.repo.Update(ctx, r); err != nil {
			return updated, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError,
				"failed to persist recalculated test record")
		}
		updated++
	}

	if updated > 0 {
		s.logger.Info("equipment schedules recalculated",
			logging.String("ship_id", string(shipID)),
			logging.Int("updated", updated))
	}
	return updated, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// DeleteRecord
// ─────────────────────────────────────────────────────────────────────────────

// DeleteRecord removes a test record.
func (s *Service) DeleteRecord(ctx context.Context, id common.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("test record deleted", logging.String("id", string(id)))
	return nil
}

package ship

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Service — ship domain service
// ─────────────────────────────────────────────────────────────────────────────

// Service orchestrates fleet registry operations by coordinating the Ship
// aggregate and the Repository port. Invariants live in the aggregate;
// service methods load, mutate and persist.
//
// Service is consumed by:
//   - internal/application/compliance   (recalculation and fleet reporting)
//   - internal/interfaces/http/handlers (REST API handlers)
//   - internal/interfaces/cli           (fleet commands)
type Service struct {
	repo   Repository
	logger logging.Logger
}

// NewService creates a ship domain Service.
func NewService(repo Repository, logger logging.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// RegisterShip
// ─────────────────────────────────────────────────────────────────────────────

// RegisterShip creates a Ship aggregate and persists it. The IMO number is
// validated and normalized by the NewShip factory; registering an IMO number
// already on the registry returns ErrCodeShipAlreadyExists.
func (s *Service) RegisterShip(ctx context.Context, name, imoNumber, flag, shipType string) (*Ship, error) {
	sh, err := NewShip(name, imoNumber, flag, shipType)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByIMO(ctx, sh.IMONumber); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.ErrCodeShipAlreadyExists,
			fmt.Sprintf("ship with IMO number %s already registered", sh.IMONumber))
	} else if err != nil && !pkgerrors.IsNotFound(err) {
		return nil, err
	}

	if err := s.repo.Create(ctx, sh); err != nil {
		s.logger.Error("failed to persist ship",
			logging.Err(err),
			logging.String("imo_number", sh.IMONumber))
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist ship")
	}

	s.logger.Info("ship registered",
		logging.String("id", string(sh.ID)),
		logging.String("imo_number", sh.IMONumber),
		logging.String("name", sh.Name))
	return sh, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetShip / GetShipByIMO / ListShips
// ─────────────────────────────────────────────────────────────────────────────

// GetShip retrieves a ship by its platform-internal ID.
// Returns ErrCodeShipNotFound when the ship does not exist.
func (s *Service) GetShip(ctx context.Context, id common.ID) (*Ship, error) {
	return s.repo.GetByID(ctx, id)
}

// GetShipByIMO retrieves a ship by IMO number, accepting both prefixed and
// bare forms.
func (s *Service) GetShipByIMO(ctx context.Context, imoNumber string) (*Ship, error) {
	normalized, err := NormalizeIMONumber(imoNumber)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByIMO(ctx, normalized)
}

// ListShips returns a filtered page of the registry together with the total
// match count.
func (s *Service) ListShips(ctx context.Context, filter ListFilter, page common.Pagination) ([]*Ship, int64, error) {
	if err := page.Validate(); err != nil {
		return nil, 0, pkgerrors.InvalidParam("invalid pagination parameters").WithCause(err)
	}
	return s.repo.List(ctx, filter, page)
}

// ListOperational returns every ship subject to compliance tracking.
func (s *Service) ListOperational(ctx context.Context) ([]*Ship, error) {
	return s.repo.ListOperational(ctx)
}

// Count returns the total number of registered ships, any status.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// AnchorsForShip returns the survey anchors of a ship in the scheduling
// engine's value form. It satisfies the equipment package's AnchorSource
// port.
func (s *Service) AnchorsForShip(ctx context.Context, id common.ID) (scheduling.ShipAnchors, error) {
	sh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return scheduling.ShipAnchors{}, err
	}
	return sh.Anchors(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SetAnchors / ClearAnchors
// ─────────────────────────────────────────────────────────────────────────────

// SetAnchors records a ship's survey anniversary and special survey cycle
// end, then persists the aggregate. Anchored equipment schedules are not
// recalculated here; the application layer reacts to the recorded
// ShipAnchorsUpdated event.
func (s *Service) SetAnchors(ctx context.Context, id common.ID, day, month int, cycleTo *time.Time) (*Ship, error) {
	sh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := sh.SetAnchors(day, month, cycleTo); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, sh); err != nil {
		s.logger.Error("failed to update ship anchors",
			logging.Err(err),
			logging.String("imo_number", sh.IMONumber))
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist ship anchors")
	}

	s.logger.Info("ship anchors updated",
		logging.String("imo_number", sh.IMONumber),
		logging.Int("anniversary_day", day),
		logging.Int("anniversary_month", month))
	return sh, nil
}

// ClearAnchors removes a ship's survey anchors.
func (s *Service) ClearAnchors(ctx context.Context, id common.ID) (*Ship, error) {
	sh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sh.ClearAnchors()

	if err := s.repo.Update(ctx, sh); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist ship anchors")
	}
	return sh, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateStatus / DeleteShip
// ─────────────────────────────────────────────────────────────────────────────

// UpdateStatus transitions a ship's lifecycle status.
func (s *Service) UpdateStatus(ctx context.Context, id common.ID, status common.Status) (*Ship, error) {
	sh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := sh.UpdateStatus(status); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, sh); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist ship status")
	}

	s.logger.Info("ship status changed",
		logging.String("imo_number", sh.IMONumber),
		logging.String("status", string(status)))
	return sh, nil
}

// DeleteShip removes a ship from the registry. Certificates and equipment
// records referencing it are removed by the database cascade.
func (s *Service) DeleteShip(ctx context.Context, id common.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("ship deleted", logging.String("id", string(id)))
	return nil
}

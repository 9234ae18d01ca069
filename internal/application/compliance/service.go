package compliance

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/SeaCert-Compliance/internal/config"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/equipment"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/ship"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

const (
	defaultRecalcWorkers = 4

	// fleetSummaryKey is the cache key of the aggregated fleet summary.
	fleetSummaryKey = "fleet_summary"
	fleetSummaryTTL = 5 * time.Minute
)

// Service runs compliance recalculation and fleet-level aggregation over
// the three bounded contexts.
type Service struct {
	ships     *ship.Service
	certs     *certificate.Service
	equipment *equipment.Service
	cache     Cache
	logger    logging.Logger

	warningDays   int
	recalcWorkers int

	// now is the clock; tests pin it.
	now func() time.Time
}

// NewService wires the compliance application service. Zero config
// values fall back to domain defaults.
func NewService(ships *ship.Service, certs *certificate.Service, equip *equipment.Service, cache Cache, cfg config.SchedulingConfig, logger logging.Logger) *Service {
	warningDays := cfg.WarningDays
	if warningDays <= 0 {
		warningDays = scheduling.DefaultWarningDays
	}
	workers := cfg.RecalcWorkers
	if workers <= 0 {
		workers = defaultRecalcWorkers
	}

	return &Service{
		ships:         ships,
		certs:         certs,
		equipment:     equip,
		cache:         cache,
		logger:        logger,
		warningDays:   warningDays,
		recalcWorkers: workers,
		now:           time.Now,
	}
}

// WarningDays returns the configured expiry warning band.
func (s *Service) WarningDays() int { return s.warningDays }

// ─────────────────────────────────────────────────────────────────────────────
// Recalculation
// ─────────────────────────────────────────────────────────────────────────────

// RecalculateShip re-derives every certificate schedule and equipment
// valid date of one ship. The ship must exist.
func (s *Service) RecalculateShip(ctx context.Context, shipID common.ID) (*ShipRecalcResult, error) {
	if _, err := s.ships.GetShip(ctx, shipID); err != nil {
		return nil, err
	}

	certsUpdated, err := s.certs.RecalculateForShip(ctx, shipID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeRecalcFailed, "certificate recalculation failed")
	}
	equipUpdated, err := s.equipment.RecalculateForShip(ctx, shipID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeRecalcFailed, "equipment recalculation failed")
	}

	if certsUpdated+equipUpdated > 0 {
		s.invalidateSummary(ctx)
	}

	s.logger.Info("ship recalculated",
		logging.String("ship_id", string(shipID)),
		logging.Int("certificates_updated", certsUpdated),
		logging.Int("equipment_updated", equipUpdated))

	return &ShipRecalcResult{
		ShipID:              shipID,
		CertificatesUpdated: certsUpdated,
		EquipmentUpdated:    equipUpdated,
	}, nil
}

// RecalculateFleet recalculates every operational ship, fanning the work
// across a bounded pool. Per-ship failures are collected in the report;
// the run only errors when the fleet cannot be listed at all.
func (s *Service) RecalculateFleet(ctx context.Context) (*RecalcReport, error) {
	start := s.now()

	ships, err := s.ships.ListOperational(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeRecalcFailed, "failed to list operational fleet")
	}
	total, err := s.ships.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeRecalcFailed, "failed to count fleet")
	}

	report := &RecalcReport{Skipped: int(total) - len(ships)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.recalcWorkers)
	for _, sh := range ships {
		sh := sh
		g.Go(func() error {
			certsUpdated, cerr := s.certs.RecalculateForShip(gctx, sh.ID)
			var equipUpdated int
			if cerr == nil {
				equipUpdated, cerr = s.equipment.RecalculateForShip(gctx, sh.ID)
			}

			mu.Lock()
			defer mu.Unlock()
			if cerr != nil {
				report.Failures = append(report.Failures, RecalcFailure{
					ShipID: sh.ID,
					Reason: cerr.Error(),
				})
				return nil
			}
			report.ShipsProcessed++
			report.CertificatesUpdated += certsUpdated
			report.EquipmentUpdated += equipUpdated
			return nil
		})
	}
	// Goroutines never return errors; Wait only observes ctx cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Duration = s.now().Sub(start)
	s.invalidateSummary(ctx)

	s.logger.Info("fleet recalculated",
		logging.Int("ships_processed", report.ShipsProcessed),
		logging.Int("certificates_updated", report.CertificatesUpdated),
		logging.Int("equipment_updated", report.EquipmentUpdated),
		logging.Int("failures", len(report.Failures)),
		logging.Duration("duration", report.Duration))
	return report, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Fleet summary
// ─────────────────────────────────────────────────────────────────────────────

// FleetSummary returns the aggregated compliance state of the
// operational fleet. Results are cached briefly; concurrent misses
// collapse into one aggregation.
func (s *Service) FleetSummary(ctx context.Context) (*FleetSummary, error) {
	var summary FleetSummary
	err := s.cache.GetOrSet(ctx, fleetSummaryKey, &summary, fleetSummaryTTL,
		func(ctx context.Context) (interface{}, error) {
			return s.buildFleetSummary(ctx)
		})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Service) buildFleetSummary(ctx context.Context) (*FleetSummary, error) {
	ships, err := s.ships.ListOperational(ctx)
	if err != nil {
		return nil, err
	}

	today := scheduling.NormalizeDate(s.now())
	summary := &FleetSummary{
		GeneratedAt:       s.now().UTC(),
		TotalShips:        len(ships),
		CertificateStatus: make(map[scheduling.CertStatus]int),
		EquipmentStatus:   make(map[scheduling.CertStatus]int),
		WindowStatus:      make(map[scheduling.WindowStatus]int),
	}

	for _, sh := range ships {
		hasFinding := false

		certViews, err := s.certs.ListByShipWithStatus(ctx, sh.ID, today, s.warningDays)
		if err != nil {
			return nil, err
		}
		for _, v := range certViews {
			summary.TotalCertificates++
			summary.CertificateStatus[v.Status]++
			if v.Status == scheduling.CertExpired {
				hasFinding = true
			}
			if v.Window != nil {
				summary.WindowStatus[v.WindowStatus]++
				if v.WindowStatus == scheduling.WindowOverdue {
					hasFinding = true
				}
			}
		}

		equipViews, err := s.equipment.ListByShipWithStatus(ctx, sh.ID, today, s.warningDays)
		if err != nil {
			return nil, err
		}
		for _, v := range equipViews {
			summary.TotalEquipment++
			summary.EquipmentStatus[v.Status]++
			if v.Status == scheduling.CertExpired {
				hasFinding = true
			}
		}

		if hasFinding {
			summary.ShipsWithFindings++
		}
	}
	return summary, nil
}

// invalidateSummary drops the cached fleet summary after mutations. A
// cache failure only costs freshness, so it is logged and swallowed.
func (s *Service) invalidateSummary(ctx context.Context) {
	if err := s.cache.Delete(ctx, fleetSummaryKey); err != nil {
		s.logger.Warn("failed to invalidate fleet summary cache", logging.Err(err))
	}
}

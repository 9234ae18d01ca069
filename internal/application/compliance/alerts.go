package compliance

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/turtacn/SeaCert-Compliance/internal/config"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/equipment"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/ship"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

const (
	alertSource = "seacert-alert-scanner"

	defaultAlertDedupTTL = 24 * time.Hour

	// surveyLookBack bounds how far back the scanner searches for overdue
	// survey windows; surveyLookAhead bounds the forward horizon.
	surveyLookBackMonths  = 12
	surveyLookAheadMonths = 6
)

// AlertService scans the fleet for compliance findings, publishes alert
// events with cache-backed deduplication, and exports archived fleet
// reports.
type AlertService struct {
	ships     *ship.Service
	certs     *certificate.Service
	equipment *equipment.Service
	publisher EventPublisher
	cache     Cache
	archive   ReportArchive
	logger    logging.Logger

	warningDays int
	dedupTTL    time.Duration
	now         func() time.Time
}

// NewAlertService wires the alert scanner. Zero config values fall back
// to defaults.
func NewAlertService(ships *ship.Service, certs *certificate.Service, equip *equipment.Service,
	publisher EventPublisher, cache Cache, archive ReportArchive,
	cfg config.SchedulingConfig, logger logging.Logger) *AlertService {

	warningDays := cfg.WarningDays
	if warningDays <= 0 {
		warningDays = scheduling.DefaultWarningDays
	}
	dedupTTL := cfg.AlertDedupTTL
	if dedupTTL <= 0 {
		dedupTTL = defaultAlertDedupTTL
	}

	return &AlertService{
		ships:       ships,
		certs:       certs,
		equipment:   equip,
		publisher:   publisher,
		cache:       cache,
		archive:     archive,
		logger:      logger,
		warningDays: warningDays,
		dedupTTL:    dedupTTL,
		now:         time.Now,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ScanOnce
// ─────────────────────────────────────────────────────────────────────────────

// ScanOnce runs one alert pass as of the given day: expiring and expired
// certificates and equipment, plus overdue and critical survey windows.
// Repeated scans inside the dedup TTL do not re-alert on the same
// finding. Publish failures are counted, not fatal.
func (s *AlertService) ScanOnce(ctx context.Context, asOf time.Time) (*ScanReport, error) {
	asOf = scheduling.NormalizeDate(asOf)
	report := &ScanReport{AsOf: asOf}

	fleet, err := s.ships.ListOperational(ctx)
	if err != nil {
		return nil, err
	}
	operational := make(map[common.ID]string, len(fleet))
	for _, sh := range fleet {
		operational[sh.ID] = sh.Name
	}

	cutoff := asOf.AddDate(0, 0, s.warningDays)
	certs, err := s.certs.FindExpiring(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	for _, c := range certs {
		if _, ok := operational[c.ShipID]; !ok {
			continue
		}
		report.ItemsScanned++
		status := c.Status(asOf, s.warningDays)
		if status != scheduling.CertExpired && status != scheduling.CertExpiringSoon {
			continue
		}
		s.emit(ctx, report, kafka.ComplianceAlertPayload{
			Kind:        kafka.AlertKindCertificate,
			ShipID:      string(c.ShipID),
			SubjectID:   string(c.ID),
			SubjectName: c.Name,
			Status:      string(status),
			DueDate:     c.ValidDate,
		}, asOf)
	}

	tests, err := s.equipment.FindExpiring(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	for _, r := range tests {
		if _, ok := operational[r.ShipID]; !ok {
			continue
		}
		report.ItemsScanned++
		status := r.Status(asOf, s.warningDays)
		if status != scheduling.CertExpired && status != scheduling.CertExpiringSoon {
			continue
		}
		s.emit(ctx, report, kafka.ComplianceAlertPayload{
			Kind:        kafka.AlertKindEquipment,
			ShipID:      string(r.ShipID),
			SubjectID:   string(r.ID),
			SubjectName: r.EquipmentName,
			Status:      string(status),
			DueDate:     r.ValidDate,
		}, asOf)
	}

	surveys, err := s.certs.FindSurveysBetween(ctx,
		scheduling.AddMonths(asOf, -surveyLookBackMonths),
		scheduling.AddMonths(asOf, surveyLookAheadMonths))
	if err != nil {
		return nil, err
	}
	for _, c := range surveys {
		if _, ok := operational[c.ShipID]; !ok {
			continue
		}
		report.ItemsScanned++
		ws, ok := c.WindowStatus(asOf)
		if !ok || (ws != scheduling.WindowOverdue && ws != scheduling.WindowCritical) {
			continue
		}
		s.emit(ctx, report, kafka.ComplianceAlertPayload{
			Kind:        kafka.AlertKindSurveyWindow,
			ShipID:      string(c.ShipID),
			SubjectID:   string(c.ID),
			SubjectName: fmt.Sprintf("%s %s survey", c.Name, c.NextSurveyType),
			Status:      string(ws),
			DueDate:     c.NextSurveyDate,
		}, asOf)
	}

	s.logger.Info("alert scan completed",
		logging.Time("as_of", asOf),
		logging.Int("items_scanned", report.ItemsScanned),
		logging.Int("alerts_emitted", report.AlertsEmitted),
		logging.Int("deduplicated", report.Deduplicated),
		logging.Int("failures", report.Failures))
	return report, nil
}

// emit publishes one alert unless the same finding was already alerted
// inside the dedup window.
func (s *AlertService) emit(ctx context.Context, report *ScanReport, payload kafka.ComplianceAlertPayload, asOf time.Time) {
	payload.RaisedAt = s.now().UTC()
	if payload.DueDate != nil {
		days := scheduling.DaysBetween(asOf, *payload.DueDate)
		payload.DaysRemaining = &days
	}

	key := fmt.Sprintf("alert:%s:%s:%s", payload.Kind, payload.SubjectID, payload.Status)
	fresh, err := s.cache.SetNX(ctx, key, asOf.Format(time.DateOnly), s.dedupTTL)
	if err != nil {
		s.logger.Warn("alert dedup check failed, emitting anyway",
			logging.String("key", key), logging.Err(err))
	} else if !fresh {
		report.Deduplicated++
		return
	}

	err = s.publisher.PublishEvent(ctx, kafka.TopicComplianceAlert, kafka.EventTypeComplianceAlert, alertSource, payload)
	if err != nil {
		report.Failures++
		s.logger.Error("failed to publish compliance alert",
			logging.String("subject_id", payload.SubjectID),
			logging.String("kind", payload.Kind),
			logging.Err(err))
		return
	}
	report.AlertsEmitted++
}

// ─────────────────────────────────────────────────────────────────────────────
// Fleet report export
// ─────────────────────────────────────────────────────────────────────────────

// GenerateFleetReport renders the operational fleet's compliance state
// as CSV, archives it, and returns a presigned download link.
func (s *AlertService) GenerateFleetReport(ctx context.Context) (*FleetReport, error) {
	fleet, err := s.ships.ListOperational(ctx)
	if err != nil {
		return nil, err
	}

	today := scheduling.NormalizeDate(s.now())
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"ship", "imo_number", "item_kind", "item_name", "category",
		"valid_date", "status", "next_survey_date", "next_survey_type", "window_status", "days_to_expiry"}
	if err := w.Write(header); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "failed to write report header")
	}

	rows := 0
	for _, sh := range fleet {
		certViews, err := s.certs.ListByShipWithStatus(ctx, sh.ID, today, s.warningDays)
		if err != nil {
			return nil, err
		}
		for _, v := range certViews {
			c := v.Certificate
			record := []string{
				sh.Name, sh.IMONumber, "certificate", c.Name, c.Category,
				formatDate(c.ValidDate), string(v.Status),
				formatDate(c.NextSurveyDate), c.NextSurveyType,
				string(v.WindowStatus), formatDays(v.DaysToExpiry),
			}
			if err := w.Write(record); err != nil {
				return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "failed to write report row")
			}
			rows++
		}

		equipViews, err := s.equipment.ListByShipWithStatus(ctx, sh.ID, today, s.warningDays)
		if err != nil {
			return nil, err
		}
		for _, v := range equipViews {
			r := v.Record
			record := []string{
				sh.Name, sh.IMONumber, "equipment", r.EquipmentName, v.RuleKind,
				formatDate(r.ValidDate), string(v.Status),
				"", "", "", formatDays(v.DaysToExpiry),
			}
			if err := w.Write(record); err != nil {
				return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "failed to write report row")
			}
			rows++
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "failed to render report")
	}

	generatedAt := s.now().UTC()
	key := fmt.Sprintf("reports/%s/fleet-compliance-%s.csv",
		generatedAt.Format("2006/01"), generatedAt.Format("20060102-150405"))
	if err := s.archive.Store(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return nil, err
	}

	url, err := s.archive.PresignedDownloadURL(ctx, key, 0)
	if err != nil {
		return nil, err
	}

	s.logger.Info("fleet report archived",
		logging.String("key", key),
		logging.Int("rows", rows))
	return &FleetReport{
		ObjectKey:   key,
		DownloadURL: url,
		Rows:        rows,
		GeneratedAt: generatedAt,
	}, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatDays(d *int) string {
	if d == nil {
		return ""
	}
	return strconv.Itoa(*d)
}

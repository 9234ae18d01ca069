package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SeaCert-Compliance/internal/application/compliance"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// complianceSource identifies this handler in published events.
const complianceSource = "seacert-apiserver"

// ComplianceHandler serves the fleet-level compliance endpoints:
// summary, calendar, recalculation and report export.
type ComplianceHandler struct {
	service   *compliance.Service
	calendar  *compliance.CalendarService
	alerts    *compliance.AlertService
	publisher EventPublisher
	logger    logging.Logger
}

// NewComplianceHandler wires the compliance endpoints. publisher may be
// nil; fleet recalculation then runs synchronously in this process.
func NewComplianceHandler(service *compliance.Service, calendar *compliance.CalendarService,
	alerts *compliance.AlertService, publisher EventPublisher, logger logging.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		service:   service,
		calendar:  calendar,
		alerts:    alerts,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterRoutes mounts the compliance routes on the API group.
func (h *ComplianceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	grp := rg.Group("/compliance")
	grp.GET("/summary", h.Summary)
	grp.GET("/calendar", h.Calendar)
	grp.POST("/recalc", h.Recalculate)
	grp.GET("/report", h.Report)
}

// Summary handles GET /compliance/summary.
func (h *ComplianceHandler) Summary(c *gin.Context) {
	summary, err := h.service.FleetSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, summary)
}

// Calendar handles GET /compliance/calendar?from&to[&format=ics]. The
// default range is the coming ninety days.
func (h *ComplianceHandler) Calendar(c *gin.Context) {
	now := time.Now()
	from := now
	to := now.AddDate(0, 0, 90)

	if v := c.Query("from"); v != "" {
		t, err := parseDate("from", v)
		if err != nil {
			respondError(c, err)
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseDate("to", v)
		if err != nil {
			respondError(c, err)
			return
		}
		to = t
	}

	events, err := h.calendar.SurveyCalendar(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "ics" {
		c.Header("Content-Disposition", `attachment; filename="fleet-compliance.ics"`)
		c.Data(http.StatusOK, "text/calendar; charset=utf-8", compliance.BuildICal(events))
		return
	}
	respond(c, http.StatusOK, events)
}

// RecalcRequest is the body of POST /compliance/recalc. An empty
// ship_id requests a fleet-wide recalculation.
type RecalcRequest struct {
	ShipID string `json:"ship_id"`
	Reason string `json:"reason"`
}

// RecalcAccepted acknowledges an asynchronous fleet recalculation.
type RecalcAccepted struct {
	Requested bool   `json:"requested"`
	Scope     string `json:"scope"`
}

// Recalculate handles POST /compliance/recalc. A single ship is
// recalculated synchronously; a fleet run is handed to the worker
// through a recalc.requested event when a publisher is wired, and runs
// in-process otherwise.
func (h *ComplianceHandler) Recalculate(c *gin.Context) {
	var req RecalcRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, errors.InvalidParam("invalid request body: "+err.Error()))
			return
		}
	}

	ctx := c.Request.Context()
	if req.ShipID != "" {
		result, err := h.service.RecalculateShip(ctx, common.ID(req.ShipID))
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, result)
		return
	}

	if h.publisher != nil {
		payload := kafka.RecalcRequestedPayload{
			Reason:      req.Reason,
			RequestedBy: complianceSource,
			RequestedAt: time.Now().UTC(),
		}
		err := h.publisher.PublishEvent(ctx, kafka.TopicRecalcRequested,
			kafka.EventTypeRecalcRequested, complianceSource, payload)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusAccepted, RecalcAccepted{Requested: true, Scope: "fleet"})
		return
	}

	report, err := h.service.RecalculateFleet(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, report)
}

// Report handles GET /compliance/report: renders the fleet compliance
// CSV, archives it and returns the download link.
func (h *ComplianceHandler) Report(c *gin.Context) {
	report, err := h.alerts.GenerateFleetReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, report)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/equipment"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/ship"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ShipHandler serves the fleet registry endpoints plus the per-ship
// compliance view.
type ShipHandler struct {
	ships     *ship.Service
	certs     *certificate.Service
	equipment *equipment.Service
	logger    logging.Logger

	warningDays int
}

// NewShipHandler wires the ship endpoints. warningDays drives the
// expiry grading of the compliance view.
func NewShipHandler(ships *ship.Service, certs *certificate.Service, equip *equipment.Service,
	warningDays int, logger logging.Logger) *ShipHandler {
	if warningDays <= 0 {
		warningDays = scheduling.DefaultWarningDays
	}
	return &ShipHandler{
		ships:       ships,
		certs:       certs,
		equipment:   equip,
		logger:      logger,
		warningDays: warningDays,
	}
}

// RegisterRoutes mounts the ship routes on the API group.
func (h *ShipHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ships := rg.Group("/ships")
	ships.POST("", h.Register)
	ships.GET("", h.List)
	ships.GET("/:id", h.Get)
	ships.DELETE("/:id", h.Delete)
	ships.PUT("/:id/status", h.UpdateStatus)
	ships.PUT("/:id/anchors", h.SetAnchors)
	ships.DELETE("/:id/anchors", h.ClearAnchors)
	ships.GET("/:id/compliance", h.Compliance)
}

// RegisterShipRequest is the body of POST /ships.
type RegisterShipRequest struct {
	Name      string `json:"name" binding:"required"`
	IMONumber string `json:"imo_number" binding:"required"`
	Flag      string `json:"flag"`
	ShipType  string `json:"ship_type"`
}

// Register handles POST /ships.
func (h *ShipHandler) Register(c *gin.Context) {
	var req RegisterShipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam("invalid request body: "+err.Error()))
		return
	}

	s, err := h.ships.RegisterShip(c.Request.Context(), req.Name, req.IMONumber, req.Flag, req.ShipType)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, s)
}

// List handles GET /ships with status/flag/type/q filters and pagination.
func (h *ShipHandler) List(c *gin.Context) {
	filter := ship.ListFilter{
		Status:    common.Status(c.Query("status")),
		Flag:      c.Query("flag"),
		ShipType:  c.Query("ship_type"),
		NameQuery: c.Query("q"),
	}
	page := parsePagination(c)

	ships, total, err := h.ships.ListShips(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	page.Total = total
	respondPaginated(c, http.StatusOK, ships, page)
}

// Get handles GET /ships/:id.
func (h *ShipHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s, err := h.ships.GetShip(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, s)
}

// Delete handles DELETE /ships/:id.
func (h *ShipHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ships.DeleteShip(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateStatusRequest is the body of PUT /ships/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PUT /ships/:id/status.
func (h *ShipHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam("invalid request body: "+err.Error()))
		return
	}

	s, err := h.ships.UpdateStatus(c.Request.Context(), id, common.Status(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, s)
}

// SetAnchorsRequest is the body of PUT /ships/:id/anchors.
type SetAnchorsRequest struct {
	AnniversaryDay   int    `json:"anniversary_day" binding:"required"`
	AnniversaryMonth int    `json:"anniversary_month" binding:"required"`
	CycleTo          string `json:"special_survey_cycle_to"`
}

// SetAnchors handles PUT /ships/:id/anchors.
func (h *ShipHandler) SetAnchors(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SetAnchorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam("invalid request body: "+err.Error()))
		return
	}
	cycleTo, err := parseOptionalDate("special_survey_cycle_to", req.CycleTo)
	if err != nil {
		respondError(c, err)
		return
	}

	s, err := h.ships.SetAnchors(c.Request.Context(), id, req.AnniversaryDay, req.AnniversaryMonth, cycleTo)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, s)
}

// ClearAnchors handles DELETE /ships/:id/anchors.
func (h *ShipHandler) ClearAnchors(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s, err := h.ships.ClearAnchors(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, s)
}

// ShipComplianceView is the per-ship schedule view returned by
// GET /ships/:id/compliance.
type ShipComplianceView struct {
	Ship         *ship.Ship               `json:"ship"`
	Certificates []certificate.StatusView `json:"certificates"`
	Equipment    []equipment.StatusView   `json:"equipment"`
	AsOf         time.Time                `json:"as_of"`
}

// Compliance handles GET /ships/:id/compliance: every certificate and
// equipment record of the ship graded as of today.
func (h *ShipHandler) Compliance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	s, err := h.ships.GetShip(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	today := scheduling.NormalizeDate(time.Now())
	certs, err := h.certs.ListByShipWithStatus(ctx, id, today, h.warningDays)
	if err != nil {
		respondError(c, err)
		return
	}
	equip, err := h.equipment.ListByShipWithStatus(ctx, id, today, h.warningDays)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, ShipComplianceView{
		Ship:         s,
		Certificates: certs,
		Equipment:    equip,
		AsOf:         today,
	})
}

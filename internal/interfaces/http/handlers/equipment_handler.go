package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/equipment"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// EquipmentHandler serves the equipment test record endpoints.
type EquipmentHandler struct {
	equipment *equipment.Service
	logger    logging.Logger

	warningDays int
}

// NewEquipmentHandler wires the equipment endpoints.
func NewEquipmentHandler(equip *equipment.Service, warningDays int, logger logging.Logger) *EquipmentHandler {
	if warningDays <= 0 {
		warningDays = scheduling.DefaultWarningDays
	}
	return &EquipmentHandler{
		equipment:   equip,
		logger:      logger,
		warningDays: warningDays,
	}
}

// RegisterRoutes mounts the equipment routes on the API group. Records
// are created and listed under their ship; single-record operations use
// the record ID.
func (h *EquipmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ships/:id/equipment", h.RecordTest)
	rg.GET("/ships/:id/equipment", h.ListByShip)

	equip := rg.Group("/equipment")
	equip.GET("", h.List)
	equip.GET("/:id", h.Get)
	equip.DELETE("/:id", h.Delete)
}

// RecordTestRequest is the body of POST /ships/:id/equipment.
type RecordTestRequest struct {
	EquipmentName string `json:"equipment_name" binding:"required"`
	IssuedDate    string `json:"issued_date" binding:"required"`
}

// RecordTest handles POST /ships/:id/equipment: registers a completed
// test and derives the next valid date from the scheduling rules.
func (h *EquipmentHandler) RecordTest(c *gin.Context) {
	shipID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req RecordTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam("invalid request body: "+err.Error()))
		return
	}
	issuedDate, err := parseDate("issued_date", req.IssuedDate)
	if err != nil {
		respondError(c, err)
		return
	}

	rec, err := h.equipment.RecordTest(c.Request.Context(), shipID, req.EquipmentName, issuedDate)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, rec)
}

// ListByShip handles GET /ships/:id/equipment, graded as of today.
func (h *EquipmentHandler) ListByShip(c *gin.Context) {
	shipID, ok := pathID(c, "id")
	if !ok {
		return
	}

	today := scheduling.NormalizeDate(time.Now())
	views, err := h.equipment.ListByShipWithStatus(c.Request.Context(), shipID, today, h.warningDays)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, views)
}

// List handles GET /equipment with ship_id/q filters and pagination.
func (h *EquipmentHandler) List(c *gin.Context) {
	filter := equipment.ListFilter{
		ShipID:    common.ID(c.Query("ship_id")),
		NameQuery: c.Query("q"),
	}
	page := parsePagination(c)

	records, total, err := h.equipment.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	page.Total = total
	respondPaginated(c, http.StatusOK, records, page)
}

// Get handles GET /equipment/:id.
func (h *EquipmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.equipment.GetRecord(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, rec)
}

// Delete handles DELETE /equipment/:id.
func (h *EquipmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.equipment.DeleteRecord(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// certificateSource identifies this handler in published events.
const certificateSource = "seacert-apiserver"

// EventPublisher publishes platform events after certificate mutations.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, eventType, source string, payload interface{}) error
}

// CertificateHandler serves the certificate endpoints. After every
// successful mutation it announces the change so the worker can
// recalculate the owning ship; a publish failure is logged, never
// surfaced to the caller.
type CertificateHandler struct {
	certs     *certificate.Service
	publisher EventPublisher
	logger    logging.Logger

	warningDays int
}

// NewCertificateHandler wires the certificate endpoints. publisher may
// be nil; mutations then stay local.
func NewCertificateHandler(certs *certificate.Service, publisher EventPublisher,
	warningDays int, logger logging.Logger) *CertificateHandler {
	if warningDays <= 0 {
		warningDays = scheduling.DefaultWarningDays
	}
	return &CertificateHandler{
		certs:       certs,
		publisher:   publisher,
		logger:      logger,
		warningDays: warningDays,
	}
}

// RegisterRoutes mounts the certificate routes on the API group.
func (h *CertificateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	certs := rg.Group("/certificates")
	certs.POST("", h.Create)
	certs.GET("", h.List)
	certs.GET("/:id", h.Get)
	certs.DELETE("/:id", h.Delete)
	certs.POST("/:id/endorse", h.Endorse)
	certs.POST("/:id/renew", h.Renew)
	certs.PUT("/:id/survey", h.SetNextSurvey)
	certs.GET("/:id/window", h.Window)
}

// CreateCertificateRequest is the body of POST /certificates.
type CreateCertificateRequest struct {
	ShipID           string `json:"ship_id" binding:"required"`
	Name             string `json:"name" binding:"required"`
	Category         string `json:"category"`
	IssueDate        string `json:"issue_date" binding:"required"`
	ValidDate        string `json:"valid_date"`
	SurveyAnnotation string `json:"survey_annotation"`
}

// Create handles POST /certificates.
func (h *CertificateHandler) Create(c *gin.Context) {
	var req CreateCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam("invalid request body: "+err.Error()))
		return
	}

	issueDate, err := parseDate("issue_date", req.IssueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	validDate, err := parseOptionalDate("valid_date", req.ValidDate)
	if err != nil {
		respondError(c, err)
		return
	}

	cert, err := h.certs.CreateCertificate(c.Request.Context(), common.ID(req.ShipID),
		req.Name, req.Category, issueDate, validDate, req.SurveyAnnotation)
	if err != nil {
		respondError(c, err)
		return
	}

	h.announceUpdate(c, cert)
	respond(c, http.StatusCreated, cert)
}

// List handles GET /certificates with ship_id/category/q filters.
func (h *CertificateHandler) List(c *gin.Context) {
	filter := certificate.ListFilter{
		ShipID:    common.ID(c.Query("ship_id")),
		Category:  c.Query("category"),
		NameQuery: c.Query("q"),
	}
	page := parsePagination(c)

	certs, total, err := h.certs.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	page.Total = total
	respondPaginated(c, http.StatusOK, certs, page)
}

// Get handles GET /certificates/:id, returning the certificate graded
// as of today.
func (h *CertificateHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	today := scheduling.NormalizeDate(time.Now())
	view, err := h.certs.GetWithStatus(c.Request.Context(), id, today, h.warningDays)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// Delete handles DELETE /certificates/:id.
func (h *CertificateHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.certs.DeleteCertificate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EndorseRequest is the body of POST /certificates/:id/endorse.
type EndorseRequest struct {
	Date string `json:"date" binding:"required"`
}

// Endorse handles POST /certificates/:id/endorse.
func (h *CertificateHandler) Endorse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req EndorseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam("invalid request body: "+err.Error()))
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	cert, err := h.certs.Endorse(c.Request.Context(), id, date)
	if err != nil {
		respondError(c, err)
		return
	}

	h.announceUpdate(c, cert)
	respond(c, http.StatusOK, cert)
}

// RenewRequest is the body of POST /certificates/:id/renew.
type RenewRequest struct {
	IssueDate string `json:"issue_date" binding:"required"`
	ValidDate string `json:"valid_date" binding:"required"`
}

// Renew handles POST /certificates/:id/renew.
func (h *CertificateHandler) Renew(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam("invalid request body: "+err.Error()))
		return
	}
	issueDate, err := parseDate("issue_date", req.IssueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	validDate, err := parseDate("valid_date", req.ValidDate)
	if err != nil {
		respondError(c, err)
		return
	}

	cert, err := h.certs.Renew(c.Request.Context(), id, issueDate, validDate)
	if err != nil {
		respondError(c, err)
		return
	}

	h.announceUpdate(c, cert)
	respond(c, http.StatusOK, cert)
}

// SetNextSurveyRequest is the body of PUT /certificates/:id/survey.
type SetNextSurveyRequest struct {
	Target     string `json:"target"`
	SurveyType string `json:"survey_type"`
	Annotation string `json:"annotation"`
}

// SetNextSurvey handles PUT /certificates/:id/survey, pinning or
// clearing a certificate's next survey target.
func (h *CertificateHandler) SetNextSurvey(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SetNextSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam("invalid request body: "+err.Error()))
		return
	}
	target, err := parseOptionalDate("target", req.Target)
	if err != nil {
		respondError(c, err)
		return
	}

	cert, err := h.certs.SetNextSurvey(c.Request.Context(), id, target, req.SurveyType, req.Annotation)
	if err != nil {
		respondError(c, err)
		return
	}

	h.announceUpdate(c, cert)
	respond(c, http.StatusOK, cert)
}

// WindowView is the response of GET /certificates/:id/window.
type WindowView struct {
	CertificateID common.ID                `json:"certificate_id"`
	Schedulable   bool                     `json:"schedulable"`
	Window        *scheduling.SurveyWindow `json:"window,omitempty"`
	WindowStatus  scheduling.WindowStatus  `json:"window_status,omitempty"`
}

// Window handles GET /certificates/:id/window.
func (h *CertificateHandler) Window(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	cert, err := h.certs.GetCertificate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	view := WindowView{CertificateID: cert.ID}
	if w, schedulable := cert.Window(); schedulable {
		view.Schedulable = true
		view.Window = &w
		view.WindowStatus = scheduling.ClassifyWindow(w, scheduling.NormalizeDate(time.Now()))
	}
	respond(c, http.StatusOK, view)
}

// announceUpdate publishes a certificate.updated event for the worker.
func (h *CertificateHandler) announceUpdate(c *gin.Context, cert *certificate.Certificate) {
	if h.publisher == nil {
		return
	}

	payload := kafka.CertificateUpdatedPayload{
		CertificateID:  string(cert.ID),
		ShipID:         string(cert.ShipID),
		Name:           cert.Name,
		Category:       cert.Category,
		NextSurveyDate: cert.NextSurveyDate,
		NextSurveyType: cert.NextSurveyType,
		UpdatedAt:      cert.UpdatedAt,
	}
	err := h.publisher.PublishEvent(c.Request.Context(),
		kafka.TopicCertificateUpdated, kafka.EventTypeCertificateUpdated, certificateSource, payload)
	if err != nil {
		h.logger.Error("failed to publish certificate.updated",
			logging.String("certificate_id", string(cert.ID)),
			logging.Err(err))
	}
}

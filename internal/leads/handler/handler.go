// Package handler exposes the leads module over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nexus_crm_backend/internal/leads/service"
	"nexus_crm_backend/internal/leads/transport"
	"nexus_crm_backend/platform/httpkit"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid lead ID"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc *service.Service
}

// New creates a new leads handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Capture stores an inbound lead from the public quote/contact form.
// POST /api/v1/public/leads
func (h *Handler) Capture(c *gin.Context) {
	var req transport.CaptureLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	lead, err := h.svc.Capture(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, service.ToResponse(lead))
}

// List retrieves leads with optional filters.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	leads, total, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, l := range leads {
		items = append(items, service.ToResponse(l))
	}
	httpkit.OK(c, transport.ListLeadsResponse{Items: items, Total: total})
}

// Get retrieves a single lead.
// GET /api/v1/leads/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(lead))
}

// UpdateStatus annotates a lead with a new status.
// PATCH /api/v1/leads/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	lead, err := h.svc.Annotate(c.Request.Context(), id, req.Status, req.UpdatedAt)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(lead))
}

// RecordFollowUpCall increments the follow-up call counter.
// POST /api/v1/leads/:id/follow-up-calls
func (h *Handler) RecordFollowUpCall(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	lead, err := h.svc.RecordFollowUpCall(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(lead))
}

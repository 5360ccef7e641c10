// Package handler exposes the pipeline module over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nexus_crm_backend/internal/pipeline/service"
	"nexus_crm_backend/internal/pipeline/transport"
	"nexus_crm_backend/platform/httpkit"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid opportunity ID"
)

// Handler handles HTTP requests for the pipeline.
type Handler struct {
	svc *service.Service
}

// New creates a new pipeline handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Create opens an opportunity by hand.
// POST /api/v1/opportunities
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	opp, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, service.ToResponse(opp))
}

// Promote opens an opportunity from a lead.
// POST /api/v1/leads/:id/promote
func (h *Handler) Promote(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead ID", nil)
		return
	}

	var req transport.PromoteLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	opp, err := h.svc.Promote(c.Request.Context(), leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, service.ToResponse(opp))
}

// List retrieves opportunities with filters.
// GET /api/v1/opportunities
func (h *Handler) List(c *gin.Context) {
	var req transport.ListOpportunitiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	opps, total, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.OpportunityResponse, 0, len(opps))
	for _, o := range opps {
		items = append(items, service.ToResponse(o))
	}
	httpkit.OK(c, transport.ListOpportunitiesResponse{Items: items, Total: total})
}

// Get retrieves a single opportunity.
// GET /api/v1/opportunities/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	opp, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(opp))
}

// Transition moves an opportunity to a new stage.
// POST /api/v1/opportunities/:id/transition
func (h *Handler) Transition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	opp, err := h.svc.Transition(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(opp))
}

// Update amends the details of an open opportunity.
// PUT /api/v1/opportunities/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	opp, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(opp))
}

// Stats returns the read-time pipeline snapshot.
// GET /api/v1/opportunities/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

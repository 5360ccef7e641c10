// Package handler exposes the activity ledger over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nexus_crm_backend/internal/activities/repository"
	"nexus_crm_backend/internal/activities/service"
	"nexus_crm_backend/internal/activities/transport"
	"nexus_crm_backend/platform/httpkit"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid activity ID"
)

// Handler handles HTTP requests for sales activities.
type Handler struct {
	svc *service.Service
}

// New creates a new activities handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Record appends an activity to an opportunity's ledger.
// POST /api/v1/opportunities/:id/activities
func (h *Handler) Record(c *gin.Context) {
	opportunityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid opportunity ID", nil)
		return
	}

	var req transport.RecordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	activity, err := h.svc.Record(c.Request.Context(), opportunityID, req, actor(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, service.ToResponse(activity))
}

// ListForOpportunity retrieves the ledger for one opportunity.
// GET /api/v1/opportunities/:id/activities
func (h *Handler) ListForOpportunity(c *gin.Context) {
	opportunityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid opportunity ID", nil)
		return
	}

	activities, err := h.svc.ListForOpportunity(c.Request.Context(), opportunityID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toList(activities))
}

// ListForLead retrieves ledger entries linked to one lead.
// GET /api/v1/leads/:id/activities
func (h *Handler) ListForLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead ID", nil)
		return
	}

	activities, err := h.svc.ListForLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toList(activities))
}

// Complete marks an activity done.
// POST /api/v1/activities/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	activity, err := h.svc.Complete(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(activity))
}

// Amend records a correction of an earlier entry.
// POST /api/v1/activities/:id/amend
func (h *Handler) Amend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.AmendActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	activity, err := h.svc.Amend(c.Request.Context(), id, req, actor(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, service.ToResponse(activity))
}

func actor(c *gin.Context) *uuid.UUID {
	id := httpkit.GetIdentity(c)
	if !id.IsAuthenticated() {
		return nil
	}
	userID := id.UserID()
	return &userID
}

func toList(activities []repository.Activity) transport.ListActivitiesResponse {
	items := make([]transport.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		items = append(items, service.ToResponse(a))
	}
	return transport.ListActivitiesResponse{Items: items}
}

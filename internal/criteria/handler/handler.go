// Package handler exposes the criteria registry over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nexus_crm_backend/internal/criteria/service"
	"nexus_crm_backend/internal/criteria/transport"
	"nexus_crm_backend/platform/config"
	"nexus_crm_backend/platform/httpkit"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid criterion ID"
)

// Handler handles HTTP requests for the criteria registry.
type Handler struct {
	svc *service.Service
	cfg config.SeedConfig
}

// New creates a new criteria handler.
func New(svc *service.Service, cfg config.SeedConfig) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// List retrieves all criteria, active and inactive.
// GET /api/v1/admin/criteria
func (h *Handler) List(c *gin.Context) {
	criteria, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.CriterionResponse, 0, len(criteria))
	for _, crit := range criteria {
		items = append(items, service.ToResponse(crit))
	}
	httpkit.OK(c, transport.ListCriteriaResponse{Items: items})
}

// Create registers a new scoring criterion.
// POST /api/v1/admin/criteria
func (h *Handler) Create(c *gin.Context) {
	var req transport.UpsertCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	crit, err := h.svc.Upsert(c.Request.Context(), nil, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, service.ToResponse(crit))
}

// Update replaces an existing criterion's definition.
// PUT /api/v1/admin/criteria/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpsertCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	crit, err := h.svc.Upsert(c.Request.Context(), &id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(crit))
}

// Deactivate removes a criterion from scoring without deleting it.
// POST /api/v1/admin/criteria/:id/deactivate
func (h *Handler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

// Activate re-enables a criterion.
// POST /api/v1/admin/criteria/:id/activate
func (h *Handler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	toggle := h.svc.Deactivate
	if active {
		toggle = h.svc.Activate
	}

	crit, err := toggle(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(crit))
}

// Seed inserts the default criteria set shipped with the application.
// Existing criteria are skipped by name.
// POST /api/v1/admin/criteria/seed
func (h *Handler) Seed(c *gin.Context) {
	resp, err := h.svc.SeedFromFile(c.Request.Context(), h.cfg.GetCriteriaSeedPath())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

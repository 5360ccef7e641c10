// Package handler exposes scoring operations over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nexus_crm_backend/internal/scoring/ports"
	"nexus_crm_backend/internal/scoring/repository"
	"nexus_crm_backend/internal/scoring/service"
	"nexus_crm_backend/internal/scoring/transport"
	"nexus_crm_backend/platform/httpkit"
)

const msgInvalidID = "invalid lead ID"

// Handler handles HTTP requests for scoring.
type Handler struct {
	svc       *service.Service
	scheduler ports.RescoreScheduler
}

// New creates a new scoring handler.
func New(svc *service.Service, scheduler ports.RescoreScheduler) *Handler {
	return &Handler{svc: svc, scheduler: scheduler}
}

// GetScore retrieves the latest score for a lead.
// GET /api/v1/scoring/leads/:id
func (h *Handler) GetScore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	score, err := h.svc.GetScore(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, ToResponse(score))
}

// ListByQuality retrieves scored leads of one quality tier.
// GET /api/v1/scoring/leads?quality=hot
func (h *Handler) ListByQuality(c *gin.Context) {
	var req transport.ListScoresRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	scores, total, err := h.svc.ListByQuality(c.Request.Context(), req.Quality, req.Limit, req.Offset)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.ScoreResponse, 0, len(scores))
	for _, s := range scores {
		items = append(items, ToResponse(s))
	}
	httpkit.OK(c, transport.ListScoresResponse{Items: items, Total: total})
}

// Rescore runs a synchronous scoring pass for one lead.
// POST /api/v1/admin/scoring/leads/:id/rescore
func (h *Handler) Rescore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	score, err := h.svc.Rescore(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, ToResponse(score))
}

// RescoreAll schedules a batch re-score of the whole lead base.
// POST /api/v1/admin/scoring/rescore
func (h *Handler) RescoreAll(c *gin.Context) {
	if err := h.scheduler.ScheduleBatchRescore(c.Request.Context()); httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusAccepted, transport.BatchRescoreResponse{Scheduled: true})
}

// ToResponse converts a lead score entity to its transport representation.
func ToResponse(s repository.LeadScore) transport.ScoreResponse {
	return transport.ScoreResponse{
		LeadID:          s.LeadID,
		BudgetScore:     s.BudgetScore,
		TimelineScore:   s.TimelineScore,
		EngagementScore: s.EngagementScore,
		FitScore:        s.FitScore,
		CompositeScore:  s.CompositeScore,
		Quality:         s.Quality,
		ScoredAt:        s.ScoredAt,
	}
}

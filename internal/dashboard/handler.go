package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nexus_crm_backend/platform/httpkit"
)

// Handler handles HTTP requests for the dashboard façade.
type Handler struct {
	svc *Service
}

// NewHandler creates a new dashboard handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetOverview returns the quality tier and pipeline snapshot.
// GET /api/v1/dashboard/overview
func (h *Handler) GetOverview(c *gin.Context) {
	overview, err := h.svc.Overview(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, overview)
}

// GetLeadDetail returns the cross-context view of one lead.
// GET /api/v1/dashboard/leads/:id
func (h *Handler) GetLeadDetail(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead ID", nil)
		return
	}

	detail, err := h.svc.LeadDetail(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, detail)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/groupbuy-backend/internal/http/response"
	"github.com/yungbote/groupbuy-backend/internal/platform/ctxutil"
	"github.com/yungbote/groupbuy-backend/internal/services"
)

type ParticipationHandler struct {
	participation services.ParticipationService
}

func NewParticipationHandler(participation services.ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{participation: participation}
}

// POST /api/campaigns/:id/participation
// body: { "product_quantity": 2 }   0 cancels
func (h *ParticipationHandler) Submit(c *gin.Context) {
	campaignID, ok := pathID(c, "invalid_campaign_id")
	if !ok {
		return
	}
	var req struct {
		ProductQuantity *int `json:"product_quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.participation.Submit(c.Request.Context(), ctxutil.UserID(c.Request.Context()), campaignID, *req.ProductQuantity)
	if err != nil {
		response.RespondAPIError(c, services.APIError(err))
		return
	}
	status := http.StatusAccepted
	if res.Outcome == services.OutcomeJoined {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"message":         res.Outcome.Message(),
		"outcome":         res.Outcome,
		"participation":   res.Participation,
		"campaign_closed": res.CampaignClosed,
	})
}

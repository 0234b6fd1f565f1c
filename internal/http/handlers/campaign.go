package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/groupbuy-backend/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-backend/internal/http/response"
	"github.com/yungbote/groupbuy-backend/internal/platform/ctxutil"
	"github.com/yungbote/groupbuy-backend/internal/services"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type CampaignHandler struct {
	campaigns services.CampaignService
}

func NewCampaignHandler(campaigns services.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

type campaignRequest struct {
	CategoryID            uuid.UUID       `json:"category_id" binding:"required"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	ProductName           string          `json:"product_name"`
	RequestedProductCount int             `json:"requested_product_count"`
	UnitPrice             decimal.Decimal `json:"unit_price"`
	ExternalLink          string          `json:"external_link"`
	MeetingLocation       string          `json:"meeting_location"`
	MeetingTime           time.Time       `json:"meeting_time" binding:"required"`
	OpenTime              time.Time       `json:"open_time" binding:"required"`
	CloseTime             *time.Time      `json:"close_time"`
	PersonLimit           int             `json:"person_limit"`
	EndChoice             string          `json:"end_choice"`
}

func (r campaignRequest) input() services.CampaignInput {
	return services.CampaignInput{
		CategoryID: r.CategoryID,
		Terms: groupbuy.Terms{
			Title:                 r.Title,
			Description:           r.Description,
			ProductName:           r.ProductName,
			RequestedProductCount: r.RequestedProductCount,
			UnitPrice:             r.UnitPrice,
			ExternalLink:          r.ExternalLink,
			MeetingLocation:       r.MeetingLocation,
			PersonLimit:           r.PersonLimit,
			EndChoice:             groupbuy.EndChoice(r.EndChoice),
		},
		Schedule: groupbuy.Schedule{
			OpenTime:    r.OpenTime,
			MeetingTime: r.MeetingTime,
			CloseTime:   r.CloseTime,
		},
	}
}

func pathID(c *gin.Context, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GET /api/communities/:id/campaigns
func (h *CampaignHandler) ListByCommunity(c *gin.Context) {
	communityID, ok := pathID(c, "invalid_community_id")
	if !ok {
		return
	}
	limit, offset := pageParams(c)
	views, err := h.campaigns.ListByCommunity(c.Request.Context(), communityID, limit, offset)
	if err != nil {
		response.RespondAPIError(c, services.APIError(err))
		return
	}
	response.RespondOK(c, gin.H{"campaigns": views, "limit": limit, "offset": offset})
}

// POST /api/communities/:id/campaigns
func (h *CampaignHandler) Create(c *gin.Context) {
	communityID, ok := pathID(c, "invalid_community_id")
	if !ok {
		return
	}
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	campaign, err := h.campaigns.Create(c.Request.Context(), ctxutil.UserID(c.Request.Context()), communityID, req.input())
	if err != nil {
		response.RespondAPIError(c, services.APIError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"campaign": campaign})
}

// GET /api/campaigns/:id
func (h *CampaignHandler) Detail(c *gin.Context) {
	campaignID, ok := pathID(c, "invalid_campaign_id")
	if !ok {
		return
	}
	detail, err := h.campaigns.Detail(c.Request.Context(), ctxutil.UserID(c.Request.Context()), campaignID)
	if err != nil {
		response.RespondAPIError(c, services.APIError(err))
		return
	}
	response.RespondOK(c, gin.H{"campaign": detail})
}

// PUT /api/campaigns/:id
func (h *CampaignHandler) Update(c *gin.Context) {
	campaignID, ok := pathID(c, "invalid_campaign_id")
	if !ok {
		return
	}
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	campaign, err := h.campaigns.Update(c.Request.Context(), ctxutil.UserID(c.Request.Context()), campaignID, req.input())
	if err != nil {
		response.RespondAPIError(c, services.APIError(err))
		return
	}
	response.RespondOK(c, gin.H{"campaign": campaign})
}

// DELETE /api/campaigns/:id
func (h *CampaignHandler) Delete(c *gin.Context) {
	campaignID, ok := pathID(c, "invalid_campaign_id")
	if !ok {
		return
	}
	if err := h.campaigns.Delete(c.Request.Context(), ctxutil.UserID(c.Request.Context()), campaignID); err != nil {
		response.RespondAPIError(c, services.APIError(err))
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/campaigns/:id/end
func (h *CampaignHandler) End(c *gin.Context) {
	campaignID, ok := pathID(c, "invalid_campaign_id")
	if !ok {
		return
	}
	campaign, err := h.campaigns.SelfEnd(c.Request.Context(), ctxutil.UserID(c.Request.Context()), campaignID)
	if err != nil {
		response.RespondAPIError(c, services.APIError(err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "the group purchase has been closed", "campaign": campaign})
}

package public

import (
	"github.com/cruisemall-server/internal/http/response"
	"github.com/cruisemall-server/internal/service"

	"github.com/gin-gonic/gin"
)

// LeadIntakeRequest 落地页潜客登记请求
type LeadIntakeRequest struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone"`
	Memo          string `json:"memo"`
	AgentID       uint   `json:"agent_id"`
	ManagerID     uint   `json:"manager_id"`
	AffiliateCode string `json:"affiliate_code"`
	MallUserKey   string `json:"mall_user_key"`
}

// CreateLead 落地页潜客登记，归属在登记时一次性固定。
func (h *Handler) CreateLead(c *gin.Context) {
	log := requestLog(c)
	var req LeadIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}

	lead, err := h.LeadService.CreateLead(service.LeadCreateInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Memo:          req.Memo,
		AgentID:       req.AgentID,
		ManagerID:     req.ManagerID,
		AffiliateCode: req.AffiliateCode,
		MallUserKey:   req.MallUserKey,
	})
	if err != nil {
		log.Warnw("public_lead_create_failed", "error", err)
		respondWebhookError(c, err)
		return
	}

	log.Infow("public_lead_created",
		"lead_id", lead.ID,
		"attributed", lead.AgentProfileID != nil || lead.ManagerProfileID != nil,
	)
	response.Success(c, gin.H{
		"lead_id": lead.ID,
		"status":  lead.Status,
	})
}

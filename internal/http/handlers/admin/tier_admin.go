package admin

import (
	"strings"

	"github.com/cruisemall-server/internal/http/response"
	"github.com/cruisemall-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TierRequest 佣金档位创建/更新请求
type TierRequest struct {
	CabinType              string `json:"cabin_type" binding:"required"`
	ManagerRatePercent     string `json:"manager_rate_percent" binding:"required"`
	AgentRatePercent       string `json:"agent_rate_percent" binding:"required"`
	OverrideRatePercent    string `json:"override_rate_percent" binding:"required"`
	WithholdingRatePercent string `json:"withholding_rate_percent" binding:"required"`
	IsDefault              bool   `json:"is_default"`
}

func (req TierRequest) toInput() (service.TierUpsertInput, error) {
	parse := func(raw string) (decimal.Decimal, error) {
		return decimal.NewFromString(strings.TrimSpace(raw))
	}
	manager, err := parse(req.ManagerRatePercent)
	if err != nil {
		return service.TierUpsertInput{}, err
	}
	agent, err := parse(req.AgentRatePercent)
	if err != nil {
		return service.TierUpsertInput{}, err
	}
	override, err := parse(req.OverrideRatePercent)
	if err != nil {
		return service.TierUpsertInput{}, err
	}
	withholding, err := parse(req.WithholdingRatePercent)
	if err != nil {
		return service.TierUpsertInput{}, err
	}
	return service.TierUpsertInput{
		CabinType:              req.CabinType,
		ManagerRatePercent:     manager,
		AgentRatePercent:       agent,
		OverrideRatePercent:    override,
		WithholdingRatePercent: withholding,
		IsDefault:              req.IsDefault,
	}, nil
}

// ListTiers 佣金档位列表
func (h *Handler) ListTiers(c *gin.Context) {
	tiers, err := h.TierService.ListTiers()
	if err != nil {
		respondError(c, response.CodeInternal, "档位查询失败", err)
		return
	}
	response.Success(c, tiers)
}

// CreateTier 创建佣金档位
func (h *Handler) CreateTier(c *gin.Context) {
	var req TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "比例格式非法", err)
		return
	}

	tier, err := h.TierService.CreateTier(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, tier)
}

// UpdateTier 更新佣金档位
func (h *Handler) UpdateTier(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "比例格式非法", err)
		return
	}

	tier, err := h.TierService.UpdateTier(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, tier)
}

// DeleteTier 删除佣金档位
func (h *Handler) DeleteTier(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.TierService.DeleteTier(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

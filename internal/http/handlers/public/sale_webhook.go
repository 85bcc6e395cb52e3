package public

import (
	"strings"
	"time"

	"github.com/cruisemall-server/internal/http/response"
	"github.com/cruisemall-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BookingWebhookRequest 商城预订网关回调载荷
type BookingWebhookRequest struct {
	ExternalOrderCode string  `json:"external_order_code" binding:"required"`
	ProductCode       string  `json:"product_code" binding:"required"`
	CabinType         string  `json:"cabin_type"`
	Currency          string  `json:"currency"`
	SaleAmount        string  `json:"sale_amount" binding:"required"`
	CostAmount        string  `json:"cost_amount"`
	SaleDate          *string `json:"sale_date"`
	LeadID            uint    `json:"lead_id"`
	AgentID           uint    `json:"agent_id"`
	ManagerID         uint    `json:"manager_id"`
	AffiliateCode     string  `json:"affiliate_code"`
	MallUserKey       string  `json:"mall_user_key"`
}

func (req BookingWebhookRequest) toInput() (service.RecordSaleInput, error) {
	saleAmount, err := decimal.NewFromString(strings.TrimSpace(req.SaleAmount))
	if err != nil {
		return service.RecordSaleInput{}, err
	}
	costAmount := decimal.Zero
	if strings.TrimSpace(req.CostAmount) != "" {
		costAmount, err = decimal.NewFromString(strings.TrimSpace(req.CostAmount))
		if err != nil {
			return service.RecordSaleInput{}, err
		}
	}
	var saleDate *time.Time
	if req.SaleDate != nil && strings.TrimSpace(*req.SaleDate) != "" {
		raw := strings.TrimSpace(*req.SaleDate)
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
			if err != nil {
				return service.RecordSaleInput{}, err
			}
		}
		saleDate = &parsed
	}
	return service.RecordSaleInput{
		ExternalOrderCode: req.ExternalOrderCode,
		LeadID:            req.LeadID,
		ProductCode:       req.ProductCode,
		ManagerID:         req.ManagerID,
		AgentID:           req.AgentID,
		AffiliateCode:     req.AffiliateCode,
		MallUserKey:       req.MallUserKey,
		CabinType:         req.CabinType,
		Currency:          req.Currency,
		SaleAmount:        saleAmount,
		CostAmount:        costAmount,
		SaleDate:          saleDate,
	}, nil
}

// BookingWebhook 商城预订网关成交回调。
// 新订单与重复投递均返回成功，网关只需在 5xx 时重试。
func (h *Handler) BookingWebhook(c *gin.Context) {
	log := requestLog(c)
	var req BookingWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnw("booking_webhook_payload_invalid", "error", err)
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		log.Warnw("booking_webhook_amount_invalid",
			"external_order_code", req.ExternalOrderCode,
			"error", err,
		)
		respondError(c, response.CodeBadRequest, "金额或时间格式非法", err)
		return
	}

	result, err := h.SaleService.RecordSale(c.Request.Context(), input)
	if err != nil {
		log.Warnw("booking_webhook_record_failed",
			"external_order_code", req.ExternalOrderCode,
			"error", err,
		)
		respondWebhookError(c, err)
		return
	}

	log.Infow("booking_webhook_recorded",
		"external_order_code", req.ExternalOrderCode,
		"sale_id", result.Sale.ID,
		"duplicate", result.Duplicate,
		"attribution_source", result.Sale.AttributionSource,
	)
	response.Success(c, gin.H{
		"sale_id":            result.Sale.ID,
		"duplicate":          result.Duplicate,
		"attribution_source": result.Sale.AttributionSource,
	})
}

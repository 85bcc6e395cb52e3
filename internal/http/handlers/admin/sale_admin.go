package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/cruisemall-server/internal/http/response"
	"github.com/cruisemall-server/internal/repository"
	"github.com/cruisemall-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RecordSaleRequest 管理端销售录入请求
type RecordSaleRequest struct {
	ExternalOrderCode string  `json:"external_order_code"`
	LeadID            uint    `json:"lead_id"`
	ProductCode       string  `json:"product_code" binding:"required"`
	AgentID           uint    `json:"agent_id"`
	ManagerID         uint    `json:"manager_id"`
	AffiliateCode     string  `json:"affiliate_code"`
	MallUserKey       string  `json:"mall_user_key"`
	CabinType         string  `json:"cabin_type"`
	Currency          string  `json:"currency"`
	SaleAmount        string  `json:"sale_amount" binding:"required"`
	CostAmount        string  `json:"cost_amount"`
	SaleDate          *string `json:"sale_date"`
}

func (req RecordSaleRequest) toInput() (service.RecordSaleInput, error) {
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
	if req.SaleDate != nil {
		parsed, err := parseTimeNullable(*req.SaleDate)
		if err != nil {
			return service.RecordSaleInput{}, err
		}
		saleDate = parsed
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

// RecordSale 管理端录入销售事件
func (h *Handler) RecordSale(c *gin.Context) {
	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "金额或时间格式非法", err)
		return
	}

	result, err := h.SaleService.RecordSale(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ListSales 销售列表
func (h *Handler) ListSales(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	saleDateFrom, err := parseTimeNullable(c.Query("sale_date_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数非法", err)
		return
	}
	saleDateTo, err := parseTimeNullable(c.Query("sale_date_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数非法", err)
		return
	}

	filter := repository.SaleListFilter{
		Page:              page,
		PageSize:          pageSize,
		Status:            strings.TrimSpace(c.Query("status")),
		AttributionSource: strings.TrimSpace(c.Query("attribution_source")),
		ProductCode:       strings.TrimSpace(c.Query("product_code")),
		CabinType:         strings.TrimSpace(c.Query("cabin_type")),
		ExternalOrderCode: strings.TrimSpace(c.Query("external_order_code")),
		SaleDateFrom:      saleDateFrom,
		SaleDateTo:        saleDateTo,
	}
	if raw := strings.TrimSpace(c.Query("manager_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.ManagerProfileID = uint(parsed)
		}
	}
	if raw := strings.TrimSpace(c.Query("agent_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.AgentProfileID = uint(parsed)
		}
	}

	sales, total, err := h.SaleService.ListSales(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "销售查询失败", err)
		return
	}
	response.SuccessWithPage(c, sales, buildPagination(page, pageSize, total))
}

// GetSale 销售详情（含台账条目）
func (h *Handler) GetSale(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sale, err := h.SaleService.GetSale(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, sale)
}

// UpdateSaleStatusRequest 更新销售状态请求
type UpdateSaleStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateSaleStatus 推进销售状态
func (h *Handler) UpdateSaleStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateSaleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}

	sale, err := h.SaleService.UpdateSaleStatus(id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, sale)
}

// ReverseSale 冲正销售
func (h *Handler) ReverseSale(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sale, err := h.SaleService.ReverseSale(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, sale)
}

// ListLedgerEntries 佣金台账列表
func (h *Handler) ListLedgerEntries(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数非法", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数非法", err)
		return
	}

	filter := repository.LedgerListFilter{
		Page:        page,
		PageSize:    pageSize,
		EntryType:   strings.TrimSpace(c.Query("entry_type")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}
	if raw := strings.TrimSpace(c.Query("sale_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.SaleID = uint(parsed)
		}
	}
	if raw := strings.TrimSpace(c.Query("profile_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.ProfileID = uint(parsed)
		}
	}
	if raw := strings.TrimSpace(c.Query("settled")); raw != "" {
		settled := raw == "true" || raw == "1"
		filter.Settled = &settled
	}
	if raw := strings.TrimSpace(c.Query("reversal")); raw != "" {
		reversal := raw == "true" || raw == "1"
		filter.Reversal = &reversal
	}

	entries, total, err := h.SaleService.ListLedgerEntries(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "台账查询失败", err)
		return
	}
	response.SuccessWithPage(c, entries, buildPagination(page, pageSize, total))
}

package admin

import (
	"strconv"
	"strings"

	"github.com/cruisemall-server/internal/http/response"
	"github.com/cruisemall-server/internal/repository"
	"github.com/cruisemall-server/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateLeadRequest 创建潜客请求
type CreateLeadRequest struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone"`
	Memo          string `json:"memo"`
	AgentID       uint   `json:"agent_id"`
	ManagerID     uint   `json:"manager_id"`
	AffiliateCode string `json:"affiliate_code"`
	MallUserKey   string `json:"mall_user_key"`
}

// CreateLead 创建潜客（归属在录入时一次性固定）
func (h *Handler) CreateLead(c *gin.Context) {
	var req CreateLeadRequest
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
		respondServiceError(c, err)
		return
	}
	response.Success(c, lead)
}

// ListLeads 潜客列表
func (h *Handler) ListLeads(c *gin.Context) {
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

	filter := repository.LeadListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      strings.TrimSpace(c.Query("status")),
		Phone:       strings.TrimSpace(c.Query("phone")),
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
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

	leads, total, err := h.LeadService.ListLeads(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "潜客查询失败", err)
		return
	}
	response.SuccessWithPage(c, leads, buildPagination(page, pageSize, total))
}

// GetLead 潜客详情
func (h *Handler) GetLead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lead, err := h.LeadService.GetLead(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, lead)
}

// UpdateLeadStatusRequest 更新潜客状态请求
type UpdateLeadStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateLeadStatus 推进潜客状态
func (h *Handler) UpdateLeadStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}

	lead, err := h.LeadService.UpdateLeadStatus(id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, lead)
}

package admin

import (
	"strconv"
	"strings"

	"github.com/cruisemall-server/internal/http/response"
	"github.com/cruisemall-server/internal/repository"
	"github.com/cruisemall-server/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateProfileRequest 创建推广档案请求
type CreateProfileRequest struct {
	ProfileType string `json:"profile_type" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Phone       string `json:"phone"`
}

// CreateProfile 创建推广档案
func (h *Handler) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}

	profile, err := h.ProfileService.CreateProfile(service.ProfileCreateInput{
		ProfileType: req.ProfileType,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, profile)
}

// ListProfiles 推广档案列表
func (h *Handler) ListProfiles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	profiles, total, err := h.ProfileService.ListProfiles(repository.ProfileListFilter{
		Page:        page,
		PageSize:    pageSize,
		ProfileType: strings.TrimSpace(c.Query("profile_type")),
		Status:      strings.TrimSpace(c.Query("status")),
		Code:        strings.TrimSpace(c.Query("code")),
		Keyword:     strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "档案查询失败", err)
		return
	}
	response.SuccessWithPage(c, profiles, buildPagination(page, pageSize, total))
}

// GetProfile 档案详情（含当前归属与台账汇总）
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.ProfileService.GetProfileDetail(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, detail)
}

// UpdateProfileStatusRequest 更新档案状态请求
type UpdateProfileStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateProfileStatus 启用/停用档案
func (h *Handler) UpdateProfileStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateProfileStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}

	profile, err := h.ProfileService.UpdateProfileStatus(id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, profile)
}

// AssignManagerRequest 归属调整请求
type AssignManagerRequest struct {
	ManagerProfileID uint `json:"manager_profile_id" binding:"required"`
}

// AssignAgentManager 将销售员划入分店长名下
func (h *Handler) AssignAgentManager(c *gin.Context) {
	agentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AssignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}

	relation, err := h.ProfileService.AssignAgent(agentID, req.ManagerProfileID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, relation)
}

// UnassignAgentManager 解除销售员当前归属
func (h *Handler) UnassignAgentManager(c *gin.Context) {
	agentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProfileService.UnassignAgent(agentID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListManagerAgents 分店长名下生效销售员
func (h *Handler) ListManagerAgents(c *gin.Context) {
	managerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	relations, err := h.ProfileService.ListManagerAgents(managerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, relations)
}

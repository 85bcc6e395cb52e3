package admin

import (
	"github.com/cruisemall-server/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CreateRoleRequest 创建角色请求
type CreateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// RolePolicyRequest 角色策略授予/回收请求
type RolePolicyRequest struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// SetAdminRolesRequest 管理员角色设置请求
type SetAdminRolesRequest struct {
	Roles []string `json:"roles"`
}

// ListAuthzRoles 列出全部角色
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "角色列表获取失败", err)
		return
	}
	response.Success(c, gin.H{"roles": roles})
}

// CreateAuthzRole 创建空角色
func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "角色创建失败", err)
		return
	}
	response.Success(c, gin.H{"role": role})
}

// GetAuthzRolePolicies 查看角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := c.Param("role")
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "角色策略获取失败", err)
		return
	}
	response.Success(c, gin.H{"role": role, "policies": policies})
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "策略授予失败", err)
		return
	}
	response.SuccessWithMsg(c, "策略已授予", nil)
}

// RevokeAuthzPolicy 回收角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "策略回收失败", err)
		return
	}
	response.SuccessWithMsg(c, "策略已回收", nil)
}

// GetAuthzAdminRoles 查看管理员角色
func (h *Handler) GetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "管理员角色获取失败", err)
		return
	}
	response.Success(c, gin.H{"admin_id": adminID, "roles": roles})
}

// SetAuthzAdminRoles 覆盖设置管理员角色
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetAdminRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数非法", err)
		return
	}
	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, "管理员角色设置失败", err)
		return
	}
	response.SuccessWithMsg(c, "管理员角色已更新", gin.H{"admin_id": adminID})
}

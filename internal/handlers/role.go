// internal/handlers/role.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/services"
	"github.com/javajoker/assetdesk/internal/utils"
)

type RoleHandler struct {
	roleService *services.RoleService
}

func NewRoleHandler(roleService *services.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// GET /roles
func (h *RoleHandler) GetRoles(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	roles, err := h.roleService.ListRoles(c.Request.Context(), workspaceQuery(c, caller))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, roles)
}

// POST /roles
func (h *RoleHandler) CreateRole(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), auditContext(c, caller), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, role)
}

// GET /roles/:id
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	role, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, role)
}

// PUT /roles/:id
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, role)
}

// PUT /roles/:id/permissions
func (h *RoleHandler) UpdatePermissions(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.UpdatePermissionsRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.roleService.UpdatePermissions(c.Request.Context(), auditContext(c, caller), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, role)
}

// DELETE /roles/:id
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.roleService.DeleteRole(c.Request.Context(), auditContext(c, caller), id); err != nil {
		handleServiceError(c, err)
		return
	}

	deletedResponse(c, i18n.KeyRoleDeleted)
}

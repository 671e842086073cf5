// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/services"
	"github.com/javajoker/assetdesk/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
	auditService *services.AuditService
}

func NewAdminHandler(adminService *services.AdminService, auditService *services.AuditService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		auditService: auditService,
	}
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context(), c.Query("workspace"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminUserFilter{
		PaginationParams: params,
		Role:             c.Query("role"),
		Branch:           c.Query("branch"),
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := cast.ToBoolE(raw)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "is_active"), nil)
			return
		}
		filter.IsActive = &active
	}

	users, total, err := h.adminService.GetUsers(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, params))
}

// PUT /admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), auditContext(c, caller), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// GET /audit-logs?resource_type=&resource_id=&actor_id=
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	resourceID, ok := queryID(c, "resource_id")
	if !ok {
		return
	}
	actorID, ok := queryID(c, "actor_id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	logs, total, err := h.auditService.ListAuditLogs(c.Request.Context(), services.AuditLogFilter{
		PaginationParams: params,
		ResourceType:     c.Query("resource_type"),
		ResourceID:       resourceID,
		ActorID:          actorID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}

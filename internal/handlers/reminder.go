// internal/handlers/reminder.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/services"
	"github.com/javajoker/assetdesk/internal/utils"
)

type ReminderHandler struct {
	reminderService *services.ReminderService
}

func NewReminderHandler(reminderService *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService}
}

// GET /reminders
func (h *ReminderHandler) GetReminders(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	reminders, total, err := h.reminderService.ListReminders(c.Request.Context(), caller, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(reminders, total, params))
}

// POST /reminders
func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateReminderRequest
	if !bindJSON(c, &req) {
		return
	}

	reminder, err := h.reminderService.CreateReminder(c.Request.Context(), caller, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, reminder)
}

// GET /reminders/:id
func (h *ReminderHandler) GetReminder(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	reminder, err := h.reminderService.GetReminder(c.Request.Context(), caller, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, reminder)
}

// PUT /reminders/:id
func (h *ReminderHandler) UpdateReminder(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.UpdateReminderRequest
	if !bindJSON(c, &req) {
		return
	}

	reminder, err := h.reminderService.UpdateReminder(c.Request.Context(), caller, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, reminder)
}

// DELETE /reminders/:id
func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.reminderService.DeleteReminder(c.Request.Context(), caller, id); err != nil {
		handleServiceError(c, err)
		return
	}

	deletedResponse(c, i18n.KeyReminderDeleted)
}

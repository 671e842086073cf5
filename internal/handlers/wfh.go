// internal/handlers/wfh.go
package handlers

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/gin-gonic/gin"

	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/services"
	"github.com/javajoker/assetdesk/internal/utils"
)

type WFHHandler struct {
	wfhService *services.WFHService
}

func NewWFHHandler(wfhService *services.WFHService) *WFHHandler {
	return &WFHHandler{wfhService: wfhService}
}

// GET /wfh?status=&from=&to=&user_id=
func (h *WFHHandler) GetRecords(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	records, total, err := h.wfhService.ListWFH(c.Request.Context(), caller, services.WFHFilter{
		PaginationParams: params,
		UserID:           userID,
		Status:           models.WFHStatus(c.Query("status")),
		From:             from,
		To:               to,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(records, total, params))
}

// POST /wfh
func (h *WFHHandler) CreateRecord(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateWFHRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.wfhService.CreateWFH(c.Request.Context(), caller, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, record)
}

// PUT /wfh/:id/review
func (h *WFHHandler) ReviewRecord(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.ReviewWFHRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.wfhService.ReviewWFH(c.Request.Context(), caller, id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, record)
}

// DELETE /wfh/:id
func (h *WFHHandler) DeleteRecord(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.wfhService.DeleteWFH(c.Request.Context(), caller, id); err != nil {
		handleServiceError(c, err)
		return
	}

	deletedResponse(c, i18n.KeyWFHDeleted)
}

func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return nil, false
	}
	return &t, true
}

// internal/handlers/taxonomy.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/repository"
	"github.com/javajoker/assetdesk/internal/services"
	"github.com/javajoker/assetdesk/internal/utils"
)

type TaxonomyHandler struct {
	taxonomyService *services.TaxonomyService
}

func NewTaxonomyHandler(taxonomyService *services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomyService: taxonomyService}
}

// GET /categories
func (h *TaxonomyHandler) GetCategories(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	categories, err := h.taxonomyService.ListCategories(c.Request.Context(), workspaceQuery(c, caller))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, categories)
}

// POST /categories
func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.taxonomyService.CreateCategory(c.Request.Context(), caller, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, category)
}

// GET /categories/:id
func (h *TaxonomyHandler) GetCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	category, err := h.taxonomyService.GetCategory(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, category)
}

// PUT /categories/:id
func (h *TaxonomyHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.UpdateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.taxonomyService.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, category)
}

// DELETE /categories/:id
func (h *TaxonomyHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.taxonomyService.DeleteCategory(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	deletedResponse(c, i18n.KeyCategoryDeleted)
}

// GET /asset-types
func (h *TaxonomyHandler) GetTypes(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	categoryID, ok := queryID(c, "category_id")
	if !ok {
		return
	}

	types, err := h.taxonomyService.ListTypes(c.Request.Context(), repository.TypeFilter{
		Workspace:  workspaceQuery(c, caller),
		CategoryID: categoryID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, types)
}

// POST /asset-types
func (h *TaxonomyHandler) CreateType(c *gin.Context) {
	var req services.CreateTypeRequest
	if !bindJSON(c, &req) {
		return
	}

	assetType, err := h.taxonomyService.CreateType(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, assetType)
}

// GET /asset-types/:id
func (h *TaxonomyHandler) GetType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	assetType, err := h.taxonomyService.GetType(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, assetType)
}

// PUT /asset-types/:id
func (h *TaxonomyHandler) UpdateType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.UpdateTypeRequest
	if !bindJSON(c, &req) {
		return
	}

	assetType, err := h.taxonomyService.UpdateType(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, assetType)
}

// DELETE /asset-types/:id
func (h *TaxonomyHandler) DeleteType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.taxonomyService.DeleteType(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	deletedResponse(c, i18n.KeyAssetTypeDeleted)
}

// POST /asset-types/recount
func (h *TaxonomyHandler) RecountTypes(c *gin.Context) {
	corrections, err := h.taxonomyService.RecountAssetTypes(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	logrus.WithField("corrections", len(corrections)).Info("Asset counts reconciled on request")
	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(utils.GetLangFromContext(c), i18n.KeyRecountFinished),
		"corrections": corrections,
	})
}

// workspaceQuery picks the workspace filter for list endpoints. Admins may
// pass any workspace or none; everyone else defaults to their own.
func workspaceQuery(c *gin.Context, caller services.Caller) string {
	if ws := c.Query("workspace"); ws != "" {
		return ws
	}
	if caller.IsAdmin() {
		return ""
	}
	return caller.Workspace
}

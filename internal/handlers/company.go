// internal/handlers/company.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/services"
	"github.com/javajoker/assetdesk/internal/utils"
)

type CompanyHandler struct {
	companyService *services.CompanyService
}

func NewCompanyHandler(companyService *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// GET /companies
func (h *CompanyHandler) GetCompanies(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	companies, total, err := h.companyService.ListCompanies(c.Request.Context(), workspaceQuery(c, caller), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(companies, total, params))
}

// POST /companies
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req services.CreateCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.companyService.CreateCompany(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, company)
}

// GET /companies/:id
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	company, err := h.companyService.GetCompany(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, company)
}

// PUT /companies/:id
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.UpdateCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.companyService.UpdateCompany(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, company)
}

// DELETE /companies/:id
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.companyService.DeleteCompany(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	deletedResponse(c, i18n.KeyCompanyDeleted)
}

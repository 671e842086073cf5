// internal/handlers/product.go
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/services"
	"github.com/javajoker/assetdesk/internal/utils"
)

const attachmentURLTTL = 15 * time.Minute

type ProductHandler struct {
	productService *services.ProductService
	storageService *services.StorageService
}

func NewProductHandler(productService *services.ProductService, storageService *services.StorageService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storageService: storageService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	params, ok := listParams(c)
	if !ok {
		return
	}

	products, total, err := h.productService.ListProducts(c.Request.Context(), caller, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params.PaginationParams))
}

// GET /products/mine
func (h *ProductHandler) GetMyProducts(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	params, ok := listParams(c)
	if !ok {
		return
	}

	products, total, err := h.productService.ListProductsByCreator(c.Request.Context(), caller, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params.PaginationParams))
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// GET /products/:id/attachments
func (h *ProductHandler) GetAttachmentLinks(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	links := gin.H{}
	for name, key := range map[string]string{"image": product.ImagePath, "document": product.DocumentPath} {
		if key == "" {
			continue
		}
		url, err := h.storageService.AttachmentURL(key, attachmentURLTTL)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		links[name] = url
	}

	utils.SuccessResponse(c, links)
}

// POST /products
//
// Accepts JSON or multipart/form-data; the multipart form may carry "image"
// and "document" files.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	attachments, ok := h.uploadAttachments(c)
	if !ok {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), caller, &req, attachments)
	if err != nil {
		h.storageService.DeleteQuietly(c.Request.Context(), attachments.ImagePath, attachments.DocumentPath)
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, product)
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	previous, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	attachments, ok := h.uploadAttachments(c)
	if !ok {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), caller, id, &req, attachments)
	if err != nil {
		h.storageService.DeleteQuietly(c.Request.Context(), attachments.ImagePath, attachments.DocumentPath)
		handleServiceError(c, err)
		return
	}

	// Replaced files are no longer referenced.
	var stale []string
	if attachments.ImagePath != "" && previous.ImagePath != attachments.ImagePath {
		stale = append(stale, previous.ImagePath)
	}
	if attachments.DocumentPath != "" && previous.DocumentPath != attachments.DocumentPath {
		stale = append(stale, previous.DocumentPath)
	}
	h.storageService.DeleteQuietly(c.Request.Context(), stale...)

	utils.SuccessResponse(c, product)
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	h.storageService.DeleteQuietly(c.Request.Context(), product.ImagePath, product.DocumentPath)

	deletedResponse(c, i18n.KeyProductDeleted)
}

// DELETE /products
func (h *ProductHandler) DeleteAllProducts(c *gin.Context) {
	removed, err := h.productService.DeleteAllProducts(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyProductsCleared),
		"removed": removed,
	})
}

func listParams(c *gin.Context) (services.ProductListParams, bool) {
	categoryID, ok := queryID(c, "category_id")
	if !ok {
		return services.ProductListParams{}, false
	}
	typeID, ok := queryID(c, "type_id")
	if !ok {
		return services.ProductListParams{}, false
	}

	return services.ProductListParams{
		PaginationParams: utils.GetPaginationParams(c),
		Workspace:        c.Query("workspace"),
		CategoryID:       categoryID,
		TypeID:           typeID,
	}, true
}

// uploadAttachments stores the optional image and document files of a
// multipart request. Files already stored are removed again when a later
// one fails.
func (h *ProductHandler) uploadAttachments(c *gin.Context) (services.Attachments, bool) {
	var attachments services.Attachments
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return attachments, true
	}

	files := []struct {
		field string
		kind  string
		dst   *string
	}{
		{"image", services.UploadKindProductImage, &attachments.ImagePath},
		{"document", services.UploadKindProductDocument, &attachments.DocumentPath},
	}

	ctx := c.Request.Context()
	for _, f := range files {
		header, err := c.FormFile(f.field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			h.storageService.DeleteQuietly(ctx, attachments.ImagePath, attachments.DocumentPath)
			utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, f.field), err.Error())
			return attachments, false
		}

		result, err := h.storageService.UploadFile(ctx, header, h.storageService.GetDefaultUploadOptions(f.kind))
		if err != nil {
			h.storageService.DeleteQuietly(ctx, attachments.ImagePath, attachments.DocumentPath)
			handleServiceError(c, err)
			return attachments, false
		}
		*f.dst = result.Key
	}

	return attachments, true
}

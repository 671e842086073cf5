// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/repository"
	"github.com/javajoker/assetdesk/internal/utils"
)

type ProductService struct {
	products   repository.ProductRepository
	taxonomy   repository.TaxonomyRepository
	defaultTag string
}

// Attachments carries the stored paths of files uploaded with a product
// write. Empty paths leave the current value untouched.
type Attachments struct {
	ImagePath    string
	DocumentPath string
}

type CreateProductRequest struct {
	CategoryID     string `json:"category_id" form:"category_id" validate:"required,uuid"`
	TypeID         string `json:"type_id" form:"type_id" validate:"required,uuid"`
	Name           string `json:"name" form:"name" validate:"max=255"`
	Brand          string `json:"brand" form:"brand" validate:"max=150"`
	Model          string `json:"model" form:"model" validate:"max=150"`
	Specifications string `json:"specifications" form:"specifications"`
	SerialNumber   string `json:"serial_number" form:"serial_number" validate:"max=150"`
	Tag            string `json:"tag" form:"tag" validate:"max=100"`
	Condition      string `json:"condition" form:"condition" validate:"max=50"`
	Status         string `json:"status" form:"status" validate:"max=50"`
	PurchaseDate   string `json:"purchase_date" form:"purchase_date"`
	WarrantyExpiry string `json:"warranty_expiry" form:"warranty_expiry"`
	Remarks        string `json:"remarks" form:"remarks"`
	Workspace      string `json:"workspace" form:"workspace" validate:"max=100"`
	Branch         string `json:"branch" form:"branch" validate:"max=100"`
}

// UpdateProductRequest merges only the fields that are present.
type UpdateProductRequest struct {
	CategoryID     *string `json:"category_id,omitempty" form:"category_id" validate:"omitempty,uuid"`
	TypeID         *string `json:"type_id,omitempty" form:"type_id" validate:"omitempty,uuid"`
	Name           *string `json:"name,omitempty" form:"name" validate:"omitempty,max=255"`
	Brand          *string `json:"brand,omitempty" form:"brand" validate:"omitempty,max=150"`
	Model          *string `json:"model,omitempty" form:"model" validate:"omitempty,max=150"`
	Specifications *string `json:"specifications,omitempty" form:"specifications"`
	SerialNumber   *string `json:"serial_number,omitempty" form:"serial_number" validate:"omitempty,max=150"`
	Tag            *string `json:"tag,omitempty" form:"tag" validate:"omitempty,max=100"`
	Condition      *string `json:"condition,omitempty" form:"condition" validate:"omitempty,max=50"`
	Status         *string `json:"status,omitempty" form:"status" validate:"omitempty,max=50"`
	PurchaseDate   *string `json:"purchase_date,omitempty" form:"purchase_date"`
	WarrantyExpiry *string `json:"warranty_expiry,omitempty" form:"warranty_expiry"`
	Remarks        *string `json:"remarks,omitempty" form:"remarks"`
	Workspace      *string `json:"workspace,omitempty" form:"workspace" validate:"omitempty,max=100"`
	Branch         *string `json:"branch,omitempty" form:"branch" validate:"omitempty,max=100"`
}

type ProductListParams struct {
	utils.PaginationParams
	Workspace  string
	CategoryID *uuid.UUID
	TypeID     *uuid.UUID
}

func NewProductService(products repository.ProductRepository, taxonomy repository.TaxonomyRepository, defaultTag string) *ProductService {
	if defaultTag == "" {
		defaultTag = models.DefaultProductTag
	}
	return &ProductService{
		products:   products,
		taxonomy:   taxonomy,
		defaultTag: defaultTag,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, caller Caller, req *CreateProductRequest, attachments Attachments) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	category, assetType, err := s.lookupTaxonomy(ctx, req.CategoryID, req.TypeID)
	if err != nil {
		return nil, err
	}

	purchaseDate, err := parseOptionalDate("purchase_date", req.PurchaseDate)
	if err != nil {
		return nil, err
	}
	warrantyExpiry, err := parseOptionalDate("warranty_expiry", req.WarrantyExpiry)
	if err != nil {
		return nil, err
	}

	workspace := req.Workspace
	if workspace == "" {
		workspace = caller.Workspace
	}
	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		tag = s.defaultTag
	}

	product := &models.Product{
		CategoryID:     category.ID,
		TypeID:         assetType.ID,
		CategoryName:   category.Name,
		TypeName:       assetType.Name,
		Name:           req.Name,
		Brand:          req.Brand,
		Model:          req.Model,
		Specifications: req.Specifications,
		SerialNumber:   req.SerialNumber,
		Tag:            tag,
		Condition:      req.Condition,
		Status:         req.Status,
		PurchaseDate:   purchaseDate,
		WarrantyExpiry: warrantyExpiry,
		Remarks:        req.Remarks,
		ImagePath:      attachments.ImagePath,
		DocumentPath:   attachments.DocumentPath,
		Workspace:      workspace,
		Branch:         EffectiveBranch(caller, req.Branch),
		CreatedBy:      caller.UserID,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, storeErr("create product", "product", err)
	}

	// The product is durable at this point; a failed increment leaves the
	// count one short until the next recount.
	if err := s.taxonomy.IncrementAssetCount(ctx, assetType.ID, 1); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"product_id": product.ID,
			"type_id":    assetType.ID,
		}).Error("Asset count not incremented after product create")
	}

	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get product", "product", err)
	}
	return product, nil
}

// ListProducts applies the caller's access scope: unrestricted callers see
// every branch, restricted callers only their own.
func (s *ProductService) ListProducts(ctx context.Context, caller Caller, params ProductListParams) ([]models.Product, int64, error) {
	branch, err := listScope(caller)
	if err != nil {
		return nil, 0, err
	}

	return s.list(ctx, repository.ProductFilter{
		Workspace:  params.Workspace,
		Branch:     branch,
		CategoryID: params.CategoryID,
		TypeID:     params.TypeID,
	}, params)
}

func (s *ProductService) ListProductsByCreator(ctx context.Context, caller Caller, params ProductListParams) ([]models.Product, int64, error) {
	return s.list(ctx, repository.ProductFilter{
		Workspace: params.Workspace,
		CreatedBy: &caller.UserID,
	}, params)
}

func (s *ProductService) list(ctx context.Context, filter repository.ProductFilter, params ProductListParams) ([]models.Product, int64, error) {
	filter.Search = params.Search
	if params.Limit > 0 {
		page := params.Page
		if page < 1 {
			page = 1
		}
		filter.Limit = params.Limit
		filter.Offset = (page - 1) * params.Limit
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, storeErr("list products", "product", err)
	}
	return products, total, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, caller Caller, id uuid.UUID, req *UpdateProductRequest, attachments Attachments) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get product", "product", err)
	}

	updates := make(map[string]interface{})
	setString := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	setString("name", req.Name)
	setString("brand", req.Brand)
	setString("model", req.Model)
	setString("specifications", req.Specifications)
	setString("serial_number", req.SerialNumber)
	setString("condition", req.Condition)
	setString("status", req.Status)
	setString("remarks", req.Remarks)
	setString("workspace", req.Workspace)

	if req.Tag != nil {
		tag := strings.TrimSpace(*req.Tag)
		if tag == "" {
			tag = s.defaultTag
		}
		updates["tag"] = tag
	}
	if req.Branch != nil {
		updates["branch"] = EffectiveBranch(caller, *req.Branch)
	}
	if req.PurchaseDate != nil {
		date, err := parseOptionalDate("purchase_date", *req.PurchaseDate)
		if err != nil {
			return nil, err
		}
		updates["purchase_date"] = date
	}
	if req.WarrantyExpiry != nil {
		date, err := parseOptionalDate("warranty_expiry", *req.WarrantyExpiry)
		if err != nil {
			return nil, err
		}
		updates["warranty_expiry"] = date
	}
	if attachments.ImagePath != "" {
		updates["image_path"] = attachments.ImagePath
	}
	if attachments.DocumentPath != "" {
		updates["document_path"] = attachments.DocumentPath
	}

	var movedFrom *uuid.UUID
	if req.CategoryID != nil || req.TypeID != nil {
		categoryID := product.CategoryID.String()
		if req.CategoryID != nil {
			categoryID = *req.CategoryID
		}
		typeID := product.TypeID.String()
		if req.TypeID != nil {
			typeID = *req.TypeID
		}

		category, assetType, err := s.lookupTaxonomy(ctx, categoryID, typeID)
		if err != nil {
			return nil, err
		}
		updates["category_id"] = category.ID
		updates["category_name"] = category.Name
		updates["type_id"] = assetType.ID
		updates["type_name"] = assetType.Name
		if assetType.ID != product.TypeID {
			old := product.TypeID
			movedFrom = &old
		}
	}

	if len(updates) > 0 {
		if err := s.products.Update(ctx, id, updates); err != nil {
			return nil, storeErr("update product", "product", err)
		}
	}

	if movedFrom != nil {
		s.moveAssetCount(ctx, id, *movedFrom, updates["type_id"].(uuid.UUID))
	}

	return s.GetProduct(ctx, id)
}

func (s *ProductService) moveAssetCount(ctx context.Context, productID, from, to uuid.UUID) {
	fields := logrus.Fields{"product_id": productID, "from_type_id": from, "to_type_id": to}
	if err := s.taxonomy.IncrementAssetCount(ctx, from, -1); err != nil {
		logrus.WithError(err).WithFields(fields).Error("Asset count not decremented after type change")
	}
	if err := s.taxonomy.IncrementAssetCount(ctx, to, 1); err != nil {
		logrus.WithError(err).WithFields(fields).Error("Asset count not incremented after type change")
	}
}

// DeleteProduct decrements the type's count before removing the product.
// An unknown id leaves every count untouched.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return storeErr("get product", "product", err)
	}

	err = s.taxonomy.IncrementAssetCount(ctx, product.TypeID, -1)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		logrus.WithFields(logrus.Fields{
			"product_id": id,
			"type_id":    product.TypeID,
		}).Warn("Deleting product whose asset type no longer exists")
	default:
		return storeErr("decrement asset count", "asset type", err)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return storeErr("delete product", "product", err)
	}
	return nil
}

// DeleteAllProducts wipes the inventory. Asset type counts are deliberately
// left as they are; RecountAssetTypes rebuilds them.
func (s *ProductService) DeleteAllProducts(ctx context.Context) (int64, error) {
	removed, err := s.products.DeleteAll(ctx)
	if err != nil {
		return 0, storeErr("delete all products", "product", err)
	}
	logrus.WithField("removed", removed).Warn("All products deleted")
	return removed, nil
}

// lookupTaxonomy checks that both references resolve and that the type
// belongs to the category.
func (s *ProductService) lookupTaxonomy(ctx context.Context, categoryID, typeID string) (*models.Category, *models.AssetType, error) {
	cid, err := uuid.Parse(categoryID)
	if err != nil {
		return nil, nil, newValidationError("category_id", "invalid category id")
	}
	tid, err := uuid.Parse(typeID)
	if err != nil {
		return nil, nil, newValidationError("type_id", "invalid type id")
	}

	category, err := s.taxonomy.GetCategory(ctx, cid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, newValidationError("category_id", "category does not exist")
	}
	if err != nil {
		return nil, nil, storeErr("get category", "category", err)
	}

	assetType, err := s.taxonomy.GetType(ctx, tid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, newValidationError("type_id", "asset type does not exist")
	}
	if err != nil {
		return nil, nil, storeErr("get type", "asset type", err)
	}
	if assetType.CategoryID != category.ID {
		return nil, nil, newValidationError("type_id", "asset type does not belong to category %s", category.Name)
	}

	return category, assetType, nil
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return nil, newValidationError(field, "unrecognised date %q", value)
	}
	date := models.DateOnly(t)
	return &date, nil
}

// internal/services/taxonomy_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/repository"
	"github.com/javajoker/assetdesk/internal/utils"
)

type TaxonomyService struct {
	taxonomy        repository.TaxonomyRepository
	products        repository.ProductRepository
	autoDescription string
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description"`
	Workspace   string `json:"workspace" validate:"max=100"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Description *string `json:"description,omitempty"`
}

type CreateTypeRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id" validate:"required,uuid"`
}

type UpdateTypeRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Description *string `json:"description,omitempty"`
}

// CountCorrection records one asset type whose cached count was rewritten.
type CountCorrection struct {
	TypeID   uuid.UUID `json:"type_id"`
	TypeName string    `json:"type_name"`
	Previous int64     `json:"previous"`
	Actual   int64     `json:"actual"`
}

func NewTaxonomyService(taxonomy repository.TaxonomyRepository, products repository.ProductRepository, autoDescription string) *TaxonomyService {
	return &TaxonomyService{
		taxonomy:        taxonomy,
		products:        products,
		autoDescription: autoDescription,
	}
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, caller Caller, req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newValidationError("name", "category name is required")
	}
	workspace := req.Workspace
	if workspace == "" {
		workspace = caller.Workspace
	}

	existing, err := s.taxonomy.FindCategoryByName(ctx, workspace, name)
	if err == nil {
		return nil, fmt.Errorf("category %q %w", existing.Name, ErrConflict)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr("find category", "category", err)
	}

	category := &models.Category{
		Name:        name,
		Description: req.Description,
		Workspace:   workspace,
	}
	if err := s.taxonomy.CreateCategory(ctx, category); err != nil {
		return nil, storeErr("create category", "category", err)
	}
	return category, nil
}

func (s *TaxonomyService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.taxonomy.GetCategory(ctx, id)
	if err != nil {
		return nil, storeErr("get category", "category", err)
	}
	return category, nil
}

func (s *TaxonomyService) ListCategories(ctx context.Context, workspace string) ([]models.Category, error) {
	categories, err := s.taxonomy.ListCategories(ctx, workspace)
	if err != nil {
		return nil, storeErr("list categories", "category", err)
	}
	return categories, nil
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, id uuid.UUID, req *UpdateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	category, err := s.taxonomy.GetCategory(ctx, id)
	if err != nil {
		return nil, storeErr("get category", "category", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, newValidationError("name", "category name is required")
		}
		if !strings.EqualFold(name, category.Name) {
			if _, err := s.taxonomy.FindCategoryByName(ctx, category.Workspace, name); err == nil {
				return nil, fmt.Errorf("category %q %w", name, ErrConflict)
			}
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := s.taxonomy.UpdateCategory(ctx, id, updates); err != nil {
			return nil, storeErr("update category", "category", err)
		}
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory refuses to orphan asset types.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.taxonomy.GetCategory(ctx, id); err != nil {
		return storeErr("get category", "category", err)
	}

	count, err := s.taxonomy.CountTypes(ctx, id)
	if err != nil {
		return storeErr("count types", "category", err)
	}
	if count > 0 {
		return newValidationError("id", "category still has %d asset types", count)
	}

	return storeErr("delete category", "category", s.taxonomy.DeleteCategory(ctx, id))
}

func (s *TaxonomyService) CreateType(ctx context.Context, req *CreateTypeRequest) (*models.AssetType, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newValidationError("name", "type name is required")
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, newValidationError("category_id", "invalid category id")
	}
	category, err := s.taxonomy.GetCategory(ctx, categoryID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newValidationError("category_id", "category does not exist")
	}
	if err != nil {
		return nil, storeErr("get category", "category", err)
	}

	existing, err := s.taxonomy.FindTypeByName(ctx, category.ID, name)
	if err == nil {
		return nil, fmt.Errorf("type %q in %s %w", existing.Name, category.Name, ErrConflict)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr("find type", "asset type", err)
	}

	assetType := &models.AssetType{
		Name:        name,
		Description: req.Description,
		CategoryID:  category.ID,
		Workspace:   category.Workspace,
	}
	if err := s.taxonomy.CreateType(ctx, assetType); err != nil {
		return nil, storeErr("create type", "asset type", err)
	}
	return assetType, nil
}

func (s *TaxonomyService) GetType(ctx context.Context, id uuid.UUID) (*models.AssetType, error) {
	assetType, err := s.taxonomy.GetType(ctx, id)
	if err != nil {
		return nil, storeErr("get type", "asset type", err)
	}
	return assetType, nil
}

func (s *TaxonomyService) ListTypes(ctx context.Context, filter repository.TypeFilter) ([]models.AssetType, error) {
	types, err := s.taxonomy.ListTypes(ctx, filter)
	if err != nil {
		return nil, storeErr("list types", "asset type", err)
	}
	return types, nil
}

func (s *TaxonomyService) UpdateType(ctx context.Context, id uuid.UUID, req *UpdateTypeRequest) (*models.AssetType, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	assetType, err := s.taxonomy.GetType(ctx, id)
	if err != nil {
		return nil, storeErr("get type", "asset type", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, newValidationError("name", "type name is required")
		}
		if !strings.EqualFold(name, assetType.Name) {
			if _, err := s.taxonomy.FindTypeByName(ctx, assetType.CategoryID, name); err == nil {
				return nil, fmt.Errorf("type %q %w", name, ErrConflict)
			}
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := s.taxonomy.UpdateType(ctx, id, updates); err != nil {
			return nil, storeErr("update type", "asset type", err)
		}
	}
	return s.GetType(ctx, id)
}

// DeleteType refuses while live products still reference the type. The
// product table is asked directly since the cached count may have drifted.
func (s *TaxonomyService) DeleteType(ctx context.Context, id uuid.UUID) error {
	if _, err := s.taxonomy.GetType(ctx, id); err != nil {
		return storeErr("get type", "asset type", err)
	}

	_, total, err := s.products.List(ctx, repository.ProductFilter{TypeID: &id, Limit: 1})
	if err != nil {
		return storeErr("count products", "asset type", err)
	}
	if total > 0 {
		return newValidationError("id", "asset type is still used by %d products", total)
	}

	return storeErr("delete type", "asset type", s.taxonomy.DeleteType(ctx, id))
}

// ResolveCache memoizes name lookups for the duration of one import job.
// Keys are lower-cased so "Laptops" and "laptops" share an entry.
type ResolveCache struct {
	categories map[string]*models.Category
	types      map[string]*models.AssetType
}

func NewResolveCache() *ResolveCache {
	return &ResolveCache{
		categories: make(map[string]*models.Category),
		types:      make(map[string]*models.AssetType),
	}
}

// Resolve returns the category/type pair named by an import row, creating
// whichever is missing. Created entities are not rolled back if the caller
// later fails to create its product.
func (s *TaxonomyService) Resolve(ctx context.Context, workspace, categoryName, typeName string, cache *ResolveCache) (*models.Category, *models.AssetType, error) {
	categoryName = strings.TrimSpace(categoryName)
	typeName = strings.TrimSpace(typeName)
	if categoryName == "" {
		return nil, nil, newValidationError("category", "category name is required")
	}
	if typeName == "" {
		return nil, nil, newValidationError("type", "type name is required")
	}
	if cache == nil {
		cache = NewResolveCache()
	}

	category, err := s.resolveCategory(ctx, workspace, categoryName, cache)
	if err != nil {
		return nil, nil, err
	}

	assetType, err := s.resolveType(ctx, category, typeName, cache)
	if err != nil {
		return nil, nil, err
	}
	return category, assetType, nil
}

func (s *TaxonomyService) resolveCategory(ctx context.Context, workspace, name string, cache *ResolveCache) (*models.Category, error) {
	key := workspace + "\x00" + strings.ToLower(name)
	if category, ok := cache.categories[key]; ok {
		return category, nil
	}

	category, err := s.taxonomy.FindCategoryByName(ctx, workspace, name)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		category = &models.Category{
			Name:        name,
			Description: s.autoDescription,
			Workspace:   workspace,
		}
		if err := s.taxonomy.CreateCategory(ctx, category); err != nil {
			return nil, storeErr("create category", "category", err)
		}
		logrus.WithFields(logrus.Fields{
			"category_id": category.ID,
			"name":        name,
			"workspace":   workspace,
		}).Info("Category auto-created by import")
	default:
		return nil, storeErr("find category", "category", err)
	}

	cache.categories[key] = category
	return category, nil
}

func (s *TaxonomyService) resolveType(ctx context.Context, category *models.Category, name string, cache *ResolveCache) (*models.AssetType, error) {
	key := category.ID.String() + "\x00" + strings.ToLower(name)
	if assetType, ok := cache.types[key]; ok {
		return assetType, nil
	}

	assetType, err := s.taxonomy.FindTypeByName(ctx, category.ID, name)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		assetType = &models.AssetType{
			Name:        name,
			Description: s.autoDescription,
			CategoryID:  category.ID,
			Workspace:   category.Workspace,
		}
		if err := s.taxonomy.CreateType(ctx, assetType); err != nil {
			return nil, storeErr("create type", "asset type", err)
		}
		logrus.WithFields(logrus.Fields{
			"type_id":     assetType.ID,
			"category_id": category.ID,
			"name":        name,
		}).Info("Asset type auto-created by import")
	default:
		return nil, storeErr("find type", "asset type", err)
	}

	cache.types[key] = assetType
	return assetType, nil
}

// RecountAssetTypes rebuilds every cached asset count from the live product
// rows and returns the types that had drifted.
func (s *TaxonomyService) RecountAssetTypes(ctx context.Context) ([]CountCorrection, error) {
	types, err := s.taxonomy.ListTypes(ctx, repository.TypeFilter{})
	if err != nil {
		return nil, storeErr("list types", "asset type", err)
	}

	counts, err := s.products.CountByType(ctx)
	if err != nil {
		return nil, storeErr("count products", "product", err)
	}

	var corrections []CountCorrection
	for _, t := range types {
		actual := counts[t.ID]
		if t.AssetCount == actual {
			continue
		}
		if err := s.taxonomy.SetAssetCount(ctx, t.ID, actual); err != nil {
			return corrections, storeErr("set asset count", "asset type", err)
		}
		corrections = append(corrections, CountCorrection{
			TypeID:   t.ID,
			TypeName: t.Name,
			Previous: t.AssetCount,
			Actual:   actual,
		})
	}

	if len(corrections) > 0 {
		logrus.WithField("corrected", len(corrections)).Warn("Asset type counts had drifted and were rebuilt")
	}
	return corrections, nil
}

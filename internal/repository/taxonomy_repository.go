// internal/repository/taxonomy_repository.go
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/assetdesk/internal/models"
)

type GormTaxonomyRepository struct {
	db *gorm.DB
}

var _ TaxonomyRepository = (*GormTaxonomyRepository)(nil)

func NewTaxonomyRepository(db *gorm.DB) *GormTaxonomyRepository {
	return &GormTaxonomyRepository{db: db}
}

func (r *GormTaxonomyRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	return translate(r.db.WithContext(ctx).Create(category).Error)
}

func (r *GormTaxonomyRepository) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

// FindCategoryByName matches case-insensitively; the oldest row wins when
// duplicates exist.
func (r *GormTaxonomyRepository) FindCategoryByName(ctx context.Context, workspace, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("workspace = ? AND LOWER(name) = ?", workspace, strings.ToLower(name)).
		Order("created_at ASC").
		First(&category).Error
	if err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *GormTaxonomyRepository) ListCategories(ctx context.Context, workspace string) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{})
	if workspace != "" {
		query = query.Where("workspace = ?", workspace)
	}

	var categories []models.Category
	if err := query.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *GormTaxonomyRepository) UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormTaxonomyRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormTaxonomyRepository) CreateType(ctx context.Context, assetType *models.AssetType) error {
	return translate(r.db.WithContext(ctx).Create(assetType).Error)
}

func (r *GormTaxonomyRepository) GetType(ctx context.Context, id uuid.UUID) (*models.AssetType, error) {
	var assetType models.AssetType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&assetType).Error; err != nil {
		return nil, translate(err)
	}
	return &assetType, nil
}

func (r *GormTaxonomyRepository) FindTypeByName(ctx context.Context, categoryID uuid.UUID, name string) (*models.AssetType, error) {
	var assetType models.AssetType
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND LOWER(name) = ?", categoryID, strings.ToLower(name)).
		Order("created_at ASC").
		First(&assetType).Error
	if err != nil {
		return nil, translate(err)
	}
	return &assetType, nil
}

func (r *GormTaxonomyRepository) ListTypes(ctx context.Context, filter TypeFilter) ([]models.AssetType, error) {
	query := r.db.WithContext(ctx).Model(&models.AssetType{})
	if filter.Workspace != "" {
		query = query.Where("workspace = ?", filter.Workspace)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	var types []models.AssetType
	if err := query.Order("name ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *GormTaxonomyRepository) UpdateType(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.AssetType{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormTaxonomyRepository) DeleteType(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AssetType{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormTaxonomyRepository) CountTypes(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AssetType{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

func (r *GormTaxonomyRepository) IncrementAssetCount(ctx context.Context, typeID uuid.UUID, delta int64) error {
	result := r.db.WithContext(ctx).Model(&models.AssetType{}).
		Where("id = ?", typeID).
		UpdateColumn("asset_count", gorm.Expr("GREATEST(asset_count + ?, 0)", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormTaxonomyRepository) SetAssetCount(ctx context.Context, typeID uuid.UUID, count int64) error {
	result := r.db.WithContext(ctx).Model(&models.AssetType{}).
		Where("id = ?", typeID).
		UpdateColumn("asset_count", count)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// translate maps gorm sentinel errors onto the repository ones.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

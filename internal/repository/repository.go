// internal/repository/repository.go

// Package repository wraps the gorm/postgres document store behind narrow
// interfaces so the inventory services can be exercised against fakes.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/javajoker/assetdesk/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing one")
)

// TypeFilter narrows ListTypes. Zero values mean "no filter".
type TypeFilter struct {
	Workspace  string
	CategoryID *uuid.UUID
}

// ProductFilter narrows List. Zero values mean "no filter".
type ProductFilter struct {
	Workspace  string
	Branch     string
	CreatedBy  *uuid.UUID
	CategoryID *uuid.UUID
	TypeID     *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}

type TaxonomyRepository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindCategoryByName(ctx context.Context, workspace, name string) (*models.Category, error)
	ListCategories(ctx context.Context, workspace string) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateType(ctx context.Context, assetType *models.AssetType) error
	GetType(ctx context.Context, id uuid.UUID) (*models.AssetType, error)
	FindTypeByName(ctx context.Context, categoryID uuid.UUID, name string) (*models.AssetType, error)
	ListTypes(ctx context.Context, filter TypeFilter) ([]models.AssetType, error)
	UpdateType(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteType(ctx context.Context, id uuid.UUID) error
	CountTypes(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// IncrementAssetCount adds delta to the cached count in one statement,
	// never letting it drop below zero.
	IncrementAssetCount(ctx context.Context, typeID uuid.UUID, delta int64) error
	SetAssetCount(ctx context.Context, typeID uuid.UUID, count int64) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
	// CountByType returns the number of live products per type id.
	CountByType(ctx context.Context) (map[uuid.UUID]int64, error)
}

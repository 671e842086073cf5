// internal/services/taxonomy_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/repository"
)

const autoDescription = "Auto-created by spreadsheet import"

func newTaxonomyFixture() (*TaxonomyService, *memTaxonomy, *memProducts) {
	tax := newMemTaxonomy()
	products := newMemProducts()
	return NewTaxonomyService(tax, products, autoDescription), tax, products
}

func TestResolveCreatesMissingEntries(t *testing.T) {
	svc, tax, _ := newTaxonomyFixture()
	ctx := context.Background()

	category, assetType, err := svc.Resolve(ctx, "acme", " Laptops ", "ThinkPad", nil)
	require.NoError(t, err)
	assert.Equal(t, "Laptops", category.Name)
	assert.Equal(t, autoDescription, category.Description)
	assert.Equal(t, category.ID, assetType.CategoryID)
	assert.Equal(t, autoDescription, assetType.Description)
	assert.Equal(t, "acme", assetType.Workspace)
	assert.Len(t, tax.categories, 1)
	assert.Len(t, tax.types, 1)
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	svc, tax, _ := newTaxonomyFixture()
	ctx := context.Background()

	first, firstType, err := svc.Resolve(ctx, "acme", "Laptops", "ThinkPad", nil)
	require.NoError(t, err)

	// Fresh cache so the lookup goes to the store.
	second, secondType, err := svc.Resolve(ctx, "acme", "laptops", "THINKPAD", NewResolveCache())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, firstType.ID, secondType.ID)
	assert.Len(t, tax.categories, 1)
	assert.Len(t, tax.types, 1)
}

func TestResolveScopesTypesToCategory(t *testing.T) {
	svc, tax, _ := newTaxonomyFixture()
	ctx := context.Background()

	_, laptopPro, err := svc.Resolve(ctx, "acme", "Laptops", "Pro", nil)
	require.NoError(t, err)
	_, phonePro, err := svc.Resolve(ctx, "acme", "Phones", "Pro", nil)
	require.NoError(t, err)

	assert.NotEqual(t, laptopPro.ID, phonePro.ID)
	assert.Len(t, tax.types, 2)
}

func TestResolveSeparatesWorkspaces(t *testing.T) {
	svc, tax, _ := newTaxonomyFixture()
	ctx := context.Background()

	a, _, err := svc.Resolve(ctx, "acme", "Laptops", "ThinkPad", nil)
	require.NoError(t, err)
	b, _, err := svc.Resolve(ctx, "globex", "Laptops", "ThinkPad", nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, tax.categories, 2)
}

func TestResolveRejectsBlankNames(t *testing.T) {
	svc, tax, _ := newTaxonomyFixture()

	_, _, err := svc.Resolve(context.Background(), "acme", "  ", "ThinkPad", nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Field)

	_, _, err = svc.Resolve(context.Background(), "acme", "Laptops", "", nil)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)

	assert.Empty(t, tax.categories)
}

func TestCreateCategoryRejectsDuplicateName(t *testing.T) {
	svc, _, _ := newTaxonomyFixture()
	ctx := context.Background()
	caller := Caller{UserID: uuid.New(), Scope: models.AccessScopeUnrestricted, Workspace: "acme"}

	_, err := svc.CreateCategory(ctx, caller, &CreateCategoryRequest{Name: "Laptops"})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, caller, &CreateCategoryRequest{Name: "LAPTOPS"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateTypeRequiresCategory(t *testing.T) {
	svc, _, _ := newTaxonomyFixture()

	_, err := svc.CreateType(context.Background(), &CreateTypeRequest{
		Name:       "ThinkPad",
		CategoryID: uuid.NewString(),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category_id", verr.Field)
}

func TestDeleteCategoryWithTypes(t *testing.T) {
	svc, _, _ := newTaxonomyFixture()
	ctx := context.Background()

	category, _, err := svc.Resolve(ctx, "acme", "Laptops", "ThinkPad", nil)
	require.NoError(t, err)

	var verr *ValidationError
	assert.ErrorAs(t, svc.DeleteCategory(ctx, category.ID), &verr)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, uuid.New()), ErrNotFound)
}

func TestDeleteTypeInUse(t *testing.T) {
	svc, _, products := newTaxonomyFixture()
	ctx := context.Background()

	category, assetType, err := svc.Resolve(ctx, "acme", "Laptops", "ThinkPad", nil)
	require.NoError(t, err)
	require.NoError(t, products.Create(ctx, &models.Product{CategoryID: category.ID, TypeID: assetType.ID}))

	var verr *ValidationError
	assert.ErrorAs(t, svc.DeleteType(ctx, assetType.ID), &verr)

	_, err = products.DeleteAll(ctx)
	require.NoError(t, err)
	assert.NoError(t, svc.DeleteType(ctx, assetType.ID))
}

func TestRecountAssetTypes(t *testing.T) {
	svc, tax, products := newTaxonomyFixture()
	ctx := context.Background()

	category, laptops, err := svc.Resolve(ctx, "acme", "Computers", "Laptops", nil)
	require.NoError(t, err)
	_, desktops, err := svc.Resolve(ctx, "acme", "Computers", "Desktops", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, products.Create(ctx, &models.Product{CategoryID: category.ID, TypeID: laptops.ID}))
	}
	require.NoError(t, tax.SetAssetCount(ctx, laptops.ID, 1))
	require.NoError(t, tax.SetAssetCount(ctx, desktops.ID, 5))

	corrections, err := svc.RecountAssetTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, corrections, 2)
	assert.EqualValues(t, 3, tax.count(laptops.ID))
	assert.EqualValues(t, 0, tax.count(desktops.ID))

	corrections, err = svc.RecountAssetTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, corrections)
}

func TestListTypesByCategory(t *testing.T) {
	svc, _, _ := newTaxonomyFixture()
	ctx := context.Background()

	computers, _, err := svc.Resolve(ctx, "acme", "Computers", "Laptops", nil)
	require.NoError(t, err)
	_, _, err = svc.Resolve(ctx, "acme", "Phones", "Android", nil)
	require.NoError(t, err)

	types, err := svc.ListTypes(ctx, repository.TypeFilter{CategoryID: &computers.ID})
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Laptops", types[0].Name)
}

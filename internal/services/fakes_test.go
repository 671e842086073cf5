// internal/services/fakes_test.go
package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/repository"
)

// memTaxonomy is an in-memory TaxonomyRepository.
type memTaxonomy struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*models.Category
	types      map[uuid.UUID]*models.AssetType
	seq        int

	failIncrement error
	increments    int
}

var _ repository.TaxonomyRepository = (*memTaxonomy)(nil)

func newMemTaxonomy() *memTaxonomy {
	return &memTaxonomy{
		categories: make(map[uuid.UUID]*models.Category),
		types:      make(map[uuid.UUID]*models.AssetType),
	}
}

func (m *memTaxonomy) stamp(b *models.BaseModel) {
	m.seq++
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Unix(int64(m.seq), 0)
	b.UpdatedAt = b.CreatedAt
}

func (m *memTaxonomy) CreateCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamp(&c.BaseModel)
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *memTaxonomy) GetCategory(_ context.Context, id uuid.UUID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memTaxonomy) FindCategoryByName(_ context.Context, workspace, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.Category
	for _, c := range m.categories {
		if c.Workspace != workspace || !strings.EqualFold(c.Name, name) {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) {
			found = c
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *memTaxonomy) ListCategories(_ context.Context, workspace string) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Category
	for _, c := range m.categories {
		if workspace == "" || c.Workspace == workspace {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memTaxonomy) UpdateCategory(_ context.Context, id uuid.UUID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := updates["description"]; ok {
		c.Description = v.(string)
	}
	return nil
}

func (m *memTaxonomy) DeleteCategory(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memTaxonomy) CreateType(_ context.Context, t *models.AssetType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamp(&t.BaseModel)
	cp := *t
	m.types[t.ID] = &cp
	return nil
}

func (m *memTaxonomy) GetType(_ context.Context, id uuid.UUID) (*models.AssetType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.types[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTaxonomy) FindTypeByName(_ context.Context, categoryID uuid.UUID, name string) (*models.AssetType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.AssetType
	for _, t := range m.types {
		if t.CategoryID != categoryID || !strings.EqualFold(t.Name, name) {
			continue
		}
		if found == nil || t.CreatedAt.Before(found.CreatedAt) {
			found = t
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *memTaxonomy) ListTypes(_ context.Context, filter repository.TypeFilter) ([]models.AssetType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AssetType
	for _, t := range m.types {
		if filter.Workspace != "" && t.Workspace != filter.Workspace {
			continue
		}
		if filter.CategoryID != nil && t.CategoryID != *filter.CategoryID {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memTaxonomy) UpdateType(_ context.Context, id uuid.UUID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.types[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		t.Name = v.(string)
	}
	if v, ok := updates["description"]; ok {
		t.Description = v.(string)
	}
	return nil
}

func (m *memTaxonomy) DeleteType(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.types[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.types, id)
	return nil
}

func (m *memTaxonomy) CountTypes(_ context.Context, categoryID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.types {
		if t.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (m *memTaxonomy) IncrementAssetCount(_ context.Context, typeID uuid.UUID, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIncrement != nil {
		return m.failIncrement
	}
	t, ok := m.types[typeID]
	if !ok {
		return repository.ErrNotFound
	}
	m.increments++
	t.AssetCount += delta
	if t.AssetCount < 0 {
		t.AssetCount = 0
	}
	return nil
}

func (m *memTaxonomy) SetAssetCount(_ context.Context, typeID uuid.UUID, count int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.types[typeID]
	if !ok {
		return repository.ErrNotFound
	}
	t.AssetCount = count
	return nil
}

func (m *memTaxonomy) count(typeID uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.types[typeID].AssetCount
}

func (m *memTaxonomy) snapshot() map[uuid.UUID]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]int64, len(m.types))
	for id, t := range m.types {
		out[id] = t.AssetCount
	}
	return out
}

// memProducts is an in-memory ProductRepository.
type memProducts struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
	order    []uuid.UUID

	failCreate func(p *models.Product) error
}

var _ repository.ProductRepository = (*memProducts)(nil)

func newMemProducts() *memProducts {
	return &memProducts{products: make(map[uuid.UUID]*models.Product)}
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		if err := m.failCreate(p); err != nil {
			return err
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	cp := *p
	m.products[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) List(_ context.Context, f repository.ProductFilter) ([]models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, id := range m.order {
		p, ok := m.products[id]
		if !ok {
			continue
		}
		switch {
		case f.Workspace != "" && p.Workspace != f.Workspace,
			f.Branch != "" && p.Branch != f.Branch,
			f.CreatedBy != nil && p.CreatedBy != *f.CreatedBy,
			f.CategoryID != nil && p.CategoryID != *f.CategoryID,
			f.TypeID != nil && p.TypeID != *f.TypeID,
			f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)):
			continue
		}
		out = append(out, *p)
	}
	total := int64(len(out))
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return nil, total, nil
		}
		end := f.Offset + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[f.Offset:end]
	}
	return out, total, nil
}

func (m *memProducts) Update(_ context.Context, id uuid.UUID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	for column, v := range updates {
		switch column {
		case "name":
			p.Name = v.(string)
		case "brand":
			p.Brand = v.(string)
		case "tag":
			p.Tag = v.(string)
		case "branch":
			p.Branch = v.(string)
		case "image_path":
			p.ImagePath = v.(string)
		case "document_path":
			p.DocumentPath = v.(string)
		case "category_id":
			p.CategoryID = v.(uuid.UUID)
		case "category_name":
			p.CategoryName = v.(string)
		case "type_id":
			p.TypeID = v.(uuid.UUID)
		case "type_name":
			p.TypeName = v.(string)
		case "purchase_date":
			p.PurchaseDate = v.(*time.Time)
		}
	}
	return nil
}

func (m *memProducts) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memProducts) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.products))
	m.products = make(map[uuid.UUID]*models.Product)
	m.order = nil
	return n, nil
}

func (m *memProducts) CountByType(_ context.Context) (map[uuid.UUID]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]int64)
	for _, p := range m.products {
		out[p.TypeID]++
	}
	return out, nil
}

var errStoreDown = errors.New("connection refused")

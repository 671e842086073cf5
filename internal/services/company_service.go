// internal/services/company_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/utils"
)

type CompanyService struct {
	db *gorm.DB
}

type CreateCompanyRequest struct {
	Name         string   `json:"name" validate:"required,max=255"`
	Domain       string   `json:"domain" validate:"required,fqdn"`
	Workspace    string   `json:"workspace" validate:"omitempty,slug"`
	Address      string   `json:"address"`
	ContactEmail string   `json:"contact_email" validate:"omitempty,email"`
	Branches     []string `json:"branches"`
}

type UpdateCompanyRequest struct {
	Name         *string  `json:"name" validate:"omitempty,max=255"`
	Domain       *string  `json:"domain" validate:"omitempty,fqdn"`
	Address      *string  `json:"address"`
	ContactEmail *string  `json:"contact_email" validate:"omitempty,email"`
	Branches     []string `json:"branches"`
	IsActive     *bool    `json:"is_active"`
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

func (s *CompanyService) CreateCompany(ctx context.Context, req *CreateCompanyRequest) (*models.Company, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	company := &models.Company{
		Name:         strings.TrimSpace(req.Name),
		Domain:       strings.ToLower(strings.TrimSpace(req.Domain)),
		Workspace:    req.Workspace,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
		Branches:     pq.StringArray(cleanBranches(req.Branches)),
		IsActive:     true,
	}

	if err := s.db.WithContext(ctx).Create(company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("company domain %q %w", company.Domain, ErrConflict)
		}
		return nil, &StoreError{Op: "create company", Err: err}
	}

	logrus.WithFields(logrus.Fields{"company_id": company.ID, "domain": company.Domain}).Info("Company created")
	return company, nil
}

func (s *CompanyService) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := s.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("company")
		}
		return nil, &StoreError{Op: "get company", Err: err}
	}
	return &company, nil
}

func (s *CompanyService) ListCompanies(ctx context.Context, workspace string, params utils.PaginationParams) ([]models.Company, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Company{})
	if workspace != "" {
		query = query.Where("workspace = ?", workspace)
	}
	if params.Search != "" {
		term := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(domain) LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &StoreError{Op: "count companies", Err: err}
	}

	var companies []models.Company
	if params.Limit > 0 {
		query = utils.ApplyPagination(query, params)
	}
	if params.Order == "" {
		params.Order = "asc"
	}
	query = utils.ApplySort(query, params, []string{"name", "domain", "created_at"})
	if err := query.Find(&companies).Error; err != nil {
		return nil, 0, &StoreError{Op: "list companies", Err: err}
	}

	return companies, total, nil
}

func (s *CompanyService) UpdateCompany(ctx context.Context, id uuid.UUID, req *UpdateCompanyRequest) (*models.Company, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	company, err := s.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		company.Name = strings.TrimSpace(*req.Name)
	}
	if req.Domain != nil {
		company.Domain = strings.ToLower(strings.TrimSpace(*req.Domain))
	}
	if req.Address != nil {
		company.Address = *req.Address
	}
	if req.ContactEmail != nil {
		company.ContactEmail = *req.ContactEmail
	}
	if req.Branches != nil {
		company.Branches = pq.StringArray(cleanBranches(req.Branches))
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("company domain %q %w", company.Domain, ErrConflict)
		}
		return nil, &StoreError{Op: "update company", Err: err}
	}

	return company, nil
}

func (s *CompanyService) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Company{}, "id = ?", id)
	if result.Error != nil {
		return &StoreError{Op: "delete company", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return notFound("company")
	}
	return nil
}

func cleanBranches(branches []string) []string {
	out := make([]string, 0, len(branches))
	seen := make(map[string]struct{}, len(branches))
	for _, b := range branches {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out
}

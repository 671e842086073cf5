// internal/services/admin_service.go
package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/utils"
)

type AdminService struct {
	db    *gorm.DB
	audit *AuditService
}

type AdminDashboardStats struct {
	TotalProducts        int64            `json:"total_products"`
	NewProductsThisMonth int64            `json:"new_products_this_month"`
	ProductGrowth        float64          `json:"product_growth"`
	TotalCategories      int64            `json:"total_categories"`
	TotalTypes           int64            `json:"total_types"`
	ProductsByBranch     map[string]int64 `json:"products_by_branch"`
	TotalUsers           int64            `json:"total_users"`
	ActiveUsers          int64            `json:"active_users"`
	PendingWFH           int64            `json:"pending_wfh"`
	DueReminders         int64            `json:"due_reminders"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	Role     string
	Branch   string
	IsActive *bool
}

type UpdateUserRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=150"`
	Role      *string `json:"role" validate:"omitempty,max=50"`
	Branch    *string `json:"branch" validate:"omitempty,slug"`
	Workspace *string `json:"workspace" validate:"omitempty,slug"`
	IsActive  *bool   `json:"is_active"`
}

func NewAdminService(db *gorm.DB, audit *AuditService) *AdminService {
	return &AdminService{db: db, audit: audit}
}

// GetDashboardStats summarises one workspace, or every workspace when empty.
func (s *AdminService) GetDashboardStats(ctx context.Context, workspace string) (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{ProductsByBranch: map[string]int64{}}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	scoped := func(model interface{}) *gorm.DB {
		q := s.db.WithContext(ctx).Model(model)
		if workspace != "" {
			q = q.Where("workspace = ?", workspace)
		}
		return q
	}

	var lastMonthProducts int64
	var branches []struct {
		Branch string
		Total  int64
	}

	steps := []struct {
		op  string
		run func() error
	}{
		{"count products", func() error { return scoped(&models.Product{}).Count(&stats.TotalProducts).Error }},
		{"count new products", func() error {
			return scoped(&models.Product{}).Where("created_at >= ?", monthStart).Count(&stats.NewProductsThisMonth).Error
		}},
		{"count last month products", func() error {
			return scoped(&models.Product{}).
				Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).
				Count(&lastMonthProducts).Error
		}},
		{"count categories", func() error { return scoped(&models.Category{}).Count(&stats.TotalCategories).Error }},
		{"count types", func() error { return scoped(&models.AssetType{}).Count(&stats.TotalTypes).Error }},
		{"products by branch", func() error {
			return scoped(&models.Product{}).Select("branch, COUNT(*) AS total").Group("branch").Scan(&branches).Error
		}},
		{"count users", func() error { return scoped(&models.User{}).Count(&stats.TotalUsers).Error }},
		{"count active users", func() error {
			return scoped(&models.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error
		}},
		{"count pending wfh", func() error {
			return scoped(&models.WorkFromHome{}).Where("status = ?", models.WFHStatusPending).Count(&stats.PendingWFH).Error
		}},
		{"count due reminders", func() error {
			return scoped(&models.Reminder{}).Where("notified_at IS NULL AND remind_at <= ?", now).Count(&stats.DueReminders).Error
		}},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return nil, &StoreError{Op: step.op, Err: err}
		}
	}

	for _, b := range branches {
		stats.ProductsByBranch[b.Branch] = b.Total
	}
	if lastMonthProducts > 0 {
		stats.ProductGrowth = float64(stats.NewProductsThisMonth-lastMonthProducts) / float64(lastMonthProducts) * 100
	}

	return stats, nil
}

// User Management
func (s *AdminService) GetUsers(ctx context.Context, filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Branch != "" {
		query = query.Where("branch = ?", filter.Branch)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &StoreError{Op: "count users", Err: err}
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "name", "email", "role"})
	if filter.Limit > 0 {
		query = utils.ApplyPagination(query, filter.PaginationParams)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, &StoreError{Op: "list users", Err: err}
	}
	return users, total, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, audit AuditContext, id uuid.UUID, req *UpdateUserRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, storeErr("get user", "user", err)
	}
	if req.IsActive != nil && !*req.IsActive && user.ID == audit.ActorID {
		return nil, newValidationError("is_active", "you cannot deactivate your own account")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.Branch != nil {
		updates["branch"] = *req.Branch
	}
	if req.Workspace != nil {
		updates["workspace"] = *req.Workspace
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return &user, nil
	}

	previous := models.JSONB{}
	for column := range updates {
		previous[column] = userColumn(&user, column)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, audit, models.AuditActionUserUpdated, models.AuditResourceUser, user.ID, previous, models.JSONB(updates))
	})
	if err != nil {
		return nil, &StoreError{Op: "update user", Err: err}
	}
	return &user, nil
}

func userColumn(user *models.User, column string) interface{} {
	switch column {
	case "name":
		return user.Name
	case "role":
		return user.Role
	case "branch":
		return user.Branch
	case "workspace":
		return user.Workspace
	case "is_active":
		return user.IsActive
	}
	return nil
}

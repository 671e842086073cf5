// internal/services/role_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/utils"
)

type RoleService struct {
	db    *gorm.DB
	audit *AuditService
}

type CreateRoleRequest struct {
	Name        string                  `json:"name" validate:"required,max=100"`
	Workspace   string                  `json:"workspace" validate:"omitempty,slug"`
	Description string                  `json:"description"`
	Scope       models.AccessScope      `json:"scope" validate:"required,oneof=unrestricted restricted none"`
	Permissions models.PermissionMatrix `json:"permissions"`
}

type UpdateRoleRequest struct {
	Description *string             `json:"description"`
	Scope       *models.AccessScope `json:"scope" validate:"omitempty,oneof=unrestricted restricted none"`
}

type UpdatePermissionsRequest struct {
	Permissions models.PermissionMatrix `json:"permissions" validate:"required"`
}

// AuditContext carries the request metadata recorded with an audit entry.
type AuditContext struct {
	ActorID   uuid.UUID
	IPAddress string
	UserAgent string
}

// BuiltInRoles are created on first start.
var BuiltInRoles = []models.Role{
	{
		Name:        models.RoleAdmin,
		Description: "Full access to every branch",
		Scope:       models.AccessScopeUnrestricted,
		Permissions: models.PermissionMatrix{"*": {"*"}},
		IsBuiltIn:   true,
	},
	{
		Name:        models.RoleOperator,
		Description: "Manages inventory of their own branch",
		Scope:       models.AccessScopeRestricted,
		Permissions: models.PermissionMatrix{
			"products":   {"read", "write"},
			"categories": {"read"},
			"types":      {"read"},
			"wfh":        {"read", "write"},
			"reminders":  {"read", "write"},
		},
		IsBuiltIn: true,
	},
}

func NewRoleService(db *gorm.DB, audit *AuditService) *RoleService {
	return &RoleService{db: db, audit: audit}
}

// SeedBuiltInRoles inserts the built-in roles that do not exist yet.
func (s *RoleService) SeedBuiltInRoles(ctx context.Context) error {
	for _, builtIn := range BuiltInRoles {
		var existing models.Role
		err := s.db.WithContext(ctx).Where("name = ? AND is_built_in = ?", builtIn.Name, true).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return &StoreError{Op: "seed roles", Err: err}
		}

		role := builtIn
		if err := s.db.WithContext(ctx).Create(&role).Error; err != nil {
			return &StoreError{Op: "seed roles", Err: err}
		}
		logrus.WithField("role", role.Name).Info("Built-in role seeded")
	}
	return nil
}

// ResolveScope returns the access scope for a role name. Built-in names
// resolve without a lookup.
func (s *RoleService) ResolveScope(ctx context.Context, name, workspace string) (models.AccessScope, error) {
	switch name {
	case models.RoleAdmin, models.RoleOperator:
		return models.ScopeForRole(name), nil
	}

	var role models.Role
	err := s.db.WithContext(ctx).
		Where("name = ? AND (workspace = ? OR workspace = '')", name, workspace).
		Order("workspace DESC").
		First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AccessScopeNone, nil
		}
		return models.AccessScopeNone, &StoreError{Op: "resolve role scope", Err: err}
	}
	return role.Scope, nil
}

func (s *RoleService) CreateRole(ctx context.Context, audit AuditContext, req *CreateRoleRequest) (*models.Role, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Role{}).
		Where("LOWER(name) = ? AND workspace = ?", strings.ToLower(name), req.Workspace).
		Count(&existing).Error; err != nil {
		return nil, &StoreError{Op: "create role", Err: err}
	}
	if existing > 0 {
		return nil, fmt.Errorf("role %q %w", name, ErrConflict)
	}

	role := &models.Role{
		Name:        name,
		Workspace:   req.Workspace,
		Description: req.Description,
		Scope:       req.Scope,
		Permissions: req.Permissions.Normalized(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, audit, models.AuditActionRoleCreated, models.AuditResourceRole, role.ID,
			nil, models.JSONB{"name": role.Name, "scope": role.Scope, "permissions": role.Permissions})
	})
	if err != nil {
		return nil, &StoreError{Op: "create role", Err: err}
	}

	return role, nil
}

func (s *RoleService) GetRole(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("role")
		}
		return nil, &StoreError{Op: "get role", Err: err}
	}
	return &role, nil
}

func (s *RoleService) ListRoles(ctx context.Context, workspace string) ([]models.Role, error) {
	query := s.db.WithContext(ctx).Model(&models.Role{})
	if workspace != "" {
		query = query.Where("workspace = ? OR is_built_in = ?", workspace, true)
	}

	var roles []models.Role
	if err := query.Order("is_built_in DESC, name ASC").Find(&roles).Error; err != nil {
		return nil, &StoreError{Op: "list roles", Err: err}
	}
	return roles, nil
}

func (s *RoleService) UpdateRole(ctx context.Context, id uuid.UUID, req *UpdateRoleRequest) (*models.Role, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsBuiltIn && req.Scope != nil && *req.Scope != role.Scope {
		return nil, newValidationError("scope", "scope of built-in role %q cannot change", role.Name)
	}

	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.Scope != nil {
		role.Scope = *req.Scope
	}

	if err := s.db.WithContext(ctx).Save(role).Error; err != nil {
		return nil, &StoreError{Op: "update role", Err: err}
	}
	return role, nil
}

// UpdatePermissions replaces the role's access matrix and records the change.
func (s *RoleService) UpdatePermissions(ctx context.Context, audit AuditContext, id uuid.UUID, req *UpdatePermissionsRequest) (*models.Role, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := role.Permissions
	role.Permissions = req.Permissions.Normalized()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(role).UpdateColumn("permissions", role.Permissions).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, audit, models.AuditActionRolePermissionsChanged, models.AuditResourceRole, role.ID,
			models.JSONB{"permissions": previous}, models.JSONB{"permissions": role.Permissions})
	})
	if err != nil {
		return nil, &StoreError{Op: "update role permissions", Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"role_id":  role.ID,
		"actor_id": audit.ActorID,
	}).Info("Role permissions changed")

	return role, nil
}

func (s *RoleService) DeleteRole(ctx context.Context, audit AuditContext, id uuid.UUID) error {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsBuiltIn {
		return newValidationError("id", "built-in role %q cannot be deleted", role.Name)
	}

	var assigned int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role.Name).Count(&assigned).Error; err != nil {
		return &StoreError{Op: "delete role", Err: err}
	}
	if assigned > 0 {
		return newValidationError("id", "role %q is assigned to %d users", role.Name, assigned)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(role).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, audit, models.AuditActionRoleDeleted, models.AuditResourceRole, role.ID,
			models.JSONB{"name": role.Name, "permissions": role.Permissions}, nil)
	})
	if err != nil {
		return &StoreError{Op: "delete role", Err: err}
	}
	return nil
}

// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/assetdesk/internal/config"
	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/utils"
)

type AuthService struct {
	db    *gorm.DB
	cfg   *config.Config
	roles *RoleService
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"` // in seconds
}

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,strong_password"`
	Role      string `json:"role" validate:"required,max=50"`
	Branch    string `json:"branch" validate:"omitempty,slug"`
	Workspace string `json:"workspace" validate:"omitempty,slug"`
}

func NewAuthService(db *gorm.DB, cfg *config.Config, roles *RoleService) *AuthService {
	return &AuthService{
		db:    db,
		cfg:   cfg,
		roles: roles,
	}
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, &StoreError{Op: "login", Err: err}
	}

	if !user.IsActive {
		return nil, ErrPermission
	}
	if err := user.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	scope, err := s.roles.ResolveScope(ctx, user.Role, user.Workspace)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record login time")
	}

	accessToken, err := utils.GenerateJWT(utils.TokenSubject{
		UserID:    user.ID,
		Role:      user.Role,
		Scope:     string(scope),
		Branch:    user.Branch,
		Workspace: user.Workspace,
	}, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		User:        &user,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, &StoreError{Op: "get user", Err: err}
	}
	return &user, nil
}

// CreateUser registers a user on behalf of an administrator.
func (s *AuthService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Name:      strings.TrimSpace(req.Name),
		Role:      req.Role,
		Branch:    req.Branch,
		Workspace: req.Workspace,
		IsActive:  true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("user %q %w", user.Email, ErrConflict)
		}
		return nil, &StoreError{Op: "create user", Err: err}
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User created")
	return user, nil
}

// SeedAdmin creates the configured administrator when no admin exists.
// It does nothing without a configured password.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	seed := s.cfg.Seed
	if seed.AdminPassword == "" {
		return nil
	}

	var admins int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return &StoreError{Op: "seed admin", Err: err}
	}
	if admins > 0 {
		return nil
	}

	user := &models.User{
		Email:    strings.ToLower(seed.AdminEmail),
		Name:     seed.AdminName,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := user.SetPassword(seed.AdminPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return &StoreError{Op: "seed admin", Err: err}
	}

	logrus.WithField("email", user.Email).Info("Administrator seeded")
	return nil
}

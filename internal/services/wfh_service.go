// internal/services/wfh_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/utils"
)

type WFHService struct {
	db            *gorm.DB
	notifications *NotificationService
}

type CreateWFHRequest struct {
	Date   string `json:"date" validate:"required"`
	Reason string `json:"reason" validate:"max=1000"`
}

type WFHFilter struct {
	utils.PaginationParams
	UserID *uuid.UUID
	Status models.WFHStatus
	From   *time.Time
	To     *time.Time
}

type ReviewWFHRequest struct {
	Status models.WFHStatus `json:"status" validate:"required,oneof=approved rejected"`
}

func NewWFHService(db *gorm.DB, notifications *NotificationService) *WFHService {
	return &WFHService{db: db, notifications: notifications}
}

func (s *WFHService) CreateWFH(ctx context.Context, caller Caller, req *CreateWFHRequest) (*models.WorkFromHome, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	date, err := parseOptionalDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if date == nil {
		return nil, newValidationError("date", "date is required")
	}

	record := &models.WorkFromHome{
		UserID:    caller.UserID,
		Workspace: caller.Workspace,
		Date:      *date,
		Reason:    req.Reason,
		Status:    models.WFHStatusPending,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("work-from-home on %s %w", record.Date.Format("2006-01-02"), ErrConflict)
		}
		return nil, &StoreError{Op: "create wfh", Err: err}
	}

	return record, nil
}

// ListWFH lists the caller's own records, or everyone's for admins.
func (s *WFHService) ListWFH(ctx context.Context, caller Caller, filter WFHFilter) ([]models.WorkFromHome, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.WorkFromHome{})

	if !caller.IsAdmin() {
		query = query.Where("user_id = ?", caller.UserID)
	} else if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if caller.Workspace != "" {
		query = query.Where("workspace = ?", caller.Workspace)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", models.DateOnly(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("date <= ?", models.DateOnly(*filter.To))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &StoreError{Op: "count wfh", Err: err}
	}

	if filter.Limit > 0 {
		query = utils.ApplyPagination(query, filter.PaginationParams)
	}

	var records []models.WorkFromHome
	if err := query.Order("date DESC").Find(&records).Error; err != nil {
		return nil, 0, &StoreError{Op: "list wfh", Err: err}
	}
	return records, total, nil
}

func (s *WFHService) ReviewWFH(ctx context.Context, caller Caller, id uuid.UUID, req *ReviewWFHRequest) (*models.WorkFromHome, error) {
	if !caller.IsAdmin() {
		return nil, ErrPermission
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var record models.WorkFromHome
	if err := s.db.WithContext(ctx).Preload("User").First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("work-from-home record")
		}
		return nil, &StoreError{Op: "get wfh", Err: err}
	}
	if record.Status != models.WFHStatusPending {
		return nil, newValidationError("status", "record is already %s", record.Status)
	}

	now := time.Now()
	reviewer := caller.UserID
	record.Status = req.Status
	record.ReviewedBy = &reviewer
	record.ReviewedAt = &now

	if err := s.db.WithContext(ctx).Model(&record).Updates(map[string]interface{}{
		"status":      record.Status,
		"reviewed_by": record.ReviewedBy,
		"reviewed_at": record.ReviewedAt,
	}).Error; err != nil {
		return nil, &StoreError{Op: "review wfh", Err: err}
	}

	if s.notifications != nil && record.User != nil {
		if err := s.notifications.SendWFHReviewed(record.User, &record); err != nil {
			logrus.WithError(err).WithField("wfh_id", record.ID).Warn("Failed to send review notification")
		}
	}

	return &record, nil
}

// DeleteWFH removes one of the caller's own pending records.
func (s *WFHService) DeleteWFH(ctx context.Context, caller Caller, id uuid.UUID) error {
	var record models.WorkFromHome
	if err := s.db.WithContext(ctx).First(&record, "id = ? AND user_id = ?", id, caller.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("work-from-home record")
		}
		return &StoreError{Op: "get wfh", Err: err}
	}
	if record.Status != models.WFHStatusPending {
		return newValidationError("status", "only pending records can be deleted")
	}

	if err := s.db.WithContext(ctx).Delete(&record).Error; err != nil {
		return &StoreError{Op: "delete wfh", Err: err}
	}
	return nil
}

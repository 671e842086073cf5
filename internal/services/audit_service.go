// internal/services/audit_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/utils"
)

type AuditService struct {
	db *gorm.DB
}

type AuditLogFilter struct {
	utils.PaginationParams
	ResourceType string
	ResourceID   *uuid.UUID
	ActorID      *uuid.UUID
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes one entry using tx, so callers can keep it in the same
// transaction as the change it describes.
func (s *AuditService) Record(tx *gorm.DB, audit AuditContext, action, resourceType string, resourceID uuid.UUID, oldValues, newValues models.JSONB) error {
	entry := &models.AuditLog{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		OldValues:    oldValues,
		NewValues:    newValues,
		IPAddress:    audit.IPAddress,
		UserAgent:    audit.UserAgent,
	}
	if audit.ActorID != uuid.Nil {
		actor := audit.ActorID
		entry.ActorID = &actor
	}
	return tx.Create(entry).Error
}

func (s *AuditService) ListAuditLogs(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != nil {
		query = query.Where("resource_id = ?", *filter.ResourceID)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &StoreError{Op: "count audit logs", Err: err}
	}

	if filter.Limit > 0 {
		query = utils.ApplyPagination(query, filter.PaginationParams)
	}

	var logs []models.AuditLog
	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, &StoreError{Op: "list audit logs", Err: err}
	}
	return logs, total, nil
}

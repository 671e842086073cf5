// internal/services/reminder_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/utils"
)

// reminderSweepBatch caps how many reminders one sweep sends.
const reminderSweepBatch = 100

type ReminderService struct {
	db            *gorm.DB
	notifications *NotificationService
}

type CreateReminderRequest struct {
	Title    string    `json:"title" validate:"required,max=255"`
	Note     string    `json:"note"`
	Email    string    `json:"email" validate:"omitempty,email"`
	RemindAt time.Time `json:"remind_at" validate:"required"`
}

type UpdateReminderRequest struct {
	Title    *string    `json:"title" validate:"omitempty,max=255"`
	Note     *string    `json:"note"`
	Email    *string    `json:"email" validate:"omitempty,email"`
	RemindAt *time.Time `json:"remind_at"`
}

// SweepResult summarises one pass over due reminders.
type SweepResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

func NewReminderService(db *gorm.DB, notifications *NotificationService) *ReminderService {
	return &ReminderService{db: db, notifications: notifications}
}

func (s *ReminderService) CreateReminder(ctx context.Context, caller Caller, req *CreateReminderRequest) (*models.Reminder, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	reminder := &models.Reminder{
		UserID:    caller.UserID,
		Workspace: caller.Workspace,
		Title:     strings.TrimSpace(req.Title),
		Note:      req.Note,
		Email:     req.Email,
		RemindAt:  req.RemindAt.UTC(),
	}
	if reminder.Email == "" {
		email, err := s.userEmail(ctx, caller.UserID)
		if err != nil {
			return nil, err
		}
		reminder.Email = email
	}

	if err := s.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return nil, &StoreError{Op: "create reminder", Err: err}
	}
	return reminder, nil
}

func (s *ReminderService) GetReminder(ctx context.Context, caller Caller, id uuid.UUID) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := s.db.WithContext(ctx).First(&reminder, "id = ? AND user_id = ?", id, caller.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("reminder")
		}
		return nil, &StoreError{Op: "get reminder", Err: err}
	}
	return &reminder, nil
}

func (s *ReminderService) ListReminders(ctx context.Context, caller Caller, params utils.PaginationParams) ([]models.Reminder, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Reminder{}).Where("user_id = ?", caller.UserID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &StoreError{Op: "count reminders", Err: err}
	}
	if params.Limit > 0 {
		query = utils.ApplyPagination(query, params)
	}

	var reminders []models.Reminder
	if err := query.Order("remind_at ASC").Find(&reminders).Error; err != nil {
		return nil, 0, &StoreError{Op: "list reminders", Err: err}
	}
	return reminders, total, nil
}

// UpdateReminder edits a reminder. Moving remind_at re-arms it.
func (s *ReminderService) UpdateReminder(ctx context.Context, caller Caller, id uuid.UUID, req *UpdateReminderRequest) (*models.Reminder, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	reminder, err := s.GetReminder(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		reminder.Title = strings.TrimSpace(*req.Title)
	}
	if req.Note != nil {
		reminder.Note = *req.Note
	}
	if req.Email != nil {
		reminder.Email = *req.Email
	}
	if req.RemindAt != nil {
		reminder.RemindAt = req.RemindAt.UTC()
		reminder.NotifiedAt = nil
	}

	if err := s.db.WithContext(ctx).Save(reminder).Error; err != nil {
		return nil, &StoreError{Op: "update reminder", Err: err}
	}
	return reminder, nil
}

func (s *ReminderService) DeleteReminder(ctx context.Context, caller Caller, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Reminder{}, "id = ? AND user_id = ?", id, caller.UserID)
	if result.Error != nil {
		return &StoreError{Op: "delete reminder", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return notFound("reminder")
	}
	return nil
}

// SendDueReminders mails every reminder due at now and stamps notified_at.
// A reminder whose delivery fails stays due and is retried next sweep.
func (s *ReminderService) SendDueReminders(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	var due []models.Reminder
	if err := s.db.WithContext(ctx).
		Where("notified_at IS NULL AND remind_at <= ?", now).
		Order("remind_at ASC").
		Limit(reminderSweepBatch).
		Find(&due).Error; err != nil {
		return result, &StoreError{Op: "find due reminders", Err: err}
	}

	for i := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		reminder := &due[i]
		logger := logrus.WithFields(logrus.Fields{"reminder_id": reminder.ID, "user_id": reminder.UserID})

		if err := s.notifications.SendReminder(reminder); err != nil {
			result.Failed++
			logger.WithError(err).Warn("Failed to send reminder")
			continue
		}

		if err := s.db.WithContext(ctx).Model(reminder).UpdateColumn("notified_at", now).Error; err != nil {
			result.Failed++
			logger.WithError(err).Error("Reminder sent but not marked as notified")
			continue
		}
		result.Sent++
	}

	if result.Sent > 0 || result.Failed > 0 {
		logrus.WithFields(logrus.Fields{"sent": result.Sent, "failed": result.Failed}).Info("Reminder sweep finished")
	}
	return result, nil
}

func (s *ReminderService) userEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("email").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", notFound("user")
		}
		return "", &StoreError{Op: "get user email", Err: err}
	}
	return user.Email, nil
}

// internal/models/reminder.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Reminder struct {
	BaseModel
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Workspace  string     `json:"workspace" gorm:"size:100;index"`
	Title      string     `json:"title" gorm:"size:255;not null"`
	Note       string     `json:"note" gorm:"type:text"`
	Email      string     `json:"email" gorm:"size:255"`
	RemindAt   time.Time  `json:"remind_at" gorm:"not null;index"`
	NotifiedAt *time.Time `json:"notified_at" gorm:"index"`
}

// Due reports whether the reminder should fire at now.
func (r *Reminder) Due(now time.Time) bool {
	return r.NotifiedAt == nil && !r.RemindAt.After(now)
}

// internal/models/wfh.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkFromHome records a single remote-work day for a user.
type WorkFromHome struct {
	BaseModel
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_wfh_user_date"`
	Workspace  string     `json:"workspace" gorm:"size:100;index"`
	Date       time.Time  `json:"date" gorm:"type:date;not null;uniqueIndex:idx_wfh_user_date"`
	Reason     string     `json:"reason" gorm:"type:text"`
	Status     WFHStatus  `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ReviewedBy *uuid.UUID `json:"reviewed_by" gorm:"type:uuid"`
	ReviewedAt *time.Time `json:"reviewed_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

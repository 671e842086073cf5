// internal/models/company.go
package models

import (
	"github.com/lib/pq"
)

// Company is a tenant organisation, addressed by its domain name.
type Company struct {
	BaseModel
	Name         string         `json:"name" gorm:"size:255;not null"`
	Domain       string         `json:"domain" gorm:"uniqueIndex;size:255;not null"`
	Workspace    string         `json:"workspace" gorm:"size:100;index"`
	Address      string         `json:"address" gorm:"type:text"`
	ContactEmail string         `json:"contact_email" gorm:"size:255"`
	Branches     pq.StringArray `json:"branches" gorm:"type:text[]"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
}

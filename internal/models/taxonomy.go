// internal/models/taxonomy.go
package models

import (
	"github.com/google/uuid"
)

// Category is the top level of the asset taxonomy. Names are unique per
// workspace by convention only; lookups must be case-insensitive.
type Category struct {
	BaseModel
	Name        string `json:"name" gorm:"size:150;not null;index"`
	Description string `json:"description" gorm:"type:text"`
	Workspace   string `json:"workspace" gorm:"size:100;index"`

	Types []AssetType `json:"types,omitempty" gorm:"foreignKey:CategoryID"`
}

// AssetType is a leaf under a Category. AssetCount caches the number of live
// products referencing the type and is maintained without transactions.
type AssetType struct {
	BaseModel
	Name        string    `json:"name" gorm:"size:150;not null;index"`
	Description string    `json:"description" gorm:"type:text"`
	CategoryID  uuid.UUID `json:"category_id" gorm:"type:uuid;not null;index"`
	AssetCount  int64     `json:"asset_count" gorm:"not null;default:0"`
	Workspace   string    `json:"workspace" gorm:"size:100;index"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

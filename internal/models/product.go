// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultProductTag = "unassigned"

// Product is an inventory item. CategoryName and TypeName are captured at
// creation time and are not kept in sync with later renames.
type Product struct {
	BaseModel
	CategoryID     uuid.UUID  `json:"category_id" gorm:"type:uuid;not null;index"`
	TypeID         uuid.UUID  `json:"type_id" gorm:"type:uuid;not null;index"`
	CategoryName   string     `json:"category_name" gorm:"size:150"`
	TypeName       string     `json:"type_name" gorm:"size:150"`
	Name           string     `json:"name" gorm:"size:255"`
	Brand          string     `json:"brand" gorm:"size:150"`
	Model          string     `json:"model" gorm:"size:150"`
	Specifications string     `json:"specifications" gorm:"type:text"`
	SerialNumber   string     `json:"serial_number" gorm:"size:150;index"`
	Tag            string     `json:"tag" gorm:"size:100;default:'unassigned'"`
	Condition      string     `json:"condition" gorm:"size:50"`
	Status         string     `json:"status" gorm:"size:50;index"`
	PurchaseDate   *time.Time `json:"purchase_date" gorm:"type:date"`
	WarrantyExpiry *time.Time `json:"warranty_expiry" gorm:"type:date"`
	Remarks        string     `json:"remarks" gorm:"type:text"`
	ImagePath      string     `json:"image_path" gorm:"size:500"`
	DocumentPath   string     `json:"document_path" gorm:"size:500"`
	Workspace      string     `json:"workspace" gorm:"size:100;index"`
	Branch         string     `json:"branch" gorm:"size:100;index"`
	CreatedBy      uuid.UUID  `json:"created_by" gorm:"type:uuid;not null;index"`
	Extra          JSONB      `json:"extra,omitempty" gorm:"type:jsonb"`

	Category *Category  `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Type     *AssetType `json:"type,omitempty" gorm:"foreignKey:TypeID"`
}

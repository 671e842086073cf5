// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}

	return json.Unmarshal(bytes, j)
}

// AccessScope classifies what slice of the inventory a role may see.
type AccessScope string

const (
	// AccessScopeUnrestricted sees every branch.
	AccessScopeUnrestricted AccessScope = "unrestricted"
	// AccessScopeRestricted is pinned to the caller's own branch.
	AccessScopeRestricted AccessScope = "restricted"
	// AccessScopeNone has no inventory listing rights.
	AccessScopeNone AccessScope = "none"
)

func (s AccessScope) Valid() bool {
	switch s {
	case AccessScopeUnrestricted, AccessScopeRestricted, AccessScopeNone:
		return true
	}
	return false
}

// Built-in role names
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleEmployee = "employee"
)

// ScopeForRole resolves the scope of the built-in roles. Unknown roles get no
// inventory listing rights.
func ScopeForRole(role string) AccessScope {
	switch role {
	case RoleAdmin:
		return AccessScopeUnrestricted
	case RoleOperator:
		return AccessScopeRestricted
	default:
		return AccessScopeNone
	}
}

type WFHStatus string

const (
	WFHStatusPending  WFHStatus = "pending"
	WFHStatusApproved WFHStatus = "approved"
	WFHStatusRejected WFHStatus = "rejected"
)

// DateOnly truncates t to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// internal/models/role.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// PermissionMatrix maps a module name to the actions a role may perform on it.
type PermissionMatrix map[string][]string

func (m PermissionMatrix) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *PermissionMatrix) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported permission matrix source type %T", value)
	}
}

// Allows reports whether action is granted on module.
func (m PermissionMatrix) Allows(module, action string) bool {
	for _, a := range m[module] {
		if a == action || a == "*" {
			return true
		}
	}
	return false
}

// Normalized returns a copy with duplicate actions removed and actions sorted,
// so two matrices granting the same rights compare equal.
func (m PermissionMatrix) Normalized() PermissionMatrix {
	out := make(PermissionMatrix, len(m))
	for module, actions := range m {
		seen := make(map[string]struct{}, len(actions))
		list := make([]string, 0, len(actions))
		for _, a := range actions {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			list = append(list, a)
		}
		sort.Strings(list)
		out[module] = list
	}
	return out
}

// Role is a user-defined role with an access matrix.
type Role struct {
	BaseModel
	Name        string           `json:"name" gorm:"size:100;not null;index"`
	Workspace   string           `json:"workspace" gorm:"size:100;index"`
	Description string           `json:"description" gorm:"type:text"`
	Scope       AccessScope      `json:"scope" gorm:"type:varchar(20);not null;default:'none'"`
	Permissions PermissionMatrix `json:"permissions" gorm:"type:jsonb"`
	IsBuiltIn   bool             `json:"is_built_in" gorm:"default:false"`
}

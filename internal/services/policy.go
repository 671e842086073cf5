// internal/services/policy.go
package services

import (
	"github.com/google/uuid"

	"github.com/javajoker/assetdesk/internal/models"
)

// Caller is the authenticated identity a request acts on behalf of.
type Caller struct {
	UserID    uuid.UUID
	Role      string
	Scope     models.AccessScope
	Branch    string
	Workspace string
}

func (c Caller) IsAdmin() bool {
	return c.Scope == models.AccessScopeUnrestricted
}

// EffectiveBranch returns the branch a write is recorded against. Restricted
// callers are pinned to their own branch whatever they asked for.
func EffectiveBranch(caller Caller, requested string) string {
	if caller.Scope == models.AccessScopeRestricted {
		return caller.Branch
	}
	return requested
}

// listScope returns the branch filter for a product listing, or
// ErrPermission when the caller may not list inventory at all.
func listScope(caller Caller) (string, error) {
	switch caller.Scope {
	case models.AccessScopeUnrestricted:
		return "", nil
	case models.AccessScopeRestricted:
		if caller.Branch == "" {
			return "", ErrPermission
		}
		return caller.Branch, nil
	default:
		return "", ErrPermission
	}
}

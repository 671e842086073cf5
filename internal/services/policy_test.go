// internal/services/policy_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/javajoker/assetdesk/internal/models"
)

func TestEffectiveBranch(t *testing.T) {
	operator := Caller{UserID: uuid.New(), Role: models.RoleOperator, Scope: models.AccessScopeRestricted, Branch: "north"}
	admin := Caller{UserID: uuid.New(), Role: models.RoleAdmin, Scope: models.AccessScopeUnrestricted, Branch: "hq"}
	employee := Caller{UserID: uuid.New(), Role: models.RoleEmployee, Scope: models.AccessScopeNone, Branch: "south"}

	assert.Equal(t, "north", EffectiveBranch(operator, "south"))
	assert.Equal(t, "north", EffectiveBranch(operator, ""))
	assert.Equal(t, "south", EffectiveBranch(admin, "south"))
	assert.Equal(t, "", EffectiveBranch(admin, ""))
	assert.Equal(t, "east", EffectiveBranch(employee, "east"))
}

func TestListScope(t *testing.T) {
	branch, err := listScope(Caller{Scope: models.AccessScopeUnrestricted, Branch: "hq"})
	assert.NoError(t, err)
	assert.Empty(t, branch)

	branch, err = listScope(Caller{Scope: models.AccessScopeRestricted, Branch: "north"})
	assert.NoError(t, err)
	assert.Equal(t, "north", branch)

	_, err = listScope(Caller{Scope: models.AccessScopeRestricted})
	assert.ErrorIs(t, err, ErrPermission)

	_, err = listScope(Caller{Scope: models.AccessScopeNone, Branch: "north"})
	assert.ErrorIs(t, err, ErrPermission)
}

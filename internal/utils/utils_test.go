// internal/utils/utils_test.go
package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("utils-test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(TokenSubject{UserID: userID, Role: "operator", Scope: "restricted", Branch: "north", Workspace: "acme"}, 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "restricted", claims.Scope)
	assert.Equal(t, "north", claims.Branch)
	assert.Equal(t, jwtIssuer, claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	SetJWTSecret("rotated")
	_, err = ValidateJWT(token)
	assert.Error(t, err, "tokens signed with the old secret are rejected")
}

func TestValidateJWTRejectsExpiredAndUnsigned(t *testing.T) {
	SetJWTSecret("utils-test-secret")

	expired, err := GenerateJWT(TokenSubject{UserID: uuid.New()}, -1)
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	assert.Error(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{UserID: uuid.NewString()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateJWT(unsigned)
	assert.Error(t, err)
}

type signup struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,strong_password"`
	Branch    string `json:"branch,omitempty" validate:"omitempty,slug"`
	Workspace string `validate:"omitempty,slug"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	err := ValidateStruct(&signup{Email: "nope", Password: "weak", Branch: "North Wing", Workspace: "Acme"})
	require.True(t, IsValidationErrors(err))

	fields := map[string]string{}
	for _, e := range GetValidationErrors(err) {
		fields[e.Field] = e.Tag
	}
	assert.Equal(t, map[string]string{
		"email":     "email",
		"password":  "strong_password",
		"branch":    "slug",
		"Workspace": "slug",
	}, fields)

	assert.NoError(t, ValidateStruct(&signup{Email: "a@b.io", Password: "Str0ng!pw", Branch: "north-2", Workspace: "acme_hq"}))
	assert.False(t, IsValidationErrors(nil))
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=0&limit=500&order=sideways&search=%20laptop%20", nil)
	params := GetPaginationParams(c)
	assert.Equal(t, PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc", Search: "laptop"}, params)

	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&limit=10&sort=name&order=asc", nil)
	params = GetPaginationParams(c)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, "asc", params.Order)
}

func TestCreatePaginationResult(t *testing.T) {
	result := CreatePaginationResult([]int{1, 2}, 21, PaginationParams{Page: 2, Limit: 10})
	assert.Equal(t, 3, result.TotalPages)

	result = CreatePaginationResult(nil, 5, PaginationParams{})
	assert.Equal(t, 0, result.TotalPages)
}

func TestPaginatedResponseSetsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	PaginatedResponse(c, CreatePaginationResult([]string{"a"}, 41, PaginationParams{Page: 1, Limit: 20}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "41", w.Header().Get("X-Total-Count"))
	assert.Equal(t, "3", w.Header().Get("X-Total-Pages"))
	assert.Contains(t, w.Body.String(), `"total_pages":3`)
}

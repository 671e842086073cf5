// internal/middleware/middleware_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/services"
	"github.com/javajoker/assetdesk/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-test-secret")
	if err := i18n.Initialize("en"); err != nil {
		panic(err)
	}
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(I18nMiddleware())
	chain := append(handlers, func(c *gin.Context) {
		caller, _ := GetCaller(c)
		c.JSON(http.StatusOK, gin.H{"role": caller.Role, "scope": caller.Scope, "branch": caller.Branch, "lang": utils.GetLangFromContext(c)})
	})
	r.GET("/probe", chain...)
	return r
}

func token(t *testing.T, role, scope, branch string) string {
	tok, err := utils.GenerateJWT(utils.TokenSubject{UserID: uuid.New(), Role: role, Scope: scope, Branch: branch, Workspace: "acme"}, 1)
	require.NoError(t, err)
	return tok
}

func do(r *gin.Engine, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := newEngine(AuthRequired())

	w := do(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication required")

	w = do(r, http.Header{"Authorization": {"Token abc"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.Header{"Authorization": {"Bearer not-a-jwt"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.Header{"Authorization": {"Bearer " + token(t, models.RoleOperator, "restricted", "north")}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"operator","scope":"restricted","branch":"north","lang":"en"}`, w.Body.String())
}

func TestAuthRequiredDerivesScopeFromRole(t *testing.T) {
	r := newEngine(AuthRequired())

	w := do(r, http.Header{"Authorization": {"Bearer " + token(t, models.RoleAdmin, "", "")}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"scope":"unrestricted"`)
}

func TestAdminRequired(t *testing.T) {
	r := newEngine(AuthRequired(), AdminRequired())

	w := do(r, http.Header{"Authorization": {"Bearer " + token(t, models.RoleOperator, "restricted", "north")}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.Header{"Authorization": {"Bearer " + token(t, models.RoleAdmin, "unrestricted", "")}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestI18nMiddlewareLocalisesErrors(t *testing.T) {
	r := newEngine(AuthRequired())

	w := do(r, http.Header{"Accept-Language": {"zh-TW,zh;q=0.9"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "需要登入")
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2)
	r := newEngine(limiter.Middleware())

	assert.Equal(t, http.StatusOK, do(r, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, nil).Code)
	w := do(r, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	limiter.Sweep(time.Now().Add(time.Minute))
	assert.Equal(t, http.StatusOK, do(r, nil).Code, "swept visitors start with a fresh bucket")
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := newEngine(RequestLogger())

	w := do(r, nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(r, http.Header{"X-Request-Id": {"req-42"}})
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestGetCallerMissing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetCaller(c)
	assert.False(t, ok)

	c.Set(callerKey, services.Caller{Role: models.RoleAdmin})
	caller, ok := GetCaller(c)
	assert.True(t, ok)
	assert.Equal(t, models.RoleAdmin, caller.Role)
}

// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/services"
	"github.com/javajoker/assetdesk/internal/utils"
)

const callerKey = "caller"

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(strings.TrimSpace(parts[1]))
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTokenExpired))
			c.Abort()
			return
		}

		caller, err := callerFromClaims(claims)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		c.Set(callerKey, caller)
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok || !caller.IsAdmin() {
			utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAdminAccessDenied))
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCaller returns the identity set by AuthRequired.
func GetCaller(c *gin.Context) (services.Caller, bool) {
	value, exists := c.Get(callerKey)
	if !exists {
		return services.Caller{}, false
	}
	caller, ok := value.(services.Caller)
	return caller, ok
}

func callerFromClaims(claims *utils.JWTClaims) (services.Caller, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return services.Caller{}, err
	}

	scope := models.AccessScope(claims.Scope)
	if !scope.Valid() {
		scope = models.ScopeForRole(claims.Role)
	}

	return services.Caller{
		UserID:    userID,
		Role:      claims.Role,
		Scope:     scope,
		Branch:    claims.Branch,
		Workspace: claims.Workspace,
	}, nil
}

// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/assetdesk/internal/i18n"
	"github.com/javajoker/assetdesk/internal/middleware"
	"github.com/javajoker/assetdesk/internal/services"
	"github.com/javajoker/assetdesk/internal/utils"
)

// handleServiceError writes the response matching a service error.
func handleServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var verr *services.ValidationError
	switch {
	case utils.IsValidationErrors(err):
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
	case errors.As(err, &verr):
		utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), []utils.ValidationError{
			{Field: verr.Field, Tag: "invalid", Message: verr.Message},
		})
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrPermission):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	default:
		_ = c.Error(err)
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}

// bindJSON decodes the body and writes a 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

// pathID parses the ":id" route parameter.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "id"), nil)
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query parameter. A malformed value is
// reported as a 400.
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return nil, false
	}
	return &id, true
}

func callerOrAbort(c *gin.Context) (services.Caller, bool) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return services.Caller{}, false
	}
	return caller, true
}

func auditContext(c *gin.Context, caller services.Caller) services.AuditContext {
	return services.AuditContext{
		ActorID:   caller.UserID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func deletedResponse(c *gin.Context, key string) {
	utils.SuccessResponse(c, gin.H{"message": i18n.T(utils.GetLangFromContext(c), key)})
}

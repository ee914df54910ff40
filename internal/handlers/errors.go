// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/partnerlink/partnerlink-backend/internal/i18n"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/services"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
	"github.com/partnerlink/partnerlink-backend/internal/wizard"
)

// respondError maps a service error onto the response envelope. resource
// names the i18n namespace used for 404 messages, e.g. "product".
func respondError(c *gin.Context, err error, resource string) {
	lang := utils.GetLangFromContext(c)

	if fields := utils.GetValidationErrors(err); len(fields) > 0 {
		utils.ValidationErrorResponse(c, fields)
		return
	}

	var (
		stepErr    *wizard.ValidationError
		fieldErr   *wizard.FieldError
		persistErr *wizard.PersistenceError
	)
	switch {
	case errors.As(err, &stepErr):
		utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR",
			i18n.T(lang, i18n.KeyWizardStepIncomplete, strings.Join(stepErr.Missing, ", ")),
			utils.MissingFieldErrors(stepErr.Missing))
	case errors.As(err, &fieldErr):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyWizardInvalidField, string(fieldErr.Field)), fieldErr.Reason)
	case errors.Is(err, wizard.ErrUnknownField), errors.Is(err, wizard.ErrUnknownOption):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "field"), err.Error())
	case errors.Is(err, wizard.ErrUnknownFlavor):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyWizardUnknownFlavor), nil)
	case errors.Is(err, wizard.ErrNoDraftPersisted):
		utils.ErrorResponse(c, http.StatusConflict, "DRAFT_NOT_PERSISTED", i18n.T(lang, i18n.KeyWizardNotPersisted), nil)
	case errors.Is(err, wizard.ErrDraftSubmitted):
		utils.ErrorResponse(c, http.StatusConflict, "ALREADY_SUBMITTED", i18n.T(lang, i18n.KeyWizardAlreadySubmitted), nil)
	case errors.Is(err, wizard.ErrAtFinalStep):
		utils.ErrorResponse(c, http.StatusConflict, "AT_FINAL_STEP", i18n.T(lang, i18n.KeyWizardAtFinalStep), nil)
	case errors.Is(err, wizard.ErrNotFinalStep):
		utils.ErrorResponse(c, http.StatusConflict, "NOT_FINAL_STEP", i18n.T(lang, i18n.KeyWizardNotFinalStep), nil)
	// A failed save wraps the store error, which may itself be not-found.
	case errors.As(err, &persistErr):
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Draft persistence failed")
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "SAVE_FAILED", i18n.T(lang, i18n.KeyWizardSaveFailed), nil)
	case errors.Is(err, services.ErrNotFound), errors.Is(err, wizard.ErrRecordNotFound):
		utils.NotFoundResponse(c, resource)
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthForbidden))
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidState):
		utils.UnprocessableResponse(c, "INVALID_STATE", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidInput):
		utils.BadRequestResponse(c, err.Error(), nil)
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}

// currentAccount returns the authenticated account id.
func currentAccount(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return id, true
}

func isAdmin(c *gin.Context) bool {
	accountType, _ := utils.GetAccountTypeFromContext(c)
	return accountType == string(models.AccountTypeAdmin)
}

// pathID parses a uuid route parameter.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body and reports malformed input.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

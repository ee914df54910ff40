// internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/partnerlink/partnerlink-backend/internal/i18n"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
	"github.com/partnerlink/partnerlink-backend/internal/wizard"
)

// AccountToucher makes sure the local account row of a session exists.
type AccountToucher interface {
	Touch(ctx context.Context, session wizard.SessionContext) error
}

func AuthRequired(accounts AccountToucher) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		token, ok := bearerToken(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		session := sessionFromClaims(claims)
		if accounts != nil {
			if err := accounts.Touch(c.Request.Context(), session); err != nil {
				logrus.WithError(err).WithField("user_id", session.UserID).Warn("Failed to sync account")
				utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
				c.Abort()
				return
			}
		}

		setSession(c, session)
		c.Next()
	}
}

// RequireAccountType lets only the listed account types through. Admins
// always pass.
func RequireAccountType(types ...models.AccountType) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountType, _ := utils.GetAccountTypeFromContext(c)
		if accountType == string(models.AccountTypeAdmin) {
			c.Next()
			return
		}
		for _, t := range types {
			if accountType == string(t) {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthForbidden))
		c.Abort()
	}
}

// OptionalAuth sets the session when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			c.Next()
			return
		}

		setSession(c, sessionFromClaims(claims))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func sessionFromClaims(claims *utils.JWTClaims) wizard.SessionContext {
	userID := claims.UserID
	if id, err := uuid.Parse(userID); err == nil {
		userID = id.String()
	}
	return wizard.SessionContext{
		UserID:      userID,
		Email:       claims.Email,
		Name:        claims.Name,
		AccountType: claims.AccountType,
	}
}

func setSession(c *gin.Context, session wizard.SessionContext) {
	c.Set("user_id", session.UserID)
	c.Set("account_type", session.AccountType)
	c.Set("session", session)
}

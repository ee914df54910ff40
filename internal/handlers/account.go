// internal/handlers/account.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/partnerlink/partnerlink-backend/internal/i18n"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/services"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

type AccountHandler struct {
	accountService   *services.AccountService
	dashboardService *services.DashboardService
}

func NewAccountHandler(accountService *services.AccountService, dashboardService *services.DashboardService) *AccountHandler {
	return &AccountHandler{
		accountService:   accountService,
		dashboardService: dashboardService,
	}
}

// GET /me
func (h *AccountHandler) GetProfile(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "account")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"account": account,
	})
}

// PUT /me
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accountService.UpdateProfile(c.Request.Context(), accountID, &req)
	if err != nil {
		respondError(c, err, "account")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAccountProfileUpdated),
		"account": account,
	})
}

// GET /dashboard
func (h *AccountHandler) GetDashboard(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}
	accountType, _ := utils.GetAccountTypeFromContext(c)

	dashboard, err := h.dashboardService.Get(c.Request.Context(), accountID, models.AccountType(accountType))
	if err != nil {
		respondError(c, err, "account")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"dashboard": dashboard,
	})
}

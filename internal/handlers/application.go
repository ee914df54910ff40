// internal/handlers/application.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/partnerlink/partnerlink-backend/internal/i18n"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/services"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// GET /applications
func (h *ApplicationHandler) GetMyApplications(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	params := searchParams(c)
	applications, total, err := h.applicationService.ListMine(c.Request.Context(), accountID, params)
	if err != nil {
		respondError(c, err, "application")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(applications, total, params.PaginationParams))
}

// GET /applications/incoming
func (h *ApplicationHandler) GetIncomingApplications(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	params := searchParams(c)
	applications, total, err := h.applicationService.ListIncoming(c.Request.Context(), accountID, params)
	if err != nil {
		respondError(c, err, "application")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(applications, total, params.PaginationParams))
}

// GET /applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	reviewer, ok := h.reviewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	application, err := h.applicationService.Get(c.Request.Context(), id, reviewer)
	if err != nil {
		respondError(c, err, "application")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"application": application,
	})
}

// PUT /applications/:id/approve
func (h *ApplicationHandler) ApproveApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	reviewer, ok := h.reviewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.ApproveApplicationRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	application, partnership, err := h.applicationService.Approve(c.Request.Context(), id, reviewer, &req)
	if err != nil {
		respondError(c, err, "application")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyApplicationApproved),
		"application": application,
		"partnership": partnership,
	})
}

// PUT /applications/:id/reject
func (h *ApplicationHandler) RejectApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	reviewer, ok := h.reviewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.RejectApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	application, err := h.applicationService.Reject(c.Request.Context(), id, reviewer, &req)
	if err != nil {
		respondError(c, err, "application")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyApplicationRejected),
		"application": application,
	})
}

// GET /partnerships
func (h *ApplicationHandler) GetPartnerships(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	partnerships, total, err := h.applicationService.ListPartnerships(c.Request.Context(), accountID, params)
	if err != nil {
		respondError(c, err, "partnership")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(partnerships, total, params))
}

// PUT /partnerships/:id/end
func (h *ApplicationHandler) EndPartnership(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	partnership, err := h.applicationService.EndPartnership(c.Request.Context(), id, accountID)
	if err != nil {
		respondError(c, err, "partnership")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"partnership": partnership,
	})
}

func (h *ApplicationHandler) reviewer(c *gin.Context) (services.Reviewer, bool) {
	accountID, ok := currentAccount(c)
	if !ok {
		return services.Reviewer{}, false
	}
	return services.Reviewer{ID: accountID, IsAdmin: isAdmin(c)}, true
}

func searchParams(c *gin.Context) services.ApplicationSearchParams {
	params := services.ApplicationSearchParams{PaginationParams: utils.GetPaginationParams(c)}

	if status := c.Query("status"); status != "" {
		applicationStatus := models.ApplicationStatus(status)
		params.Status = &applicationStatus
	}
	if productIDStr := c.Query("product_id"); productIDStr != "" {
		if productID, err := uuid.Parse(productIDStr); err == nil {
			params.ProductID = &productID
		}
	}
	return params
}

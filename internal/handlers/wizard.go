// internal/handlers/wizard.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/partnerlink/partnerlink-backend/internal/i18n"
	"github.com/partnerlink/partnerlink-backend/internal/services"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
	"github.com/partnerlink/partnerlink-backend/internal/wizard"
)

type WizardHandler struct {
	wizardService *services.WizardService
}

func NewWizardHandler(wizardService *services.WizardService) *WizardHandler {
	return &WizardHandler{wizardService: wizardService}
}

type toggleRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// GET /wizards/flavors
func (h *WizardHandler) GetFlavors(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"flavors": h.wizardService.Flavors(),
	})
}

// POST /wizards
func (h *WizardHandler) Start(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req services.StartWizardRequest
	if !bindJSON(c, &req) {
		return
	}

	state, err := h.wizardService.Start(c.Request.Context(), session, &req)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	if state.Resumed {
		utils.SuccessResponse(c, state)
		return
	}
	utils.CreatedResponse(c, state)
}

// POST /wizards/resume/:application_id
func (h *WizardHandler) Resume(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	applicationID, ok := pathID(c, "application_id")
	if !ok {
		return
	}

	state, err := h.wizardService.Resume(c.Request.Context(), session, applicationID)
	if err != nil {
		respondError(c, err, "application")
		return
	}
	utils.SuccessResponse(c, state)
}

// GET /wizards/:id
func (h *WizardHandler) Get(c *gin.Context) {
	h.run(c, func(id uuid.UUID, userID string) (*services.WizardState, error) {
		return h.wizardService.State(id, userID)
	})
}

// PATCH /wizards/:id/fields
func (h *WizardHandler) SetFields(c *gin.Context) {
	var raw map[string]interface{}
	if !bindJSON(c, &raw) {
		return
	}
	if len(raw) == 0 {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationRequired, "fields"), nil)
		return
	}

	h.run(c, func(id uuid.UUID, userID string) (*services.WizardState, error) {
		return h.wizardService.SetFields(c.Request.Context(), id, userID, raw)
	})
}

// POST /wizards/:id/toggle
func (h *WizardHandler) Toggle(c *gin.Context) {
	var req toggleRequest
	if !bindJSON(c, &req) {
		return
	}

	h.run(c, func(id uuid.UUID, userID string) (*services.WizardState, error) {
		return h.wizardService.Toggle(c.Request.Context(), id, userID, req.Field, req.Value)
	})
}

// POST /wizards/:id/next
func (h *WizardHandler) Next(c *gin.Context) {
	h.run(c, func(id uuid.UUID, userID string) (*services.WizardState, error) {
		return h.wizardService.Next(c.Request.Context(), id, userID)
	})
}

// POST /wizards/:id/previous
func (h *WizardHandler) Previous(c *gin.Context) {
	h.run(c, func(id uuid.UUID, userID string) (*services.WizardState, error) {
		return h.wizardService.Previous(id, userID)
	})
}

// POST /wizards/:id/submit
func (h *WizardHandler) Submit(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, id, ok := h.target(c)
	if !ok {
		return
	}

	state, err := h.wizardService.Submit(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "wizard")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyWizardSubmitted),
		"wizard":  state,
	})
}

// DELETE /wizards/:id
func (h *WizardHandler) Discard(c *gin.Context) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}

	if err := h.wizardService.Discard(id, userID); err != nil {
		respondError(c, err, "wizard")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WizardHandler) run(c *gin.Context, op func(id uuid.UUID, userID string) (*services.WizardState, error)) {
	userID, id, ok := h.target(c)
	if !ok {
		return
	}

	state, err := op(id, userID)
	if err != nil {
		respondError(c, err, "wizard")
		return
	}
	utils.SuccessResponse(c, state)
}

func (h *WizardHandler) target(c *gin.Context) (string, uuid.UUID, bool) {
	userID, ok := currentAccount(c)
	if !ok {
		return "", uuid.Nil, false
	}
	id, ok := pathID(c, "id")
	if !ok {
		return "", uuid.Nil, false
	}
	return userID.String(), id, true
}

func (h *WizardHandler) session(c *gin.Context) (wizard.SessionContext, bool) {
	session, ok := utils.GetSessionFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return wizard.SessionContext{}, false
	}
	return session, true
}

// internal/handlers/message.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/partnerlink/partnerlink-backend/internal/i18n"
	"github.com/partnerlink/partnerlink-backend/internal/services"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// GET /conversations
func (h *MessageHandler) GetConversations(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	conversations, total, err := h.messageService.ListConversations(c.Request.Context(), accountID, params)
	if err != nil {
		respondError(c, err, "conversation")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(conversations, total, params))
}

// POST /conversations
func (h *MessageHandler) StartConversation(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	var req services.StartConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	conversation, err := h.messageService.StartConversation(c.Request.Context(), accountID, &req)
	if err != nil {
		respondError(c, err, "account")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"conversation": conversation,
	})
}

// GET /conversations/:id/messages
func (h *MessageHandler) GetMessages(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	if c.Query("limit") == "" {
		params.Limit = 50
	}
	messages, total, err := h.messageService.ListMessages(c.Request.Context(), id, accountID, params)
	if err != nil {
		respondError(c, err, "conversation")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(messages, total, params))
}

// POST /conversations/:id/messages
func (h *MessageHandler) PostMessage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.PostMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.messageService.PostMessage(c.Request.Context(), id, accountID, &req)
	if err != nil {
		respondError(c, err, "conversation")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"status":  i18n.T(lang, i18n.KeyMessageSent),
		"message": message,
	})
}

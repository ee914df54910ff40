// internal/services/message_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partnerlink/partnerlink-backend/internal/database"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

func TestConversationLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	product := e.product(t, "Acme CRM Cloud")
	page := utils.PaginationParams{Page: 1, Limit: 50}

	conv, err := e.messages.StartConversation(ctx, database.SeedPartnerID, &StartConversationRequest{
		RecipientID: database.SeedVendorID,
		ProductID:   &product.ID,
		Subject:     "Reseller terms",
		Body:        "Do you offer volume tiers?",
	})
	require.NoError(t, err)
	assert.Equal(t, database.SeedVendorID, conv.VendorID)
	assert.Equal(t, database.SeedPartnerID, conv.PartnerID)
	require.NotNil(t, conv.LastMessageAt)

	again, err := e.messages.StartConversation(ctx, database.SeedVendorID, &StartConversationRequest{
		RecipientID: database.SeedPartnerID,
		ProductID:   &product.ID,
		Body:        "Yes, from 50 seats.",
	})
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID, "same pair and product share a thread")

	_, err = e.messages.PostMessage(ctx, conv.ID, database.SeedPartnerID, &PostMessageRequest{Body: "Great, thanks"})
	require.NoError(t, err)

	messages, total, err := e.messages.ListMessages(ctx, conv.ID, database.SeedPartnerID, page)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, "Do you offer volume tiers?", messages[0].Body)
	assert.Equal(t, "Great, thanks", messages[2].Body)

	var unread int64
	e.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id = ? AND read_at IS NULL", conv.ID, database.SeedVendorID).
		Count(&unread)
	assert.Zero(t, unread, "reading marks the other side's messages")

	var notifications int64
	e.db.Model(&models.Notification{}).Where("type = ?", NotificationNewMessage).Count(&notifications)
	assert.EqualValues(t, 3, notifications)

	convs, total, err := e.messages.ListConversations(ctx, database.SeedVendorID, page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, conv.ID, convs[0].ID)
}

func TestConversationRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.messages.StartConversation(ctx, database.SeedPartnerID, &StartConversationRequest{
		RecipientID: database.SeedAdminID,
		Body:        "hello",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.messages.StartConversation(ctx, database.SeedPartnerID, &StartConversationRequest{
		RecipientID: uuid.New(),
		Body:        "hello",
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.messages.StartConversation(ctx, database.SeedPartnerID, &StartConversationRequest{
		RecipientID: database.SeedVendorID,
		Body:        "   ",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	conv, err := e.messages.StartConversation(ctx, database.SeedPartnerID, &StartConversationRequest{
		RecipientID: database.SeedVendorID,
		Body:        "hello",
	})
	require.NoError(t, err)

	_, err = e.messages.PostMessage(ctx, conv.ID, uuid.New(), &PostMessageRequest{Body: "intruder"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, _, err = e.messages.ListMessages(ctx, conv.ID, database.SeedAdminID, utils.PaginationParams{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.messages.PostMessage(ctx, uuid.New(), database.SeedPartnerID, &PostMessageRequest{Body: "lost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

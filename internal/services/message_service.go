// internal/services/message_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/database"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

// MessageService stores vendor and partner conversations. Delivery is by
// polling and in-app notifications; there is no live transport.
type MessageService struct {
	db            *gorm.DB
	notifications *NotificationService
	log           logrus.FieldLogger
}

type StartConversationRequest struct {
	RecipientID uuid.UUID  `json:"recipient_id" validate:"required"`
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	Subject     string     `json:"subject,omitempty" validate:"omitempty,max=255"`
	Body        string     `json:"body" validate:"required,max=5000"`
}

type PostMessageRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

func NewMessageService(db *gorm.DB, notifications *NotificationService) *MessageService {
	return &MessageService{
		db:            db,
		notifications: notifications,
		log:           logrus.WithField("component", "messages"),
	}
}

// StartConversation opens a thread between a vendor and a partner, or
// appends to the existing thread for the same pair and product.
func (s *MessageService) StartConversation(ctx context.Context, senderID uuid.UUID, req *StartConversationRequest) (*models.Conversation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, fmt.Errorf("%w: message body is empty", ErrInvalidInput)
	}

	db := s.db.WithContext(ctx)
	sender, err := s.account(db, senderID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.account(db, req.RecipientID)
	if err != nil {
		return nil, err
	}

	var vendorID, partnerID uuid.UUID
	switch {
	case sender.IsVendor() && recipient.AccountType == models.AccountTypePartner:
		vendorID, partnerID = sender.ID, recipient.ID
	case sender.AccountType == models.AccountTypePartner && recipient.IsVendor():
		vendorID, partnerID = recipient.ID, sender.ID
	default:
		return nil, fmt.Errorf("%w: conversations are between a vendor and a partner", ErrInvalidInput)
	}

	if req.ProductID != nil {
		var product models.Product
		if err := db.First(&product, "id = ?", *req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("product %s: %w", *req.ProductID, ErrNotFound)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		if product.VendorID != vendorID {
			return nil, fmt.Errorf("%w: product belongs to another vendor", ErrInvalidInput)
		}
	}

	var conv models.Conversation
	var msg *models.Message
	err = database.WithTransaction(db, func(tx *gorm.DB) error {
		query := tx.Where("vendor_id = ? AND partner_id = ?", vendorID, partnerID)
		if req.ProductID != nil {
			query = query.Where("product_id = ?", *req.ProductID)
		} else {
			query = query.Where("product_id IS NULL")
		}

		err := query.First(&conv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			conv = models.Conversation{
				VendorID:  vendorID,
				PartnerID: partnerID,
				ProductID: req.ProductID,
				Subject:   req.Subject,
			}
			err = tx.Create(&conv).Error
		}
		if err != nil {
			return fmt.Errorf("failed to open conversation: %w", err)
		}

		msg, err = s.append(tx, &conv, senderID, req.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &conv, msg)
	return &conv, nil
}

func (s *MessageService) PostMessage(ctx context.Context, conversationID, senderID uuid.UUID, req *PostMessageRequest) (*models.Message, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, fmt.Errorf("%w: message body is empty", ErrInvalidInput)
	}

	conv, err := s.conversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	var msg *models.Message
	err = database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		msg, err = s.append(tx, conv, senderID, req.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, conv, msg)
	return msg, nil
}

func (s *MessageService) ListConversations(ctx context.Context, accountID uuid.UUID, params utils.PaginationParams) ([]models.Conversation, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("vendor_id = ? OR partner_id = ?", accountID, accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	var conversations []models.Conversation
	err := utils.ApplyPagination(query.Order("last_message_at desc").Order("created_at desc"), params).
		Find(&conversations).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch conversations: %w", err)
	}
	return conversations, total, nil
}

// ListMessages returns a thread oldest first and marks the other side's
// messages as read.
func (s *MessageService) ListMessages(ctx context.Context, conversationID, accountID uuid.UUID, params utils.PaginationParams) ([]models.Message, int64, error) {
	conv, err := s.conversation(ctx, conversationID, accountID)
	if err != nil {
		return nil, 0, err
	}

	db := s.db.WithContext(ctx)
	query := db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []models.Message
	if err := utils.ApplyPagination(query.Order("created_at asc"), params).Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch messages: %w", err)
	}

	if err := db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conv.ID, accountID).
		Update("read_at", time.Now()).Error; err != nil {
		s.log.WithError(err).WithField("conversation_id", conv.ID).Warn("Failed to mark messages read")
	}

	return messages, total, nil
}

func (s *MessageService) append(tx *gorm.DB, conv *models.Conversation, senderID uuid.UUID, body string) (*models.Message, error) {
	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Body:           body,
	}
	if err := tx.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	at := msg.CreatedAt
	if err := tx.Model(conv).UpdateColumn("last_message_at", at).Error; err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	conv.LastMessageAt = &at
	return msg, nil
}

func (s *MessageService) notify(ctx context.Context, conv *models.Conversation, msg *models.Message) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.MessageReceived(ctx, conv, msg); err != nil {
		s.log.WithError(err).WithField("conversation_id", conv.ID).Warn("Failed to notify message recipient")
	}
}

func (s *MessageService) conversation(ctx context.Context, id, accountID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.db.WithContext(ctx).First(&conv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !conv.HasParticipant(accountID) {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrForbidden)
	}
	return &conv, nil
}

func (s *MessageService) account(db *gorm.DB, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &account, nil
}

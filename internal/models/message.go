// internal/models/message.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a stored thread between a vendor and a partner.
type Conversation struct {
	BaseModel
	VendorID      uuid.UUID  `json:"vendor_id" gorm:"type:uuid;not null;index"`
	PartnerID     uuid.UUID  `json:"partner_id" gorm:"type:uuid;not null;index"`
	ProductID     *uuid.UUID `json:"product_id" gorm:"type:uuid;index"`
	Subject       string     `json:"subject" gorm:"size:255"`
	LastMessageAt *time.Time `json:"last_message_at" gorm:"index"`

	// Relationships
	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

// HasParticipant reports whether the account takes part in the thread.
func (c *Conversation) HasParticipant(accountID uuid.UUID) bool {
	return c.VendorID == accountID || c.PartnerID == accountID
}

type Message struct {
	BaseModel
	ConversationID uuid.UUID  `json:"conversation_id" gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID  `json:"sender_id" gorm:"type:uuid;not null;index"`
	Body           string     `json:"body" gorm:"type:text;not null"`
	ReadAt         *time.Time `json:"read_at"`
}

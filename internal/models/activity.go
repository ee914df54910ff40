// internal/models/activity.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is one mutating API request. NewValues holds the decoded JSON
// body when there was one.
type AuditLog struct {
	BaseModel
	AccountID    *uuid.UUID `json:"account_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:150;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	StatusCode   int        `json:"status_code"`
	DurationMs   int64      `json:"duration_ms"`
	NewValues    JSONB      `json:"new_values"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
}

// Notification is an in-app message for one account. Related points at
// the application, partnership or conversation it is about.
type Notification struct {
	BaseModel
	RecipientID         uuid.UUID          `json:"recipient_id" gorm:"type:uuid;not null;index"`
	Type                string             `json:"type" gorm:"type:varchar(50);not null;index"`
	Title               string             `json:"title" gorm:"size:255;not null"`
	Message             string             `json:"message" gorm:"type:text;not null"`
	Status              NotificationStatus `json:"status" gorm:"type:varchar(20);default:'unread';index"`
	RelatedResourceType string             `json:"related_resource_type,omitempty" gorm:"size:50"`
	RelatedResourceID   *uuid.UUID         `json:"related_resource_id" gorm:"type:uuid"`
	ReadAt              *time.Time         `json:"read_at"`
}

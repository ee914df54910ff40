// internal/models/partnership.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Partnership is created when a vendor approves an application.
type Partnership struct {
	BaseModel
	ApplicationID  uuid.UUID         `json:"application_id" gorm:"type:uuid;not null;uniqueIndex"`
	ProductID      uuid.UUID         `json:"product_id" gorm:"type:uuid;not null;index"`
	VendorID       uuid.UUID         `json:"vendor_id" gorm:"type:uuid;not null;index"`
	PartnerID      uuid.UUID         `json:"partner_id" gorm:"type:uuid;not null;index"`
	Roles          StringArray       `json:"roles"`
	CommissionRate float64           `json:"commission_rate" gorm:"type:decimal(5,2);default:0"`
	Status         PartnershipStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	StartedAt      time.Time         `json:"started_at"`
	EndedAt        *time.Time        `json:"ended_at"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Partner *Account `json:"partner,omitempty" gorm:"foreignKey:PartnerID"`
}

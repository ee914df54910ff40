// internal/models/product.go
package models

import (
	"github.com/google/uuid"
)

type Product struct {
	BaseModel
	VendorID         uuid.UUID     `json:"vendor_id" gorm:"type:uuid;not null;index"`
	Title            string        `json:"title" gorm:"size:255;not null"`
	Description      string        `json:"description" gorm:"type:text"`
	Category         string        `json:"category" gorm:"size:100;index"`
	Tags             StringArray   `json:"tags"`
	PartnershipTypes StringArray   `json:"partnership_types"`
	CommissionRate   float64       `json:"commission_rate" gorm:"type:decimal(5,2);default:0"`
	Price            float64       `json:"price" gorm:"type:decimal(10,2);default:0"`
	Images           StringArray   `json:"images"`
	Videos           StringArray   `json:"videos"`
	Requirements     string        `json:"requirements" gorm:"type:text"`
	Status           ProductStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	ViewCount        int64         `json:"view_count" gorm:"default:0"`
	ApplicationCount int64         `json:"application_count" gorm:"default:0"`

	// Relationships
	Vendor *Account `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
}

// OffersPartnership reports whether partners can apply for the given type.
func (p *Product) OffersPartnership(kind string) bool {
	for _, t := range p.PartnershipTypes {
		if t == kind {
			return true
		}
	}
	return false
}

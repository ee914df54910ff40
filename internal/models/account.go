// internal/models/account.go
package models

import (
	"time"
)

// Account mirrors an identity issued by the external auth provider. The
// primary key is the token subject.
type Account struct {
	BaseModel
	Email       string        `json:"email" gorm:"uniqueIndex;size:255;not null"`
	DisplayName string        `json:"display_name" gorm:"size:100"`
	AccountType AccountType   `json:"account_type" gorm:"type:varchar(20);not null;index"`
	Status      AccountStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	CompanyName string        `json:"company_name" gorm:"size:255"`
	Website     string        `json:"website" gorm:"size:255"`
	Country     string        `json:"country" gorm:"size:100"`
	Bio         string        `json:"bio" gorm:"type:text"`
	ProfileData JSONB         `json:"profile_data"`
	LastSeenAt  *time.Time    `json:"last_seen_at"`

	// Relationships
	Products     []Product            `json:"products,omitempty" gorm:"foreignKey:VendorID"`
	Applications []PartnerApplication `json:"applications,omitempty" gorm:"foreignKey:ApplicantID"`
}

func (a *Account) IsVendor() bool { return a.AccountType == AccountTypeVendor }

func (a *Account) IsAdmin() bool { return a.AccountType == AccountTypeAdmin }

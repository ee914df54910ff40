// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the id in Go so every dialect gets the same uuid format.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}

	return json.Unmarshal(bytes, j)
}

func (JSONB) GormDataType() string { return "jsonb" }

func (JSONB) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

// StringArray is a text[] column on postgres and a text column holding the
// same lib/pq array literal on other dialects.
type StringArray pq.StringArray

func (a StringArray) Value() (driver.Value, error) {
	return pq.StringArray(a).Value()
}

func (a *StringArray) Scan(src interface{}) error {
	return (*pq.StringArray)(a).Scan(src)
}

func (StringArray) GormDataType() string { return "text[]" }

func (StringArray) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Int64Array is the bigint[] counterpart of StringArray.
type Int64Array pq.Int64Array

func (a Int64Array) Value() (driver.Value, error) {
	return pq.Int64Array(a).Value()
}

func (a *Int64Array) Scan(src interface{}) error {
	return (*pq.Int64Array)(a).Scan(src)
}

func (Int64Array) GormDataType() string { return "bigint[]" }

func (Int64Array) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "bigint[]"
	}
	return "text"
}

// Enums
type AccountType string

const (
	AccountTypeVendor  AccountType = "vendor"
	AccountTypePartner AccountType = "partner"
	AccountTypeAdmin   AccountType = "admin"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
)

type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

type ApplicationStatus string

const (
	ApplicationStatusDraft     ApplicationStatus = "draft"
	ApplicationStatusCompleted ApplicationStatus = "completed"
	ApplicationStatusApproved  ApplicationStatus = "approved"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
)

type PartnershipStatus string

const (
	PartnershipStatusActive PartnershipStatus = "active"
	PartnershipStatusEnded  PartnershipStatus = "ended"
)

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)

// Partnership types a product can offer. They share tokens with the
// partner role catalog of the wizard.
const (
	PartnershipTypeReseller    = "reseller"
	PartnershipTypeAffiliate   = "affiliate"
	PartnershipTypeWhiteLabel  = "white_label"
	PartnershipTypeReferral    = "referral"
	PartnershipTypeIntegration = "integration"
	PartnershipTypeDistributor = "distributor"
)

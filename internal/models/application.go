// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// PartnerApplication is the record the onboarding wizard builds step by
// step. ProductID is empty for profile and vendor onboarding flows.
type PartnerApplication struct {
	BaseModel
	ApplicantID uuid.UUID  `json:"applicant_id" gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID `json:"product_id" gorm:"type:uuid;index"`
	Flavor      string     `json:"flavor" gorm:"size:50;not null;index"`

	Name          string `json:"name" gorm:"size:255"`
	Email         string `json:"email" gorm:"size:255"`
	Phone         string `json:"phone" gorm:"size:50"`
	CompanyName   string `json:"company_name" gorm:"size:255"`
	Website       string `json:"website" gorm:"size:255"`
	Country       string `json:"country" gorm:"size:100"`
	WhyInterested string `json:"why_interested" gorm:"type:text"`

	YearsExperience int     `json:"years_experience" gorm:"default:0"`
	TeamSize        int     `json:"team_size" gorm:"default:0"`
	RevenueGoal     float64 `json:"revenue_goal" gorm:"type:decimal(15,2);default:0"`
	EntityType      string  `json:"entity_type" gorm:"size:20"`

	PartnerRoles      StringArray `json:"partner_roles"`
	MarketingChannels StringArray `json:"marketing_channels"`
	PartnershipGoals  StringArray `json:"partnership_goals"`

	CurrentStep    int               `json:"current_step" gorm:"default:1"`
	CompletedSteps Int64Array        `json:"completed_steps"`
	Status         ApplicationStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	SubmittedAt    *time.Time        `json:"submitted_at"`
	ReviewedBy     *uuid.UUID        `json:"reviewed_by" gorm:"type:uuid"`
	ReviewedAt     *time.Time        `json:"reviewed_at"`
	ReviewNotes    string            `json:"review_notes,omitempty" gorm:"type:text"`

	// Relationships
	Applicant *Account `json:"applicant,omitempty" gorm:"foreignKey:ApplicantID"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Reviewable reports whether a vendor can still approve or reject it.
func (a *PartnerApplication) Reviewable() bool {
	return a.Status == ApplicationStatusCompleted
}

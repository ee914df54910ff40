// internal/services/account_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
	"github.com/partnerlink/partnerlink-backend/internal/wizard"
)

// AccountService mirrors identities from the auth provider into local
// account rows and manages profiles.
type AccountService struct {
	db    *gorm.DB
	known sync.Map // uuid.UUID -> struct{}
}

type UpdateProfileRequest struct {
	DisplayName string                 `json:"display_name,omitempty" validate:"omitempty,min=2,max=100"`
	CompanyName string                 `json:"company_name,omitempty" validate:"omitempty,max=255"`
	Website     string                 `json:"website,omitempty" validate:"omitempty,url"`
	Country     string                 `json:"country,omitempty" validate:"omitempty,max=100"`
	Bio         string                 `json:"bio,omitempty" validate:"omitempty,max=2000"`
	ProfileData map[string]interface{} `json:"profile_data,omitempty"`
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// Touch makes sure the session's account row exists. Accounts seen before
// by this process are not looked up again.
func (s *AccountService) Touch(ctx context.Context, session wizard.SessionContext) error {
	id, err := uuid.Parse(session.UserID)
	if err != nil {
		return fmt.Errorf("%w: session user id", ErrInvalidInput)
	}
	if _, ok := s.known.Load(id); ok {
		return nil
	}
	_, err = s.EnsureAccount(ctx, session)
	return err
}

// EnsureAccount returns the session's account, creating it on first sight.
func (s *AccountService) EnsureAccount(ctx context.Context, session wizard.SessionContext) (*models.Account, error) {
	id, err := uuid.Parse(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: session user id", ErrInvalidInput)
	}

	db := s.db.WithContext(ctx)
	now := time.Now()

	var account models.Account
	err = db.First(&account, "id = ?", id).Error
	switch {
	case err == nil:
		if err := db.Model(&account).UpdateColumn("last_seen_at", now).Error; err != nil {
			return nil, fmt.Errorf("failed to update account: %w", err)
		}
		account.LastSeenAt = &now
	case errors.Is(err, gorm.ErrRecordNotFound):
		email := strings.ToLower(strings.TrimSpace(session.Email))
		if email == "" {
			return nil, fmt.Errorf("%w: session has no email", ErrInvalidInput)
		}

		var taken int64
		if err := db.Model(&models.Account{}).Where("email = ?", email).Count(&taken).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if taken > 0 {
			return nil, fmt.Errorf("email %s is linked to another account: %w", email, ErrConflict)
		}

		account = models.Account{
			BaseModel:   models.BaseModel{ID: id},
			Email:       email,
			DisplayName: session.Name,
			AccountType: accountType(session.AccountType),
			Status:      models.AccountStatusActive,
			LastSeenAt:  &now,
		}
		if err := db.Create(&account).Error; err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
	default:
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.known.Store(id, struct{}{})
	return &account, nil
}

func (s *AccountService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &account, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*models.Account, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	account, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != "" {
		account.DisplayName = req.DisplayName
	}
	if req.CompanyName != "" {
		account.CompanyName = req.CompanyName
	}
	if req.Website != "" {
		account.Website = req.Website
	}
	if req.Country != "" {
		account.Country = req.Country
	}
	if req.Bio != "" {
		account.Bio = req.Bio
	}
	if req.ProfileData != nil {
		if account.ProfileData == nil {
			account.ProfileData = models.JSONB{}
		}
		for k, v := range req.ProfileData {
			account.ProfileData[k] = v
		}
	}

	if err := s.db.WithContext(ctx).Save(account).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return account, nil
}

func accountType(raw string) models.AccountType {
	switch models.AccountType(raw) {
	case models.AccountTypeVendor, models.AccountTypeAdmin:
		return models.AccountType(raw)
	}
	return models.AccountTypePartner
}

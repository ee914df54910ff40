// internal/services/application_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/database"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
	"github.com/partnerlink/partnerlink-backend/internal/wizard"
)

// ApplicationService covers everything that happens to an application
// after the wizard has submitted it.
type ApplicationService struct {
	db            *gorm.DB
	notifications *NotificationService
	log           logrus.FieldLogger
}

type ApproveApplicationRequest struct {
	Notes          string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
	CommissionRate *float64 `json:"commission_rate,omitempty" validate:"omitempty,min=0,max=100"`
}

type RejectApplicationRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=2000"`
}

type ApplicationSearchParams struct {
	utils.PaginationParams
	Status    *models.ApplicationStatus `json:"status,omitempty"`
	ProductID *uuid.UUID                `json:"product_id,omitempty"`
}

// Reviewer is the account acting on an application.
type Reviewer struct {
	ID      uuid.UUID
	IsAdmin bool
}

func NewApplicationService(db *gorm.DB, notifications *NotificationService) *ApplicationService {
	return &ApplicationService{
		db:            db,
		notifications: notifications,
		log:           logrus.WithField("component", "applications"),
	}
}

var applicationSortFields = []string{"created_at", "updated_at", "submitted_at", "status"}

func (s *ApplicationService) ListMine(ctx context.Context, applicantID uuid.UUID, params ApplicationSearchParams) ([]models.PartnerApplication, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.PartnerApplication{}).
		Where("applicant_id = ?", applicantID)
	return s.list(query.Preload("Product"), params)
}

// ListIncoming returns submitted applications to the vendor's products.
// Drafts are never visible to vendors.
func (s *ApplicationService) ListIncoming(ctx context.Context, vendorID uuid.UUID, params ApplicationSearchParams) ([]models.PartnerApplication, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.PartnerApplication{}).
		Where("product_id IN (?)", s.db.Model(&models.Product{}).Select("id").Where("vendor_id = ?", vendorID)).
		Where("status <> ?", models.ApplicationStatusDraft)
	return s.list(query.Preload("Applicant").Preload("Product"), params)
}

func (s *ApplicationService) list(query *gorm.DB, params ApplicationSearchParams) ([]models.PartnerApplication, int64, error) {
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	query = utils.ApplySort(query, params.PaginationParams, applicationSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var applications []models.PartnerApplication
	if err := query.Find(&applications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch applications: %w", err)
	}
	return applications, total, nil
}

// Get returns an application to its applicant, the vendor of its product
// (once submitted) or an admin.
func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID, viewer Reviewer) (*models.PartnerApplication, error) {
	app, err := s.find(s.db.WithContext(ctx).Preload("Applicant").Preload("Product"), id)
	if err != nil {
		return nil, err
	}

	if app.ApplicantID == viewer.ID || viewer.IsAdmin {
		return app, nil
	}
	if app.Product != nil && app.Product.VendorID == viewer.ID && app.Status != models.ApplicationStatusDraft {
		return app, nil
	}
	return nil, fmt.Errorf("application %s: %w", id, ErrForbidden)
}

// Submitted runs the side effects of a wizard submission.
func (s *ApplicationService) Submitted(ctx context.Context, id uuid.UUID) error {
	app, err := s.find(s.db.WithContext(ctx), id)
	if err != nil {
		return err
	}

	if app.ProductID != nil {
		if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", *app.ProductID).
			UpdateColumn("application_count", gorm.Expr("application_count + 1")).Error; err != nil {
			s.log.WithError(err).WithField("product_id", *app.ProductID).Warn("Failed to increment application count")
		}
	}

	return s.notifications.ApplicationSubmitted(ctx, app)
}

// Approve accepts a submitted application and opens the partnership.
func (s *ApplicationService) Approve(ctx context.Context, id uuid.UUID, reviewer Reviewer, req *ApproveApplicationRequest) (*models.PartnerApplication, *models.Partnership, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}

	var (
		app         *models.PartnerApplication
		partnership *models.Partnership
	)
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var err error
		app, err = s.reviewable(tx, id, reviewer)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := s.transition(tx, app, models.ApplicationStatusApproved, reviewer.ID, req.Notes, now); err != nil {
			return err
		}

		rate := app.Product.CommissionRate
		if req.CommissionRate != nil {
			rate = *req.CommissionRate
		}
		partnership = &models.Partnership{
			ApplicationID:  app.ID,
			ProductID:      app.Product.ID,
			VendorID:       app.Product.VendorID,
			PartnerID:      app.ApplicantID,
			Roles:          grantedRoles(app.PartnerRoles, app.Product),
			CommissionRate: rate,
			Status:         models.PartnershipStatusActive,
			StartedAt:      now,
		}
		if err := tx.Create(partnership).Error; err != nil {
			return fmt.Errorf("failed to create partnership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.notifications.ApplicationReviewed(ctx, app, app.Product.Title); err != nil {
		s.log.WithError(err).WithField("application_id", id).Warn("Failed to notify applicant")
	}
	return app, partnership, nil
}

func (s *ApplicationService) Reject(ctx context.Context, id uuid.UUID, reviewer Reviewer, req *RejectApplicationRequest) (*models.PartnerApplication, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var app *models.PartnerApplication
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var err error
		app, err = s.reviewable(tx, id, reviewer)
		if err != nil {
			return err
		}
		return s.transition(tx, app, models.ApplicationStatusRejected, reviewer.ID, req.Reason, time.Now())
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifications.ApplicationReviewed(ctx, app, app.Product.Title); err != nil {
		s.log.WithError(err).WithField("application_id", id).Warn("Failed to notify applicant")
	}
	return app, nil
}

func (s *ApplicationService) reviewable(tx *gorm.DB, id uuid.UUID, reviewer Reviewer) (*models.PartnerApplication, error) {
	app, err := s.find(tx.Preload("Product"), id)
	if err != nil {
		return nil, err
	}
	if app.Product == nil {
		return nil, fmt.Errorf("application %s does not target a product: %w", id, ErrInvalidState)
	}
	if app.Product.VendorID != reviewer.ID && !reviewer.IsAdmin {
		return nil, fmt.Errorf("application %s: %w", id, ErrForbidden)
	}
	if !app.Reviewable() {
		return nil, fmt.Errorf("application %s is %s: %w", id, app.Status, ErrInvalidState)
	}
	return app, nil
}

// transition moves a completed application to a review outcome. The status
// guard in the update keeps two concurrent reviews from both succeeding.
func (s *ApplicationService) transition(tx *gorm.DB, app *models.PartnerApplication, status models.ApplicationStatus, reviewerID uuid.UUID, notes string, at time.Time) error {
	result := tx.Model(&models.PartnerApplication{}).
		Where("id = ? AND status = ?", app.ID, models.ApplicationStatusCompleted).
		Updates(map[string]interface{}{
			"status":       status,
			"reviewed_by":  reviewerID,
			"reviewed_at":  at,
			"review_notes": notes,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update application: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("application %s was reviewed concurrently: %w", app.ID, ErrConflict)
	}

	app.Status = status
	app.ReviewedBy = &reviewerID
	app.ReviewedAt = &at
	app.ReviewNotes = notes
	return nil
}

// grantedRoles keeps the requested roles the product offers. When none
// overlap every requested role is granted.
func grantedRoles(requested models.StringArray, product *models.Product) models.StringArray {
	granted := models.StringArray{}
	for _, role := range requested {
		if product.OffersPartnership(role) {
			granted = append(granted, role)
		}
	}
	if len(granted) == 0 {
		return append(models.StringArray{}, requested...)
	}
	return granted
}

// LoadDraft returns an open draft of the applicant in wizard form.
func (s *ApplicationService) LoadDraft(ctx context.Context, id, applicantID uuid.UUID) (wizard.Draft, error) {
	app, err := s.find(s.db.WithContext(ctx), id)
	if err != nil {
		return wizard.Draft{}, err
	}
	if app.ApplicantID != applicantID {
		return wizard.Draft{}, fmt.Errorf("application %s: %w", id, ErrForbidden)
	}
	if app.Status != models.ApplicationStatusDraft {
		return wizard.Draft{}, fmt.Errorf("application %s: %w", id, wizard.ErrDraftSubmitted)
	}
	return DraftFromModel(app), nil
}

// DraftFromModel converts a stored application into a wizard draft.
func DraftFromModel(app *models.PartnerApplication) wizard.Draft {
	d := wizard.Draft{
		ID:                app.ID.String(),
		ApplicantID:       app.ApplicantID.String(),
		Flavor:            app.Flavor,
		Name:              app.Name,
		Email:             app.Email,
		Phone:             app.Phone,
		CompanyName:       app.CompanyName,
		Website:           app.Website,
		Country:           app.Country,
		WhyInterested:     app.WhyInterested,
		YearsExperience:   app.YearsExperience,
		TeamSize:          app.TeamSize,
		RevenueGoal:       app.RevenueGoal,
		EntityType:        app.EntityType,
		PartnerRoles:      append([]string(nil), app.PartnerRoles...),
		MarketingChannels: append([]string(nil), app.MarketingChannels...),
		PartnershipGoals:  append([]string(nil), app.PartnershipGoals...),
		CurrentStep:       app.CurrentStep,
		Status:            wizard.Status(app.Status),
		CreatedAt:         app.CreatedAt,
		UpdatedAt:         app.UpdatedAt,
	}
	if app.ProductID != nil {
		d.ProductID = app.ProductID.String()
	}
	for _, step := range app.CompletedSteps {
		d.CompletedSteps = append(d.CompletedSteps, int(step))
	}
	return d
}

func (s *ApplicationService) ListPartnerships(ctx context.Context, accountID uuid.UUID, params utils.PaginationParams) ([]models.Partnership, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Partnership{}).
		Where("vendor_id = ? OR partner_id = ?", accountID, accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count partnerships: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "started_at", "status"})
	query = utils.ApplyPagination(query, params)

	var partnerships []models.Partnership
	if err := query.Preload("Product").Preload("Partner").Find(&partnerships).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch partnerships: %w", err)
	}
	return partnerships, total, nil
}

// EndPartnership lets either side close an active partnership.
func (s *ApplicationService) EndPartnership(ctx context.Context, id, accountID uuid.UUID) (*models.Partnership, error) {
	var partnership models.Partnership
	if err := s.db.WithContext(ctx).First(&partnership, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("partnership %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if partnership.VendorID != accountID && partnership.PartnerID != accountID {
		return nil, fmt.Errorf("partnership %s: %w", id, ErrForbidden)
	}
	if partnership.Status != models.PartnershipStatusActive {
		return nil, fmt.Errorf("partnership %s already ended: %w", id, ErrInvalidState)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&partnership).Updates(map[string]interface{}{
		"status":   models.PartnershipStatusEnded,
		"ended_at": now,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to end partnership: %w", err)
	}
	partnership.Status = models.PartnershipStatusEnded
	partnership.EndedAt = &now
	return &partnership, nil
}

func (s *ApplicationService) find(query *gorm.DB, id uuid.UUID) (*models.PartnerApplication, error) {
	var app models.PartnerApplication
	if err := query.First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &app, nil
}

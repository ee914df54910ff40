// internal/services/application_service_test.go
package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/partnerlink/partnerlink-backend/internal/database"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
	"github.com/partnerlink/partnerlink-backend/internal/wizard"
)

type ApplicationServiceTestSuite struct {
	suite.Suite
	env     *env
	ctx     context.Context
	product models.Product
	appID   uuid.UUID
}

func (s *ApplicationServiceTestSuite) SetupTest() {
	s.env = newEnv(s.T())
	s.ctx = context.Background()
	s.product = s.env.product(s.T(), "Acme CRM Cloud")
	s.appID = s.env.submitApplication(s.T(), s.product.ID, "reseller", "white_label")
}

func (s *ApplicationServiceTestSuite) TestApproveOpensPartnership() {
	rate := 25.0
	app, partnership, err := s.env.applications.Approve(s.ctx, s.appID, vendorReviewer(), &ApproveApplicationRequest{
		Notes:          "Welcome",
		CommissionRate: &rate,
	})
	s.Require().NoError(err)

	s.Equal(models.ApplicationStatusApproved, app.Status)
	s.Equal(database.SeedVendorID, *app.ReviewedBy)
	s.Equal("Welcome", app.ReviewNotes)

	s.Equal(s.appID, partnership.ApplicationID)
	s.Equal(database.SeedPartnerID, partnership.PartnerID)
	s.Equal(database.SeedVendorID, partnership.VendorID)
	s.Equal(models.StringArray{"reseller"}, partnership.Roles, "roles the product does not offer are dropped")
	s.Equal(25.0, partnership.CommissionRate)
	s.Equal(models.PartnershipStatusActive, partnership.Status)

	var stored models.PartnerApplication
	s.Require().NoError(s.env.db.First(&stored, "id = ?", s.appID).Error)
	s.Equal(models.ApplicationStatusApproved, stored.Status)

	var notification models.Notification
	s.Require().NoError(s.env.db.First(&notification, "recipient_id = ? AND type = ?",
		database.SeedPartnerID, NotificationApplicationApproved).Error)
}

func (s *ApplicationServiceTestSuite) TestApproveDefaultsToProductCommission() {
	_, partnership, err := s.env.applications.Approve(s.ctx, s.appID, vendorReviewer(), &ApproveApplicationRequest{})
	s.Require().NoError(err)
	s.Equal(s.product.CommissionRate, partnership.CommissionRate)
}

func (s *ApplicationServiceTestSuite) TestReviewIsOneShot() {
	_, _, err := s.env.applications.Approve(s.ctx, s.appID, vendorReviewer(), &ApproveApplicationRequest{})
	s.Require().NoError(err)

	_, _, err = s.env.applications.Approve(s.ctx, s.appID, vendorReviewer(), &ApproveApplicationRequest{})
	s.ErrorIs(err, ErrInvalidState)
	_, err = s.env.applications.Reject(s.ctx, s.appID, vendorReviewer(), &RejectApplicationRequest{Reason: "changed my mind"})
	s.ErrorIs(err, ErrInvalidState)

	var count int64
	s.env.db.Model(&models.Partnership{}).Count(&count)
	s.EqualValues(1, count)
}

func (s *ApplicationServiceTestSuite) TestConcurrentApprovalsCreateOnePartnership() {
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = s.env.applications.Approve(s.ctx, s.appID, vendorReviewer(), &ApproveApplicationRequest{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	s.Equal(1, succeeded)

	var count int64
	s.env.db.Model(&models.Partnership{}).Count(&count)
	s.EqualValues(1, count)
}

func (s *ApplicationServiceTestSuite) TestRejectRequiresReasonAndOwnership() {
	_, err := s.env.applications.Reject(s.ctx, s.appID, vendorReviewer(), &RejectApplicationRequest{})
	s.Require().Error(err)
	s.NotEmpty(utils.GetValidationErrors(err))

	_, err = s.env.applications.Reject(s.ctx, s.appID, Reviewer{ID: uuid.New()}, &RejectApplicationRequest{Reason: "not a fit"})
	s.ErrorIs(err, ErrForbidden)

	app, err := s.env.applications.Reject(s.ctx, s.appID, Reviewer{ID: database.SeedAdminID, IsAdmin: true}, &RejectApplicationRequest{Reason: "not a fit"})
	s.Require().NoError(err)
	s.Equal(models.ApplicationStatusRejected, app.Status)
	s.Equal("not a fit", app.ReviewNotes)

	var mailed bool
	for _, m := range s.env.mailer.Sent() {
		if m.To == "partner@northwind.test" {
			mailed = true
			s.Contains(m.Body, "not a fit")
		}
	}
	s.True(mailed)
}

func (s *ApplicationServiceTestSuite) TestVisibility() {
	_, err := s.env.applications.Get(s.ctx, s.appID, Reviewer{ID: database.SeedPartnerID})
	s.NoError(err)
	_, err = s.env.applications.Get(s.ctx, s.appID, vendorReviewer())
	s.NoError(err)
	_, err = s.env.applications.Get(s.ctx, s.appID, Reviewer{ID: uuid.New()})
	s.ErrorIs(err, ErrForbidden)
	_, err = s.env.applications.Get(s.ctx, uuid.New(), vendorReviewer())
	s.ErrorIs(err, ErrNotFound)
}

func (s *ApplicationServiceTestSuite) TestListMineAndIncoming() {
	other := s.env.product(s.T(), "Acme Analytics Embedded")
	state, err := s.env.wizards.Start(s.ctx, partnerSession(), &StartWizardRequest{Flavor: "partner_application", ProductID: &other.ID})
	s.Require().NoError(err)
	_, err = s.env.wizards.Next(s.ctx, state.SessionID, partnerSession().UserID)
	s.Require().NoError(err)

	params := ApplicationSearchParams{PaginationParams: utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}}

	mine, total, err := s.env.applications.ListMine(s.ctx, database.SeedPartnerID, params)
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Len(mine, 2)

	incoming, total, err := s.env.applications.ListIncoming(s.ctx, database.SeedVendorID, params)
	s.Require().NoError(err)
	s.EqualValues(1, total, "drafts are hidden from vendors")
	s.Equal(s.appID, incoming[0].ID)
	s.Require().NotNil(incoming[0].Applicant)

	status := models.ApplicationStatusDraft
	params.Status = &status
	drafts, _, err := s.env.applications.ListMine(s.ctx, database.SeedPartnerID, params)
	s.Require().NoError(err)
	s.Len(drafts, 1)
}

func (s *ApplicationServiceTestSuite) TestLoadDraftRejectsSubmitted() {
	_, err := s.env.applications.LoadDraft(s.ctx, s.appID, database.SeedPartnerID)
	s.ErrorIs(err, wizard.ErrDraftSubmitted)
}

func (s *ApplicationServiceTestSuite) TestPartnershipsListAndEnd() {
	_, partnership, err := s.env.applications.Approve(s.ctx, s.appID, vendorReviewer(), &ApproveApplicationRequest{})
	s.Require().NoError(err)

	params := utils.PaginationParams{Page: 1, Limit: 10, Sort: "created_at", Order: "desc"}
	for _, id := range []uuid.UUID{database.SeedVendorID, database.SeedPartnerID} {
		list, total, err := s.env.applications.ListPartnerships(s.ctx, id, params)
		s.Require().NoError(err)
		s.EqualValues(1, total)
		s.Equal(partnership.ID, list[0].ID)
	}

	_, err = s.env.applications.EndPartnership(s.ctx, partnership.ID, uuid.New())
	s.ErrorIs(err, ErrForbidden)

	ended, err := s.env.applications.EndPartnership(s.ctx, partnership.ID, database.SeedPartnerID)
	s.Require().NoError(err)
	s.Equal(models.PartnershipStatusEnded, ended.Status)
	s.NotNil(ended.EndedAt)

	_, err = s.env.applications.EndPartnership(s.ctx, partnership.ID, database.SeedVendorID)
	s.ErrorIs(err, ErrInvalidState)
}

func TestApplicationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceTestSuite))
}

func TestDraftFromModel(t *testing.T) {
	productID := uuid.New()
	app := &models.PartnerApplication{
		BaseModel:      models.BaseModel{ID: uuid.New()},
		ApplicantID:    uuid.New(),
		ProductID:      &productID,
		Flavor:         "partner_application",
		Name:           "A",
		TeamSize:       3,
		PartnerRoles:   models.StringArray{"affiliate"},
		CurrentStep:    2,
		CompletedSteps: models.Int64Array{1, 2},
		Status:         models.ApplicationStatusDraft,
	}

	d := DraftFromModel(app)
	assert.Equal(t, app.ID.String(), d.ID)
	assert.Equal(t, productID.String(), d.ProductID)
	assert.Equal(t, 3, d.TeamSize)
	assert.Equal(t, []string{"affiliate"}, d.PartnerRoles)
	assert.Equal(t, []int{1, 2}, d.CompletedSteps)
	assert.Equal(t, wizard.StatusDraft, d.Status)

	app.PartnerRoles[0] = "reseller"
	require.Equal(t, []string{"affiliate"}, d.PartnerRoles)
}

func TestGrantedRoles(t *testing.T) {
	product := &models.Product{PartnershipTypes: models.StringArray{"reseller", "referral"}}

	assert.Equal(t, models.StringArray{"referral"}, grantedRoles(models.StringArray{"affiliate", "referral"}, product))
	assert.Equal(t, models.StringArray{"affiliate"}, grantedRoles(models.StringArray{"affiliate"}, product))
}

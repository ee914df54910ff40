// internal/services/dashboard_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/models"
)

type DashboardService struct {
	db *gorm.DB
}

type VendorStats struct {
	ActiveProducts       int64 `json:"active_products"`
	DraftProducts        int64 `json:"draft_products"`
	PendingApplications  int64 `json:"pending_applications"`
	ApprovedApplications int64 `json:"approved_applications"`
	ActivePartnerships   int64 `json:"active_partnerships"`
	TotalViews           int64 `json:"total_views"`
}

type PartnerStats struct {
	OpenDrafts           int64 `json:"open_drafts"`
	PendingApplications  int64 `json:"pending_applications"`
	ApprovedApplications int64 `json:"approved_applications"`
	RejectedApplications int64 `json:"rejected_applications"`
	ActivePartnerships   int64 `json:"active_partnerships"`
}

type Dashboard struct {
	AccountType         models.AccountType `json:"account_type"`
	UnreadNotifications int64              `json:"unread_notifications"`
	Conversations       int64              `json:"conversations"`
	Vendor              *VendorStats       `json:"vendor,omitempty"`
	Partner             *PartnerStats      `json:"partner,omitempty"`
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// count is one independent dashboard query.
type count struct {
	model interface{}
	query string
	args  []interface{}
	into  *int64
}

// Get computes the dashboard of an account. Counters are independent
// queries and run concurrently.
func (s *DashboardService) Get(ctx context.Context, accountID uuid.UUID, accountType models.AccountType) (*Dashboard, error) {
	d := &Dashboard{AccountType: accountType}

	counts := []count{
		{&models.Notification{}, "recipient_id = ? AND status = ?", []interface{}{accountID, models.NotificationStatusUnread}, &d.UnreadNotifications},
		{&models.Conversation{}, "vendor_id = ? OR partner_id = ?", []interface{}{accountID, accountID}, &d.Conversations},
	}

	var totalViews *int64
	switch accountType {
	case models.AccountTypeVendor:
		v := &VendorStats{}
		d.Vendor = v
		totalViews = &v.TotalViews
		vendorProducts := func() *gorm.DB {
			return s.db.Model(&models.Product{}).Select("id").Where("vendor_id = ?", accountID)
		}
		counts = append(counts,
			count{&models.Product{}, "vendor_id = ? AND status = ?", []interface{}{accountID, models.ProductStatusActive}, &v.ActiveProducts},
			count{&models.Product{}, "vendor_id = ? AND status = ?", []interface{}{accountID, models.ProductStatusDraft}, &v.DraftProducts},
			count{&models.PartnerApplication{}, "product_id IN (?) AND status = ?", []interface{}{vendorProducts(), models.ApplicationStatusCompleted}, &v.PendingApplications},
			count{&models.PartnerApplication{}, "product_id IN (?) AND status = ?", []interface{}{vendorProducts(), models.ApplicationStatusApproved}, &v.ApprovedApplications},
			count{&models.Partnership{}, "vendor_id = ? AND status = ?", []interface{}{accountID, models.PartnershipStatusActive}, &v.ActivePartnerships},
		)
	default:
		p := &PartnerStats{}
		d.Partner = p
		counts = append(counts,
			count{&models.PartnerApplication{}, "applicant_id = ? AND status = ?", []interface{}{accountID, models.ApplicationStatusDraft}, &p.OpenDrafts},
			count{&models.PartnerApplication{}, "applicant_id = ? AND status = ?", []interface{}{accountID, models.ApplicationStatusCompleted}, &p.PendingApplications},
			count{&models.PartnerApplication{}, "applicant_id = ? AND status = ?", []interface{}{accountID, models.ApplicationStatusApproved}, &p.ApprovedApplications},
			count{&models.PartnerApplication{}, "applicant_id = ? AND status = ?", []interface{}{accountID, models.ApplicationStatusRejected}, &p.RejectedApplications},
			count{&models.Partnership{}, "partner_id = ? AND status = ?", []interface{}{accountID, models.PartnershipStatusActive}, &p.ActivePartnerships},
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		c := c
		g.Go(func() error {
			if err := s.db.WithContext(gctx).Model(c.model).Where(c.query, c.args...).Count(c.into).Error; err != nil {
				return fmt.Errorf("dashboard count failed: %w", err)
			}
			return nil
		})
	}
	if totalViews != nil {
		g.Go(func() error {
			var sum struct{ Total int64 }
			if err := s.db.WithContext(gctx).Model(&models.Product{}).
				Select("COALESCE(SUM(view_count), 0) AS total").
				Where("vendor_id = ?", accountID).
				Scan(&sum).Error; err != nil {
				return fmt.Errorf("dashboard views failed: %w", err)
			}
			*totalViews = sum.Total
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// internal/database/seed.go
package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/models"
)

// Well-known ids of the seeded accounts, so partnerctl can mint tokens for them.
var (
	SeedAdminID   = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	SeedVendorID  = uuid.MustParse("00000000-0000-4000-8000-000000000002")
	SeedPartnerID = uuid.MustParse("00000000-0000-4000-8000-000000000003")
)

// SeedInitialData creates demo accounts and a small active catalog. It is
// idempotent: existing rows are left alone.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	accounts := []models.Account{
		{
			BaseModel:   models.BaseModel{ID: SeedAdminID},
			Email:       "admin@partnerlink.io",
			DisplayName: "Platform Admin",
			AccountType: models.AccountTypeAdmin,
			Status:      models.AccountStatusActive,
		},
		{
			BaseModel:   models.BaseModel{ID: SeedVendorID},
			Email:       "vendor@acme.test",
			DisplayName: "Acme Software",
			AccountType: models.AccountTypeVendor,
			Status:      models.AccountStatusActive,
			CompanyName: "Acme Software Inc.",
			Website:     "https://acme.test",
			Country:     "US",
		},
		{
			BaseModel:   models.BaseModel{ID: SeedPartnerID},
			Email:       "partner@northwind.test",
			DisplayName: "Northwind Partners",
			AccountType: models.AccountTypePartner,
			Status:      models.AccountStatusActive,
			CompanyName: "Northwind Partners Ltd.",
			Country:     "GB",
		},
	}

	for i := range accounts {
		if err := createIfMissing(db, &models.Account{}, &accounts[i], "email = ?", accounts[i].Email); err != nil {
			return fmt.Errorf("failed to seed account %s: %w", accounts[i].Email, err)
		}
	}

	products := []models.Product{
		{
			VendorID:         SeedVendorID,
			Title:            "Acme CRM Cloud",
			Description:      "Customer relationship management for growing sales teams.",
			Category:         "crm",
			Tags:             models.StringArray{"saas", "sales", "b2b"},
			PartnershipTypes: models.StringArray{models.PartnershipTypeReseller, models.PartnershipTypeAffiliate, models.PartnershipTypeReferral},
			CommissionRate:   20,
			Price:            49,
			Status:           models.ProductStatusActive,
		},
		{
			VendorID:         SeedVendorID,
			Title:            "Acme Analytics Embedded",
			Description:      "White-label dashboards you can ship inside your own product.",
			Category:         "analytics",
			Tags:             models.StringArray{"saas", "dashboards", "embedded"},
			PartnershipTypes: models.StringArray{models.PartnershipTypeWhiteLabel, models.PartnershipTypeIntegration},
			CommissionRate:   30,
			Price:            199,
			Status:           models.ProductStatusActive,
		},
		{
			VendorID:         SeedVendorID,
			Title:            "Acme Field Kit",
			Description:      "Rugged tablets bundled with offline inventory software.",
			Category:         "hardware",
			Tags:             models.StringArray{"hardware", "inventory"},
			PartnershipTypes: models.StringArray{models.PartnershipTypeDistributor, models.PartnershipTypeReseller},
			CommissionRate:   12.5,
			Price:            899,
			Status:           models.ProductStatusActive,
		},
	}

	for i := range products {
		if err := createIfMissing(db, &models.Product{}, &products[i], "vendor_id = ? AND title = ?", products[i].VendorID, products[i].Title); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].Title, err)
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

func createIfMissing(db *gorm.DB, model, row interface{}, query string, args ...interface{}) error {
	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(row).Error
}

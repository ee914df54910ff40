// internal/database/store_test.go
package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/wizard"
)

type RecordStoreTestSuite struct {
	suite.Suite
	db        *gorm.DB
	store     *GormRecordStore
	ctx       context.Context
	applicant uuid.UUID
}

func (s *RecordStoreTestSuite) SetupTest() {
	db, err := OpenSQLite(filepath.Join(s.T().TempDir(), "store.db"))
	s.Require().NoError(err)

	s.db = db
	s.store = NewGormRecordStore(db)
	s.ctx = context.Background()
	s.applicant = uuid.New()
}

func (s *RecordStoreTestSuite) TearDownTest() {
	Close(s.db)
}

func (s *RecordStoreTestSuite) draftFields() wizard.Record {
	return wizard.Record{
		"applicant_id":    s.applicant.String(),
		"flavor":          "partner_profile",
		"product_id":      nil,
		"name":            "A",
		"email":           "a@b.com",
		"partner_roles":   []string{"reseller", "affiliate"},
		"current_step":    1,
		"completed_steps": []int64{1},
		"status":          "draft",
	}
}

func (s *RecordStoreTestSuite) TestCreateAssignsIdentity() {
	created, err := s.store.Create(s.ctx, wizard.ApplicationsTable, s.draftFields())
	s.Require().NoError(err)

	id := wizard.IDOf(created)
	s.Require().NotEmpty(id)
	s.Equal("A", created["name"])

	var app models.PartnerApplication
	s.Require().NoError(s.db.First(&app, "id = ?", id).Error)
	s.Equal(s.applicant, app.ApplicantID)
	s.Nil(app.ProductID)
	s.Equal(models.StringArray{"reseller", "affiliate"}, app.PartnerRoles)
	s.Equal(models.Int64Array{1}, app.CompletedSteps)
	s.Equal(models.ApplicationStatusDraft, app.Status)
	s.False(app.CreatedAt.IsZero())
}

func (s *RecordStoreTestSuite) TestUpdateByIdentity() {
	created, err := s.store.Create(s.ctx, wizard.ApplicationsTable, s.draftFields())
	s.Require().NoError(err)
	id := wizard.IDOf(created)

	updated, err := s.store.Update(s.ctx, wizard.ApplicationsTable, id, wizard.Record{
		"company_name":    "Northwind",
		"current_step":    2,
		"completed_steps": []int64{1, 2},
	})
	s.Require().NoError(err)
	s.Equal(id, wizard.IDOf(updated))

	var app models.PartnerApplication
	s.Require().NoError(s.db.First(&app, "id = ?", id).Error)
	s.Equal("Northwind", app.CompanyName)
	s.Equal(2, app.CurrentStep)
	s.Equal(models.Int64Array{1, 2}, app.CompletedSteps)
	s.Equal("a@b.com", app.Email)

	var count int64
	s.db.Model(&models.PartnerApplication{}).Count(&count)
	s.EqualValues(1, count)
}

func (s *RecordStoreTestSuite) TestUpdateMissingRecord() {
	_, err := s.store.Update(s.ctx, wizard.ApplicationsTable, uuid.NewString(), wizard.Record{"name": "B"})

	var serr *wizard.StoreError
	s.Require().ErrorAs(err, &serr)
	s.Equal("update", serr.Op)
	s.ErrorIs(err, wizard.ErrRecordNotFound)
}

func (s *RecordStoreTestSuite) TestUpdateSkipsSoftDeleted() {
	created, err := s.store.Create(s.ctx, wizard.ApplicationsTable, s.draftFields())
	s.Require().NoError(err)
	id := wizard.IDOf(created)

	s.Require().NoError(s.db.Delete(&models.PartnerApplication{}, "id = ?", id).Error)

	_, err = s.store.Update(s.ctx, wizard.ApplicationsTable, id, wizard.Record{"name": "B"})
	s.ErrorIs(err, wizard.ErrRecordNotFound)
}

func (s *RecordStoreTestSuite) TestListWhere() {
	first, err := s.store.Create(s.ctx, wizard.ApplicationsTable, s.draftFields())
	s.Require().NoError(err)

	other := s.draftFields()
	other["flavor"] = "vendor_onboarding"
	_, err = s.store.Create(s.ctx, wizard.ApplicationsTable, other)
	s.Require().NoError(err)

	rows, err := s.store.ListWhere(s.ctx, wizard.ApplicationsTable, wizard.Predicate{
		"applicant_id": s.applicant.String(),
		"flavor":       "partner_profile",
		"product_id":   nil,
		"status":       "draft",
	}, "updated_at desc")
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.NotEmpty(wizard.IDOf(rows[0]))
	s.Equal(wizard.IDOf(first), wizard.IDOf(rows[0]))
	s.IsType("", rows[0]["id"])
	s.Equal("partner_profile", rows[0]["flavor"])
	s.Equal("A", rows[0]["name"])

	_, err = s.store.ListWhere(s.ctx, wizard.ApplicationsTable, nil, "updated_at; drop table accounts")
	s.Error(err)
}

func (s *RecordStoreTestSuite) TestDrivesWizardEndToEnd() {
	flavor, err := wizard.LookupFlavor("vendor_onboarding")
	s.Require().NoError(err)

	w, err := wizard.New(flavor, wizard.SessionContext{UserID: s.applicant.String()}, s.store,
		wizard.ContinueOnPersistError(false))
	s.Require().NoError(err)

	s.Require().NoError(w.Set(s.ctx, wizard.FieldEmail, wizard.TextValue("v@acme.test")))
	s.Require().NoError(w.Set(s.ctx, wizard.FieldName, wizard.TextValue("V")))
	for !w.Progress().IsFinalStep {
		_, err := w.Next(s.ctx)
		s.Require().NoError(err)
	}
	p, err := w.Submit(s.ctx)
	s.Require().NoError(err)

	var app models.PartnerApplication
	s.Require().NoError(s.db.First(&app, "id = ?", p.DraftID).Error)
	s.Equal(models.ApplicationStatusCompleted, app.Status)
	s.Equal(4, app.CurrentStep)
	s.NotNil(app.SubmittedAt)
}

func (s *RecordStoreTestSuite) TestListWhereNoMatch() {
	rows, err := s.store.ListWhere(s.ctx, wizard.ApplicationsTable, wizard.Predicate{
		"applicant_id": uuid.NewString(),
	}, "")
	s.Require().NoError(err)
	s.Empty(rows)
}

func TestPlainValue(t *testing.T) {
	var text interface{} = []byte("abc")
	var number interface{} = int64(7)

	assert.Equal(t, "abc", plainValue(&text))
	assert.Equal(t, int64(7), plainValue(&number))
	assert.Equal(t, "x", plainValue("x"))
	assert.Nil(t, plainValue((*interface{})(nil)))
}

func TestRecordStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RecordStoreTestSuite))
}

func TestOpenSQLiteMigratesEveryModel(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer Close(db)

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}

	account := models.Account{
		Email:       "json@acme.test",
		AccountType: models.AccountTypeVendor,
		ProfileData: models.JSONB{"tier": "gold"},
	}
	require.NoError(t, db.Create(&account).Error)

	var loaded models.Account
	require.NoError(t, db.First(&loaded, "id = ?", account.ID).Error)
	assert.Equal(t, "gold", loaded.ProfileData["tier"])
}

func TestSeedInitialDataIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, SeedInitialData(db))
	require.NoError(t, SeedInitialData(db))

	var accounts, products int64
	db.Model(&models.Account{}).Count(&accounts)
	db.Model(&models.Product{}).Where("status = ?", models.ProductStatusActive).Count(&products)
	assert.EqualValues(t, 3, accounts)
	assert.EqualValues(t, 3, products)
}

func TestWithTransactionRollsBack(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	defer Close(db)

	err = WithTransaction(db, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Account{Email: "x@y.z", AccountType: models.AccountTypePartner}).Error; err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	var count int64
	db.Model(&models.Account{}).Count(&count)
	assert.Zero(t, count)
}

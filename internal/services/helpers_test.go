// internal/services/helpers_test.go
package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/cache"
	"github.com/partnerlink/partnerlink-backend/internal/config"
	"github.com/partnerlink/partnerlink-backend/internal/database"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/wizard"
)

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

// env wires every service over a seeded sqlite database.
type env struct {
	db            *gorm.DB
	cfg           *config.Config
	mailer        *fakeMailer
	notifications *NotificationService
	products      *ProductService
	applications  *ApplicationService
	accounts      *AccountService
	messages      *MessageService
	dashboard     *DashboardService
	wizards       *WizardService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, database.SeedInitialData(db))

	cfg := &config.Config{
		Wizard: config.WizardConfig{
			ContinueOnPersistError: true,
			SessionTTL:             time.Hour,
			JanitorInterval:        time.Minute,
		},
		Frontend: config.FrontendConfig{BaseURL: "https://app.partnerlink.test"},
		AWS:      config.AWSConfig{LocalUploadDir: t.TempDir()},
	}

	e := &env{db: db, cfg: cfg, mailer: &fakeMailer{}}
	e.notifications = NewNotificationService(db, cfg).WithMailer(e.mailer)
	e.products = NewProductService(db, cache.NewCatalogCache(nil, time.Minute))
	e.applications = NewApplicationService(db, e.notifications)
	e.accounts = NewAccountService(db)
	e.messages = NewMessageService(db, e.notifications)
	e.dashboard = NewDashboardService(db)
	e.wizards = NewWizardService(database.NewGormRecordStore(db), e.products, e.applications, e.applications, cfg.Wizard)
	return e
}

func (e *env) product(t *testing.T, title string) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, e.db.First(&p, "title = ?", title).Error)
	return p
}

func partnerSession() wizard.SessionContext {
	return wizard.SessionContext{
		UserID:      database.SeedPartnerID.String(),
		Email:       "partner@northwind.test",
		Name:        "Northwind Partners",
		AccountType: string(models.AccountTypePartner),
	}
}

func vendorReviewer() Reviewer {
	return Reviewer{ID: database.SeedVendorID}
}

// submitApplication drives a partner_application wizard for the seeded
// partner to submission and returns the application id.
func (e *env) submitApplication(t *testing.T, productID uuid.UUID, roles ...string) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	state, err := e.wizards.Start(ctx, partnerSession(), &StartWizardRequest{Flavor: "partner_application", ProductID: &productID})
	require.NoError(t, err)
	sid := state.SessionID
	uid := partnerSession().UserID

	_, err = e.wizards.Next(ctx, sid, uid)
	require.NoError(t, err)
	_, err = e.wizards.SetFields(ctx, sid, uid, map[string]interface{}{
		"company_name": "Northwind Partners Ltd.",
		"entity_type":  "company",
		"team_size":    float64(12),
	})
	require.NoError(t, err)
	_, err = e.wizards.Next(ctx, sid, uid)
	require.NoError(t, err)
	for _, role := range roles {
		_, err = e.wizards.Toggle(ctx, sid, uid, "partner_roles", role)
		require.NoError(t, err)
	}
	for {
		state, err = e.wizards.Next(ctx, sid, uid)
		require.NoError(t, err)
		if state.Progress.IsFinalStep {
			break
		}
	}
	state, err = e.wizards.Submit(ctx, sid, uid)
	require.NoError(t, err)

	return uuid.MustParse(state.Progress.DraftID)
}

// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/config"
	"github.com/partnerlink/partnerlink-backend/internal/handlers"
	"github.com/partnerlink/partnerlink-backend/internal/middleware"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/services"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

// Services is everything the HTTP layer needs. cmd/server builds it once
// so background workers share the same instances.
type Services struct {
	Accounts      *services.AccountService
	Applications  *services.ApplicationService
	Dashboard     *services.DashboardService
	Messages      *services.MessageService
	Notifications *services.NotificationService
	Products      *services.ProductService
	Storage       *services.StorageService
	Wizards       *services.WizardService
	RateLimiter   *middleware.RateLimiter
}

// NewRateLimiter builds the per-IP limiter from configuration.
func NewRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
}

func Initialize(db *gorm.DB, cfg *config.Config, svc *Services) *gin.Engine {
	wizardHandler := handlers.NewWizardHandler(svc.Wizards)
	applicationHandler := handlers.NewApplicationHandler(svc.Applications)
	productHandler := handlers.NewProductHandler(svc.Products, svc.Storage)
	accountHandler := handlers.NewAccountHandler(svc.Accounts, svc.Dashboard)
	messageHandler := handlers.NewMessageHandler(svc.Messages)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	if cfg.JWT.Issuer != "" {
		utils.SetJWTIssuer(cfg.JWT.Issuer)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}
	if svc.RateLimiter != nil {
		r.Use(svc.RateLimiter.Middleware())
	}
	if db != nil {
		r.Use(middleware.AuditLogMiddleware(db))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	authRequired := middleware.AuthRequired(svc.Accounts)
	vendorOnly := middleware.RequireAccountType(models.AccountTypeVendor)

	v1 := r.Group("/v1")
	{
		wizards := v1.Group("/wizards")
		wizards.Use(authRequired)
		{
			wizards.GET("/flavors", wizardHandler.GetFlavors)
			wizards.POST("", wizardHandler.Start)
			wizards.POST("/resume/:application_id", wizardHandler.Resume)
			wizards.GET("/:id", wizardHandler.Get)
			wizards.DELETE("/:id", wizardHandler.Discard)
			wizards.PATCH("/:id/fields", wizardHandler.SetFields)
			wizards.POST("/:id/toggle", wizardHandler.Toggle)
			wizards.POST("/:id/next", wizardHandler.Next)
			wizards.POST("/:id/previous", wizardHandler.Previous)
			wizards.POST("/:id/submit", wizardHandler.Submit)
		}

		applications := v1.Group("/applications")
		applications.Use(authRequired)
		{
			applications.GET("", applicationHandler.GetMyApplications)
			applications.GET("/incoming", vendorOnly, applicationHandler.GetIncomingApplications)
			applications.GET("/:id", applicationHandler.GetApplication)
			applications.PUT("/:id/approve", vendorOnly, applicationHandler.ApproveApplication)
			applications.PUT("/:id/reject", vendorOnly, applicationHandler.RejectApplication)
		}

		partnerships := v1.Group("/partnerships")
		partnerships.Use(authRequired)
		{
			partnerships.GET("", applicationHandler.GetPartnerships)
			partnerships.PUT("/:id/end", applicationHandler.EndPartnership)
		}

		v1.GET("/marketplace", productHandler.GetMarketplace)

		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.GetProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)

			protected := products.Group("")
			protected.Use(authRequired, vendorOnly)
			{
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.DELETE("/:id", productHandler.DeleteProduct)
				protected.POST("/upload-media", productHandler.UploadProductMedia)
			}
		}

		me := v1.Group("/me")
		me.Use(authRequired)
		{
			me.GET("", accountHandler.GetProfile)
			me.PUT("", accountHandler.UpdateProfile)
		}
		v1.GET("/dashboard", authRequired, accountHandler.GetDashboard)

		conversations := v1.Group("/conversations")
		conversations.Use(authRequired)
		{
			conversations.GET("", messageHandler.GetConversations)
			conversations.POST("", messageHandler.StartConversation)
			conversations.GET("/:id/messages", messageHandler.GetMessages)
			conversations.POST("/:id/messages", messageHandler.PostMessage)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(authRequired)
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}
	}

	// Media stored without S3 is served from the local upload directory.
	if cfg.AWS.AccessKeyID == "" && cfg.AWS.LocalUploadDir != "" {
		r.Static("/uploads", cfg.AWS.LocalUploadDir)
	}

	return r
}

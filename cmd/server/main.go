// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/cache"
	"github.com/partnerlink/partnerlink-backend/internal/config"
	"github.com/partnerlink/partnerlink-backend/internal/database"
	"github.com/partnerlink/partnerlink-backend/internal/i18n"
	"github.com/partnerlink/partnerlink-backend/internal/router"
	"github.com/partnerlink/partnerlink-backend/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogging(cfg)

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx, db, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize services")
	}
	go svc.Wizards.StartJanitor(ctx)
	go svc.RateLimiter.Cleanup(ctx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router.Initialize(db, cfg, svc),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
		return
	}

	logrus.Info("Server exited")
}

func configureLogging(cfg *config.Config) {
	logrus.SetOutput(os.Stdout)
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func buildServices(ctx context.Context, db *gorm.DB, cfg *config.Config) (*router.Services, error) {
	redisClient := cache.NewRedisClient(cfg.Redis)
	if err := cache.Ping(ctx, redisClient); err != nil {
		logrus.WithError(err).Warn("Redis unavailable, marketplace catalog will not be cached")
		redisClient = nil
	}

	storage, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	notifications := services.NewNotificationService(db, cfg)
	products := services.NewProductService(db, cache.NewCatalogCache(redisClient, cfg.Marketplace.CatalogCacheTTL))
	applications := services.NewApplicationService(db, notifications)

	return &router.Services{
		Accounts:      services.NewAccountService(db),
		Applications:  applications,
		Dashboard:     services.NewDashboardService(db),
		Messages:      services.NewMessageService(db, notifications),
		Notifications: notifications,
		Products:      products,
		Storage:       storage,
		Wizards:       services.NewWizardService(database.NewGormRecordStore(db), products, applications, applications, cfg.Wizard),
		RateLimiter:   router.NewRateLimiter(cfg),
	}, nil
}

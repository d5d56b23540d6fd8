package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KOLIFAST/backend/internal/config"
	"github.com/KOLIFAST/backend/internal/handlers"
	"github.com/KOLIFAST/backend/internal/middleware"
	"github.com/KOLIFAST/backend/internal/repositories/mongodb"
	"github.com/KOLIFAST/backend/internal/services"
	"github.com/KOLIFAST/backend/pkg/cache"
	"github.com/KOLIFAST/backend/pkg/database"
	"github.com/KOLIFAST/backend/pkg/logger"
	"github.com/KOLIFAST/backend/pkg/sms"
	"github.com/KOLIFAST/backend/pkg/storage"
	"github.com/KOLIFAST/backend/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  "json",
		Output:  "stdout",
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	auditLogger, err := logger.NewAuditLogger(&logger.Config{
		Level:   logger.InfoLevel,
		Output:  "stdout",
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		appLogger.WithError(err).Fatal("Failed to run migrations")
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		IdleTimeout:  cfg.Redis.IdleTimeout,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisCache.Close()

	smsProvider, err := buildSMSProvider(cfg.SMS)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize SMS provider")
	}

	storageProvider, err := buildStorageProvider(cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage provider")
	}

	// Services
	cacheService := services.NewCacheService(redisCache, appLogger)
	userRepo := mongodb.NewUserRepository(db.Database, cacheService)
	documentRepo := mongodb.NewKYCDocumentRepository(db.Database)
	referenceRepo := mongodb.NewKYCReferenceRepository(db)
	statusRepo := mongodb.NewKYCStatusRepository(db.Database)
	parcelRepo := mongodb.NewParcelRepository(db)

	authService := services.NewAuthService(userRepo, cacheService, smsProvider, cfg.Security.JWTSecret, appLogger)
	userService := services.NewUserService(userRepo, appLogger)
	uploadService := services.NewUploadService(storageProvider, appLogger)
	kycService := services.NewKYCService(documentRepo, referenceRepo, statusRepo, userRepo, appLogger)
	pricingService := services.NewPricingService()
	parcelService := services.NewParcelService(parcelRepo, userRepo, pricingService, appLogger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, auditLogger)
	userHandler := handlers.NewUserHandler(userService, uploadService, auditLogger)
	kycHandler := handlers.NewKYCHandler(kycService, uploadService, auditLogger)
	parcelHandler := handlers.NewParcelHandler(parcelService, pricingService)
	healthHandler := handlers.NewHealthHandler(db, redisCache)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, authHandler, cfg.Security.JWTSecret)
		routes.SetupUserRoutes(v1, userHandler, cfg.Security.JWTSecret)
		routes.SetupKYCRoutes(v1, kycHandler, cfg.Security.JWTSecret)
		routes.SetupParcelRoutes(v1, parcelHandler, userRepo, cfg.Security.JWTSecret)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithField("port", cfg.App.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
	appLogger.Info("Server stopped")
}

func buildSMSProvider(cfg *config.SMSConfig) (sms.SMSProvider, error) {
	switch cfg.Provider {
	case "whatsapp":
		return sms.NewWhatsAppProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.WhatsApp.FromNumber), nil
	case "aws":
		return sms.NewAWSSNSProvider(cfg.AWS.Region)
	default:
		return sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber), nil
	}
}

func buildStorageProvider(cfg *config.StorageConfig) (storage.StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return storage.NewAWSS3Storage(cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNDomain)
	default:
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	}
}

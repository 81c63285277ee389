// Package main provides the main entry point for the SmileTrip booking platform
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/smiletrip/smiletrip/app/handlers"
	"github.com/smiletrip/smiletrip/app/middleware"
	"github.com/smiletrip/smiletrip/app/router"
	"github.com/smiletrip/smiletrip/app/scheduler"
	"github.com/smiletrip/smiletrip/app/services"
	businessflow "github.com/smiletrip/smiletrip/business_flow"
	"github.com/smiletrip/smiletrip/config"
	"github.com/smiletrip/smiletrip/repository"
	"github.com/smiletrip/smiletrip/utils"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting SmileTrip application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	initializeLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Setup graceful shutdown
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeLogging routes the standard logger through a size-rotated file
// when file output is configured. Stdout stays attached for "both".
func initializeLogging(cfg config.LoggingConfig) {
	if cfg.Output != "file" && cfg.Output != "both" {
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	if cfg.Output == "both" {
		log.SetOutput(io.MultiWriter(os.Stdout, rotated))
		return
	}
	log.SetOutput(rotated)
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeNotificationService initializes the email notification service
func initializeNotificationService(cfg *config.ProductionConfig) services.NotificationService {
	var emailProvider services.EmailProvider
	if cfg.Email.Username != "" && cfg.Email.Password != "" {
		emailProvider = services.NewSMTPEmailProvider(
			cfg.Email.Host,
			cfg.Email.Port,
			cfg.Email.Username,
			cfg.Email.Password,
			cfg.Email.FromEmail,
		)
	} else {
		emailProvider = services.NewMockEmailProvider()
	}

	return services.NewNotificationService(emailProvider)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	usdRate, err := decimal.NewFromString(cfg.Pricing.USDRate)
	if err != nil || !usdRate.IsPositive() {
		return nil, fmt.Errorf("invalid PRICING_USD_RATE %q", cfg.Pricing.USDRate)
	}
	depositPercent, err := decimal.NewFromString(cfg.Pricing.DepositPercent)
	if err != nil || !depositPercent.IsPositive() {
		return nil, fmt.Errorf("invalid PRICING_DEPOSIT_PERCENT %q", cfg.Pricing.DepositPercent)
	}

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db)
	sessionRepo := repository.NewCustomerSessionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	clinicRepo := repository.NewClinicRepository(db)
	treatmentRepo := repository.NewTreatmentRepository(db)
	packageRepo := repository.NewTreatmentPackageRepository(db)
	offerRepo := repository.NewSpecialOfferRepository(db)
	promoRepo := repository.NewPromoCodeRepository(db)
	appliedOfferRepo := repository.NewAppliedSpecialOfferRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRequestRepo := repository.NewPaymentRequestRepository(db)

	// Initialize services
	notificationService := initializeNotificationService(cfg)

	paymentGateway := services.NewHTTPPaymentGateway(
		cfg.Payment.GatewayBaseURL,
		cfg.Payment.GatewayAPIKey,
		cfg.Payment.Terminal,
		cfg.Payment.Timeout,
	)

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Log that services are initialized
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	signupFlow := businessflow.NewSignupFlow(
		customerRepo,
		sessionRepo,
		auditRepo,
		tokenService,
		notificationService,
		db,
	)

	loginFlow := businessflow.NewLoginFlow(
		customerRepo,
		sessionRepo,
		auditRepo,
		tokenService,
		db,
	)

	catalogFlow := businessflow.NewCatalogFlow(
		clinicRepo,
		treatmentRepo,
		packageRepo,
		offerRepo,
		rc,
		utils.CatalogCacheTTL,
		usdRate,
	)

	quoteFlow := businessflow.NewQuoteFlow(
		quoteRepo,
		clinicRepo,
		treatmentRepo,
		packageRepo,
		offerRepo,
		promoRepo,
		appliedOfferRepo,
		auditRepo,
		db,
		usdRate,
	)

	checkoutFlow := businessflow.NewCheckoutFlow(
		quoteRepo,
		bookingRepo,
		paymentRequestRepo,
		appliedOfferRepo,
		promoRepo,
		auditRepo,
		paymentGateway,
		db,
		depositPercent,
	)

	clinicAdminFlow := businessflow.NewClinicAdminFlow(
		offerRepo,
		promoRepo,
		packageRepo,
		treatmentRepo,
		appliedOfferRepo,
		quoteRepo,
		auditRepo,
		db,
	)

	adminReportFlow := businessflow.NewAdminReportFlow(quoteRepo, clinicRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(signupFlow, loginFlow)
	catalogHandler := handlers.NewCatalogHandler(catalogFlow)
	quoteHandler := handlers.NewQuoteHandler(quoteFlow)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutFlow)
	clinicAdminHandler := handlers.NewClinicAdminHandler(clinicAdminFlow)
	reportHandler := handlers.NewReportHandler(adminReportFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService, customerRepo)

	// Initialize router
	appRouter := router.NewFiberRouter(
		authHandler,
		catalogHandler,
		quoteHandler,
		checkoutHandler,
		clinicAdminHandler,
		reportHandler,
		authMiddleware,
	)

	if cfg.Scheduler.QuoteMaintenanceEnabled {
		sched := scheduler.NewMaintenanceScheduler(quoteRepo, sessionRepo, nil, cfg.Scheduler.QuoteMaintenanceInterval)
		stopScheduler := sched.Start(context.Background())
		stopFuncs = append(stopFuncs, stopScheduler)
	}

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

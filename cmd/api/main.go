package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/config"
	domainRepo "github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/internal/infrastructure/cache"
	"github.com/sangkips/billdesk/internal/infrastructure/database"
	"github.com/sangkips/billdesk/internal/infrastructure/repository"
	"github.com/sangkips/billdesk/internal/presentation/http/handler"
	"github.com/sangkips/billdesk/internal/presentation/http/middleware"
	"github.com/sangkips/billdesk/internal/presentation/http/routes"
	"github.com/sangkips/billdesk/pkg/printer"
	"github.com/sangkips/billdesk/pkg/utils"
	"gorm.io/gorm"
)

const idempotencyCleanupInterval = time.Hour

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if cfg.App.SeedDemo {
		if err := database.SeedDemoData(db); err != nil {
			log.Printf("Warning: Failed to seed demo data: %v", err)
		}
	}

	healthChecks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}

	// Draft store
	var drafts domainRepo.DraftRepository
	var rdb *redis.Client
	switch cfg.Composer.DraftStore {
	case "redis":
		rdb, err = cache.ConnectRedis(&cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() { _ = cache.DisconnectRedis(rdb) }()
		drafts = cache.NewRedisDraftStore(rdb, cfg.Redis.KeyPrefix, cfg.Composer.DraftTTL)
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	default:
		memoryStore := cache.NewMemoryDraftStore(cfg.Composer.DraftTTL)
		go memoryStore.RunSweeper(ctx, cfg.Composer.SweepInterval)
		drafts = memoryStore
	}
	log.Printf("Using %s draft store (TTL %s)", cfg.Composer.DraftStore, cfg.Composer.DraftTTL)

	tokens := utils.NewSessionTokenManager(cfg.Session.Secret, cfg.Session.TTL)

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	billRepo := repository.NewBillRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	go runIdempotencyCleanup(ctx, idempotencyRepo)

	// Initialize services
	customerService := service.NewCustomerService(customerRepo)
	productService := service.NewProductService(productRepo)
	billService := service.NewBillService(billRepo, productRepo, customerRepo)
	dashboardService := service.NewDashboardService(billRepo, customerRepo)
	composerService := service.NewComposerService(drafts, productService, customerService, billService, tokens)

	// Initialize thermal printer
	thermalPrinter, err := printer.New(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}
	printerService := service.NewPrinterService(thermalPrinter, billService, cfg.Printer.ShopName, cfg.Printer.CharWidth)

	handlers := &routes.Handlers{
		Health:    handler.NewHealthHandler(cfg.App.Name, healthChecks),
		Composer:  handler.NewComposerHandler(composerService),
		Customer:  handler.NewCustomerHandler(customerService),
		Product:   handler.NewProductHandler(productService),
		Bill:      handler.NewBillHandler(billService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Printer:   handler.NewPrinterHandler(printerService),
	}

	rateLimiter := middleware.NewClientRateLimiter(middleware.NewRateLimiterConfig(
		cfg.RateLimit.Requests,
		time.Duration(cfg.RateLimit.Duration)*time.Second,
	))
	defer rateLimiter.Stop()

	router := routes.Setup(handlers, &routes.Deps{
		Tokens:          tokens,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	closeDB(db)
}

// runIdempotencyCleanup deletes expired idempotency keys until ctx is done
func runIdempotencyCleanup(ctx context.Context, repo domainRepo.IdempotencyRepository) {
	ticker := time.NewTicker(idempotencyCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.Printf("Failed to delete expired idempotency keys: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Deleted %d expired idempotency keys", n)
			}
		}
	}
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}

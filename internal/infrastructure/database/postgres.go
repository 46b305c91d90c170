package database

import (
	"context"
	"fmt"
	"log"

	"github.com/sangkips/billdesk/internal/config"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB opens the PostgreSQL connection pool
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Println("Successfully connected to PostgreSQL database")
	return db, nil
}

// AutoMigrate creates or updates the billing tables
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&entity.Customer{},
		&entity.Product{},
		&entity.Bill{},
		&entity.BillItem{},
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// Ping reports whether the database answers within ctx
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// SeedDemoData fills an empty catalog with a few products and a walk-in customer
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Catalog already has products, skipping demo seed")
		return nil
	}

	log.Println("Seeding demo catalog...")

	category := func(s string) *string { return &s }
	products := []entity.Product{
		{Name: "Notebook A5", Price: 12000, Stock: 50, Category: category("Stationery")},
		{Name: "Gel Pen Blue", Price: 2500, Stock: 200, Category: category("Stationery")},
		{Name: "Mineral Water 1L", Price: 2000, Stock: 120, Category: category("Beverages")},
		{Name: "Green Tea 100g", Price: 18500, Stock: 30, Category: category("Beverages")},
		{Name: "USB-C Cable", Price: 34900, Stock: 15, Category: category("Electronics")},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		walkIn := entity.Customer{Name: "Walk-in Customer", Phone: "0000000000"}
		if err := tx.Create(&walkIn).Error; err != nil {
			return fmt.Errorf("seed customer: %w", err)
		}
		log.Printf("Seeded %d products and 1 customer", len(products))
		return nil
	})
}

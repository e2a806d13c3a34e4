// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/javajoker/pod-backend/internal/config"
	"github.com/javajoker/pod-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := Open(dialector, gormLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	target := cfg.Path
	if cfg.Driver != "sqlite" {
		target = cfg.Redacted()
	}
	logrus.WithFields(logrus.Fields{
		"driver": cfg.Driver,
		"target": target,
	}).Info("Database connection established successfully")
	return db, nil
}

// Open connects with the settings every caller relies on: driver errors are
// translated so unique violations surface as gorm.ErrDuplicatedKey, and the
// link table carries no foreign keys so orphans from legacy data can exist
// until the reconcile sweep removes them.
func Open(dialector gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(level),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.BaseProduct{},
		&models.Design{},
		&models.VendorProduct{},
		&models.DesignProductLink{},
		&models.AuditLog{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Design indexes
		"CREATE INDEX IF NOT EXISTS idx_designs_vendor_status ON designs(vendor_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_designs_status_submitted ON designs(status, submitted_at)",

		// Vendor product indexes
		"CREATE INDEX IF NOT EXISTS idx_vendor_products_vendor_status ON vendor_products(vendor_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_vendor_products_created_at ON vendor_products(created_at DESC)",

		// Audit and notification indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_action ON audit_logs(actor_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_recipient_status ON notifications(recipient_id, status)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedBaseProducts creates a small catalog for local development.
func SeedBaseProducts(db *gorm.DB) error {
	return WithTransaction(db, func(tx *gorm.DB) error {
		return seedBaseProducts(tx)
	})
}

func seedBaseProducts(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&models.BaseProduct{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count base products: %w", err)
	}
	if count > 0 {
		return nil
	}

	catalog := []models.BaseProduct{
		{Name: "Classic T-Shirt", Price: 12.50, Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"white", "black"}, IsActive: true},
		{Name: "Hoodie", Price: 28.00, Sizes: []string{"M", "L", "XL"}, Colors: []string{"grey", "navy"}, IsActive: true},
		{Name: "Ceramic Mug", Price: 7.90, Colors: []string{"white"}, IsActive: true},
	}
	if err := tx.Create(&catalog).Error; err != nil {
		return fmt.Errorf("failed to seed base products: %w", err)
	}

	logrus.WithField("count", len(catalog)).Info("Base product catalog seeded")
	return nil
}

// ForUpdate adds a row lock to the query on databases that support one.
// SQLite serializes writers at the database level, so the clause is skipped there.
// An optional table name restricts the lock to that table in joined queries.
func ForUpdate(tx *gorm.DB, table ...string) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	locking := clause.Locking{Strength: "UPDATE"}
	if len(table) > 0 {
		locking.Table = clause.Table{Name: table[0]}
	}
	return tx.Clauses(locking)
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

package db

import (
	"fmt"
	"time"

	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/logging"
	"github.com/safebite/platform/internal/common/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is a wrapper around gorm.DB
type Database struct {
	*gorm.DB
}

// NewPostgresDB creates a new database connection
func NewPostgresDB(cfg *config.DatabaseConfig) (*Database, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Username, cfg.Password, cfg.DBName, cfg.Port)

	level := logger.Warn
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		level = logger.Info
	}
	newLogger := logger.New(
		logging.StdLogger(logrus.InfoLevel),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	return &Database{db}, nil
}

// MigrateSchema creates or updates the price watch schema
func (db *Database) MigrateSchema() error {
	return db.AutoMigrate(
		&models.PriceSnapshot{},
		&models.PriceWatch{},
		&models.Notification{},
	)
}

// Close releases the underlying connection pool
func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

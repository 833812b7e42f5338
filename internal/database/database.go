package database

import (
	"database/sql"
	"fmt"
	"strings"

	"masterspa/internal/models"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

// New opens the catalog database and migrates the schema. URLs starting
// with sqlite:// use SQLite (development and tests); anything else is
// handed to the postgres driver.
func New(databaseURL, logLevel string) (*Database, error) {
	var db *gorm.DB
	var err error

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(logLevel)),
	}

	if strings.HasPrefix(databaseURL, "sqlite://") {
		// SQLite for development
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), gormConfig)
		if err == nil {
			// :memory: databases exist per connection
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				sqlDB.SetMaxOpenConns(1)
			}
		}
	} else {
		// PostgreSQL for production
		var sqlDB *sql.DB
		sqlDB, err = sql.Open("postgres", databaseURL)
		if err == nil {
			db, err = gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Database{DB: db}, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Product{}, "Terms", &models.ProductTerm{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&models.Option{},
		&models.Term{},
		&models.Product{},
		&models.ProductTerm{},
		&models.ImportLog{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderMeta{},
		&models.OrderItemMeta{},
	)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "info", "warn":
		return logger.Warn
	case "silent":
		return logger.Silent
	default:
		return logger.Error
	}
}

package config

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"farmtally/internal/models"
)

var (
	// DB is the globally accessible database handle
	DB *gorm.DB
)

// OpenDB opens the database named by the settings and migrates the schema.
func OpenDB(s *Settings) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch s.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(s.SQLitePath)
	case "postgres", "":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			s.DBHost, s.DBUser, s.DBPassword, s.DBName, s.DBPort, s.DBSSLMode, s.DBTimezone,
		)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(logrus.StandardLogger(), gormlogger.Config{
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	// plates used to be unique across soft-deleted lorries too
	if m := db.Migrator(); m.HasIndex(&models.Lorry{}, "idx_lorries_plate_number") {
		if err := m.DropIndex(&models.Lorry{}, "idx_lorries_plate_number"); err != nil {
			return fmt.Errorf("drop legacy plate index: %w", err)
		}
	}
	return nil
}

// InitDB opens the database from the loaded settings and assigns DB.
func InitDB() {
	db, err := OpenDB(App)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialise database")
	}
	DB = db
}

// GetDB returns the initialized DB handle
func GetDB() *gorm.DB {
	return DB
}

package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"scci_dashboard/internal/models"
)

// InitDB opens the postgres connection described by cfg and migrates the
// routes, telemetry, performance and user tables.
func InitDB(cfg *Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.New(logrus.StandardLogger(), gormlogger.Config{
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(&models.Route{}, &models.TelemetryRecord{}, &models.PerformanceRecord{}, &models.User{})
	if err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}

	logrus.Info("database connected and migrated")
	return db, nil
}

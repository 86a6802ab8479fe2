package db

import (
	"fmt"
	"log/slog"

	"devqa/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to postgres and migrates the schema.
func Open(dsn, logLevel string) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(logLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	slog.Info("database connection established")

	if err := Migrate(database); err != nil {
		return nil, err
	}
	slog.Info("database migration completed")
	return database, nil
}

// Migrate creates or updates every table. It is shared by the server and
// the sqlite-backed tests.
func Migrate(database *gorm.DB) error {
	if err := database.SetupJoinTable(&models.Question{}, "Tags", &models.QuestionTag{}); err != nil {
		return fmt.Errorf("setup question_tags join table: %w", err)
	}

	err := database.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.Tag{},
		&models.QuestionTag{},
		&models.Answer{},
		&models.Comment{},
		&models.Vote{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}
